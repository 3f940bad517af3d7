package models

import "time"

// Sender identifies who wrote a chat message.
type Sender string

const (
	SenderUser  Sender = "user"
	SenderAgent Sender = "agent"
)

// Message is one turn of a chat transcript. Messages are append-only.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// Turn is the reduced form of a message that is replayed to the relay.
type Turn struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

// Turns strips messages down to the sender/content pairs sent upstream.
func Turns(messages []Message) []Turn {
	turns := make([]Turn, 0, len(messages))
	for _, msg := range messages {
		turns = append(turns, Turn{Sender: string(msg.Sender), Content: msg.Content})
	}
	return turns
}
