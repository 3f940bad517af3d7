package models

import "time"

// ChatSession groups an ordered chat transcript.
type ChatSession struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FirstUserMessage returns the earliest message sent by the user.
func (s *ChatSession) FirstUserMessage() (Message, bool) {
	for _, msg := range s.Messages {
		if msg.Sender == SenderUser {
			return msg, true
		}
	}
	return Message{}, false
}
