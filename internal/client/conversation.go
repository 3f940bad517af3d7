package client

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/S4DIB/startup-world-cup/internal/chatstore"
	"github.com/S4DIB/startup-world-cup/internal/logging"
	"github.com/S4DIB/startup-world-cup/internal/models"
)

const (
	// Greeting opens every new session.
	Greeting = "Hello! I'm your AI CTO. I want to understand your vision completely so I can give you the best technical strategy. Let's start with the most important question:\nWhat's your business idea? Describe it in simple terms - what are you building and why?"
	// Apology replaces the agent reply when the relay call fails.
	Apology = "Sorry, I'm having trouble responding right now. Please try again later."
)

var (
	ErrEmptyMessage    = errors.New("message is empty")
	ErrSessionNotFound = errors.New("session not found")
)

// Chatter sends one message plus history to the relay.
type Chatter interface {
	Chat(ctx context.Context, message string, history []models.Turn) (string, error)
}

// Conversation runs chat turns against sessions kept in a local store.
type Conversation struct {
	store *chatstore.Store
	chat  Chatter
	now   func() time.Time
}

func NewConversation(store *chatstore.Store, chat Chatter) *Conversation {
	return &Conversation{store: store, chat: chat, now: time.Now}
}

// Start creates a session seeded with the greeting.
func (c *Conversation) Start(ctx context.Context) (*models.ChatSession, error) {
	session, err := c.store.CreateSession(ctx, "")
	if err != nil {
		return nil, err
	}
	session.Messages = []models.Message{{
		ID:        "1",
		Content:   Greeting,
		Sender:    models.SenderAgent,
		Timestamp: c.now(),
	}}
	if err := c.store.UpdateSession(ctx, session.ID, session.Messages); err != nil {
		return nil, err
	}
	return session, nil
}

// Send appends the user's text, persists it, asks the relay with the turns
// that came before it, then persists the reply. A failed relay call is
// recorded as the apology message and logged, not returned.
func (c *Conversation) Send(ctx context.Context, sessionID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	session, ok := c.store.GetSession(ctx, sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	prior := session.Messages
	sentAt := c.now()
	userMsg := models.Message{
		ID:        strconv.FormatInt(sentAt.UnixMilli(), 10),
		Content:   text,
		Sender:    models.SenderUser,
		Timestamp: sentAt,
	}
	updated := append(append([]models.Message{}, prior...), userMsg)
	if err := c.store.UpdateSession(ctx, sessionID, updated); err != nil {
		return nil, err
	}

	content, err := c.chat.Chat(ctx, text, models.Turns(prior))
	if err != nil {
		logging.FromContext(ctx).WithError(err).Warn("chat request failed")
		content = Apology
	}
	repliedAt := c.now()
	agentMsg := models.Message{
		ID:        strconv.FormatInt(repliedAt.UnixMilli()+1, 10),
		Content:   content,
		Sender:    models.SenderAgent,
		Timestamp: repliedAt,
	}
	if err := c.store.UpdateSession(ctx, sessionID, append(updated, agentMsg)); err != nil {
		return nil, err
	}
	return &agentMsg, nil
}
