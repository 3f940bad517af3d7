package chatstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/S4DIB/startup-world-cup/internal/blob"
	"github.com/S4DIB/startup-world-cup/internal/logging"
	"github.com/S4DIB/startup-world-cup/internal/models"
)

const (
	// Key is the blob name holding every session.
	Key = "ai_cto_chat_sessions"
	// MaxSessions caps the stored collection; older sessions fall off the end.
	MaxSessions  = 50
	DefaultTitle = "New Chat"

	titleWords = 6
)

// Store keeps the user's chat sessions, newest first.
type Store struct {
	blobs blob.Store
	now   func() time.Time
	mu    sync.Mutex
}

func NewStore(blobs blob.Store) *Store {
	return &Store{blobs: blobs, now: time.Now}
}

// ListSessions returns sessions newest-created first. Read failures yield an empty list.
func (s *Store) ListSessions(ctx context.Context) []models.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) GetSession(ctx context.Context, id string) (*models.ChatSession, bool) {
	for _, session := range s.ListSessions(ctx) {
		if session.ID == id {
			session := session
			return &session, true
		}
	}
	return nil, false
}

// CreateSession prepends an empty session and trims the collection to MaxSessions.
func (s *Store) CreateSession(ctx context.Context, title string) (*models.ChatSession, error) {
	if title == "" {
		title = DefaultTitle
	}
	now := s.now()
	session := models.ChatSession{
		ID:        newSessionID(now),
		Title:     title,
		Messages:  []models.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	sessions := append([]models.ChatSession{session}, existing...)
	if len(sessions) > MaxSessions {
		sessions = sessions[:MaxSessions]
	}
	if err := s.save(ctx, sessions); err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateSession replaces the messages of id and retitles it from the first
// user message. An unknown id is ignored.
func (s *Store) UpdateSession(ctx context.Context, id string, messages []models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.read(ctx)
	if err != nil {
		return err
	}
	for i := range sessions {
		if sessions[i].ID != id {
			continue
		}
		if messages == nil {
			messages = []models.Message{}
		}
		sessions[i].Messages = messages
		sessions[i].UpdatedAt = s.now()
		if first, ok := sessions[i].FirstUserMessage(); ok {
			sessions[i].Title = DeriveTitle(first.Content)
		}
		return s.save(ctx, sessions)
	}
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.read(ctx)
	if err != nil {
		return err
	}
	kept := sessions[:0]
	for _, session := range sessions {
		if session.ID != id {
			kept = append(kept, session)
		}
	}
	if len(kept) == len(sessions) {
		return nil
	}
	return s.save(ctx, kept)
}

// ClearSessions drops every stored session.
func (s *Store) ClearSessions(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.blobs.Delete(ctx, Key); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	return nil
}

// ExportSession renders one session as indented JSON.
func (s *Store) ExportSession(ctx context.Context, id string) (string, bool) {
	session, ok := s.GetSession(ctx, id)
	if !ok {
		return "", false
	}
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		logging.FromContext(ctx).WithError(err).Warn("encode session export")
		return "", false
	}
	return string(data), true
}

// ImportSession decodes text as a session and prepends it as-is.
func (s *Store) ImportSession(ctx context.Context, text string) (*models.ChatSession, error) {
	var session models.ChatSession
	if err := json.Unmarshal([]byte(text), &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if session.Messages == nil {
		session.Messages = []models.Message{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	sessions := append([]models.ChatSession{session}, existing...)
	if err := s.save(ctx, sessions); err != nil {
		return nil, err
	}
	return &session, nil
}

// DeriveTitle keeps the first six space-separated words of content.
func DeriveTitle(content string) string {
	words := strings.Split(content, " ")
	if len(words) > titleWords {
		words = words[:titleWords]
	}
	title := strings.Join(words, " ")
	if len(words) >= titleWords {
		title += "..."
	}
	return title
}

func newSessionID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("session_%d_%s", now.UnixMilli(), suffix)
}

// load treats a missing or unreadable collection as empty.
func (s *Store) load(ctx context.Context) []models.ChatSession {
	sessions, err := s.read(ctx)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Warn("read chat sessions")
		return []models.ChatSession{}
	}
	return sessions
}

// read returns an empty collection for a missing or corrupt blob. Backend
// errors are returned so mutations never overwrite sessions they could not see.
func (s *Store) read(ctx context.Context) ([]models.ChatSession, error) {
	data, err := s.blobs.Get(ctx, Key)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return []models.ChatSession{}, nil
		}
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	var sessions []models.ChatSession
	if err := json.Unmarshal(data, &sessions); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("decode chat sessions")
		return []models.ChatSession{}, nil
	}
	if sessions == nil {
		sessions = []models.ChatSession{}
	}
	return sessions, nil
}

func (s *Store) save(ctx context.Context, sessions []models.ChatSession) error {
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}
	if err := s.blobs.Put(ctx, Key, data); err != nil {
		return fmt.Errorf("save sessions: %w", err)
	}
	return nil
}
