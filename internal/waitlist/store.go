package waitlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/S4DIB/startup-world-cup/internal/blob"
	"github.com/S4DIB/startup-world-cup/internal/logging"
	"github.com/S4DIB/startup-world-cup/internal/models"
)

// Key is the blob name holding the waitlist.
const Key = "waitlist.json"

// DefaultSource tags signups that arrive without one.
const DefaultSource = "website"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether email looks like local@domain.tld.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Store is the append-only waitlist, rewritten wholesale on every signup.
type Store struct {
	blobs blob.Store
	now   func() time.Time
	mu    sync.Mutex
}

func NewStore(blobs blob.Store) *Store {
	return &Store{blobs: blobs, now: time.Now}
}

// AddEmail appends a signup. It returns false without touching storage when
// the lowercased email is already present.
func (s *Store) AddEmail(ctx context.Context, email, source string) (bool, error) {
	email = strings.ToLower(email)
	if source == "" {
		source = DefaultSource
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read(ctx)
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		if strings.ToLower(entry.Email) == email {
			return false, nil
		}
	}
	entries = append(entries, models.WaitlistEntry{
		Email:     email,
		Timestamp: models.FormatTimestamp(s.now()),
		Source:    source,
	})

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return false, fmt.Errorf("encode waitlist: %w", err)
	}
	if err := s.blobs.Put(ctx, Key, data); err != nil {
		return false, fmt.Errorf("save waitlist: %w", err)
	}
	return true, nil
}

// AllEmails returns every entry in storage order.
func (s *Store) AllEmails(ctx context.Context) []models.WaitlistEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) EmailCount(ctx context.Context) int {
	return len(s.AllEmails(ctx))
}

// ExportCSV renders the waitlist with every field quoted and no trailing newline.
func (s *Store) ExportCSV(ctx context.Context) string {
	entries := s.AllEmails(ctx)
	rows := make([]string, 0, len(entries)+1)
	rows = append(rows, csvRow("Email", "Timestamp", "Source"))
	for _, entry := range entries {
		rows = append(rows, csvRow(entry.Email, entry.Timestamp, entry.Source))
	}
	return strings.Join(rows, "\n")
}

func csvRow(fields ...string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}

// load treats a missing or unreadable waitlist as empty.
func (s *Store) load(ctx context.Context) []models.WaitlistEntry {
	entries, err := s.read(ctx)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Warn("read waitlist")
		return []models.WaitlistEntry{}
	}
	return entries
}

// read returns an empty waitlist for a missing or corrupt blob. Backend
// errors are returned so callers never write over entries they could not see.
func (s *Store) read(ctx context.Context) ([]models.WaitlistEntry, error) {
	data, err := s.blobs.Get(ctx, Key)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return []models.WaitlistEntry{}, nil
		}
		return nil, fmt.Errorf("load waitlist: %w", err)
	}
	var entries []models.WaitlistEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("decode waitlist")
		return []models.WaitlistEntry{}, nil
	}
	if entries == nil {
		entries = []models.WaitlistEntry{}
	}
	return entries, nil
}
