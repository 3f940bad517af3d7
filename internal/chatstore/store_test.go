package chatstore

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/S4DIB/startup-world-cup/internal/blob"
	"github.com/S4DIB/startup-world-cup/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	blobs, err := blob.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	store := NewStore(blobs)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	}
	return store
}

func TestCreateSessionDefaults(t *testing.T) {
	store := newTestStore(t)
	session, err := store.CreateSession(context.Background(), "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if session.Title != DefaultTitle {
		t.Fatalf("unexpected title %q", session.Title)
	}
	if len(session.Messages) != 0 || session.Messages == nil {
		t.Fatalf("expected empty non-nil messages")
	}
	if !regexp.MustCompile(`^session_\d+_[0-9a-f]{9}$`).MatchString(session.ID) {
		t.Fatalf("unexpected id %q", session.ID)
	}
}

func TestCreateSessionCapsCollection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	var last *models.ChatSession
	for i := 0; i < MaxSessions+1; i++ {
		s, err := store.CreateSession(ctx, "")
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		last = s
	}
	sessions := store.ListSessions(ctx)
	if len(sessions) != MaxSessions {
		t.Fatalf("expected %d sessions, got %d", MaxSessions, len(sessions))
	}
	if sessions[0].ID != last.ID {
		t.Fatalf("newest session should be first")
	}
}

func TestUpdateSessionRetitles(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	session, err := store.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	messages := []models.Message{
		{ID: "1", Content: "Hello! I'm your AI CTO.", Sender: models.SenderAgent},
		{ID: "2", Content: "one two three four five six seven eight nine ten", Sender: models.SenderUser},
	}
	if err := store.UpdateSession(ctx, session.ID, messages); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, ok := store.GetSession(ctx, session.ID)
	if !ok {
		t.Fatalf("session missing after update")
	}
	if got.Title != "one two three four five six..." {
		t.Fatalf("unexpected title %q", got.Title)
	}
	if len(got.Messages) != 2 || !got.UpdatedAt.After(session.UpdatedAt) {
		t.Fatalf("messages or updatedAt not refreshed: %+v", got)
	}

	if err := store.UpdateSession(ctx, "session_missing", messages); err != nil {
		t.Fatalf("unknown id should be a no-op: %v", err)
	}
}

func TestDeriveTitle(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"one two three four five six seven eight nine ten", "one two three four five six..."},
		{"build a marketplace", "build a marketplace"},
		{"a b c d e f", "a b c d e f..."},
		{"", ""},
	}
	for _, tc := range cases {
		if got := DeriveTitle(tc.in); got != tc.want {
			t.Fatalf("DeriveTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	session, err := store.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	msgs := []models.Message{{ID: "10", Content: "ship an MVP", Sender: models.SenderUser, Timestamp: time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC)}}
	if err := store.UpdateSession(ctx, session.ID, msgs); err != nil {
		t.Fatalf("update: %v", err)
	}
	text, ok := store.ExportSession(ctx, session.ID)
	if !ok {
		t.Fatalf("export failed")
	}

	other := newTestStore(t)
	imported, err := other.ImportSession(ctx, text)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if imported.ID != session.ID || imported.Title != "ship an MVP" {
		t.Fatalf("unexpected import %+v", imported)
	}
	got, ok := other.GetSession(ctx, session.ID)
	if !ok || len(got.Messages) != 1 || got.Messages[0].Content != "ship an MVP" || !got.Messages[0].Timestamp.Equal(msgs[0].Timestamp) {
		t.Fatalf("imported messages mismatch: %+v", got)
	}

	if _, err := other.ImportSession(ctx, "not json"); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, ok := store.ExportSession(ctx, "nope"); ok {
		t.Fatalf("export of unknown id should fail")
	}
}

func TestDeleteAndClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	a, _ := store.CreateSession(ctx, "a")
	b, _ := store.CreateSession(ctx, "b")

	if err := store.DeleteSession(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	sessions := store.ListSessions(ctx)
	if len(sessions) != 1 || sessions[0].ID != b.ID {
		t.Fatalf("unexpected sessions after delete: %+v", sessions)
	}
	if err := store.ClearSessions(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n := len(store.ListSessions(ctx)); n != 0 {
		t.Fatalf("expected no sessions after clear, got %d", n)
	}
}

// flakyBlobs wraps a real store and fails reads while readErr is set.
type flakyBlobs struct {
	blob.Store
	readErr error
	puts    int
}

func (f *flakyBlobs) Get(ctx context.Context, key string) ([]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.Store.Get(ctx, key)
}

func (f *flakyBlobs) Put(ctx context.Context, key string, data []byte) error {
	f.puts++
	return f.Store.Put(ctx, key, data)
}

func TestMutationsAbortWhenReadFails(t *testing.T) {
	inner, err := blob.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	blobs := &flakyBlobs{Store: inner}
	store := NewStore(blobs)
	ctx := context.Background()

	a, err := store.CreateSession(ctx, "a")
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	if _, err := store.CreateSession(ctx, "b"); err != nil {
		t.Fatalf("create b: %v", err)
	}
	puts := blobs.puts

	blobs.readErr = errors.New("connection reset by peer")
	if _, err := store.CreateSession(ctx, "c"); err == nil {
		t.Fatalf("expected CreateSession to fail")
	}
	if err := store.UpdateSession(ctx, a.ID, []models.Message{{ID: "1", Content: "hi", Sender: models.SenderUser}}); err == nil {
		t.Fatalf("expected UpdateSession to fail")
	}
	if err := store.DeleteSession(ctx, a.ID); err == nil {
		t.Fatalf("expected DeleteSession to fail")
	}
	if _, err := store.ImportSession(ctx, `{"id":"session_1_x","title":"t"}`); err == nil {
		t.Fatalf("expected ImportSession to fail")
	}
	if blobs.puts != puts {
		t.Fatalf("sessions were rewritten during a failed read")
	}
	if n := len(store.ListSessions(ctx)); n != 0 {
		t.Fatalf("listing during an outage should degrade to empty, got %d", n)
	}

	blobs.readErr = nil
	if n := len(store.ListSessions(ctx)); n != 2 {
		t.Fatalf("expected both sessions to survive, got %d", n)
	}
}
