package waitlist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/S4DIB/startup-world-cup/internal/blob"
	"github.com/S4DIB/startup-world-cup/internal/models"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	blobs, err := blob.NewFileStore(dir)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	store := NewStore(blobs)
	store.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 890_000_000, time.UTC) }
	return store, dir
}

func TestAddEmailRejectsCaseInsensitiveDuplicate(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	added, err := store.AddEmail(ctx, "A@B.com", "")
	if err != nil || !added {
		t.Fatalf("first add: added=%v err=%v", added, err)
	}
	added, err = store.AddEmail(ctx, "a@b.COM", "website")
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if added {
		t.Fatalf("expected duplicate to be rejected")
	}

	entries := store.AllEmails(ctx)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	want := models.WaitlistEntry{Email: "a@b.com", Timestamp: "2026-03-04T05:06:07.890Z", Source: "website"}
	if entries[0] != want {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
}

func TestAllEmailsPreservesOrderAndCount(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	for _, email := range []string{"c@x.io", "a@x.io", "b@x.io"} {
		if _, err := store.AddEmail(ctx, email, "landing"); err != nil {
			t.Fatalf("add %s: %v", email, err)
		}
	}
	entries := store.AllEmails(ctx)
	if got := []string{entries[0].Email, entries[1].Email, entries[2].Email}; got[0] != "c@x.io" || got[1] != "a@x.io" || got[2] != "b@x.io" {
		t.Fatalf("order not preserved: %v", got)
	}
	if store.EmailCount(ctx) != 3 {
		t.Fatalf("expected count 3")
	}
}

func TestExportCSV(t *testing.T) {
	store, dir := newTestStore(t)
	body := `[{"email":"a@b.com","timestamp":"T1","source":"website"}]`
	if err := os.WriteFile(filepath.Join(dir, Key), []byte(body), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	got := store.ExportCSV(context.Background())
	want := "\"Email\",\"Timestamp\",\"Source\"\n\"a@b.com\",\"T1\",\"website\""
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestExportCSVEscapesQuotes(t *testing.T) {
	store, dir := newTestStore(t)
	body := `[{"email":"a@b.com","timestamp":"T1","source":"ad \"spring\""}]`
	if err := os.WriteFile(filepath.Join(dir, Key), []byte(body), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	want := "\"Email\",\"Timestamp\",\"Source\"\n\"a@b.com\",\"T1\",\"ad \"\"spring\"\"\""
	if got := store.ExportCSV(context.Background()); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestCorruptFileReadsAsEmpty(t *testing.T) {
	store, dir := newTestStore(t)
	if err := os.WriteFile(filepath.Join(dir, Key), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n := store.EmailCount(context.Background()); n != 0 {
		t.Fatalf("expected empty waitlist, got %d", n)
	}
	if got := store.ExportCSV(context.Background()); got != `"Email","Timestamp","Source"` {
		t.Fatalf("unexpected csv %q", got)
	}
}

type failingBlobs struct{ blob.Store }

func (failingBlobs) Get(context.Context, string) ([]byte, error) { return nil, blob.ErrNotFound }
func (failingBlobs) Put(context.Context, string, []byte) error  { return errors.New("disk full") }

func TestAddEmailReportsWriteFailure(t *testing.T) {
	store := NewStore(failingBlobs{})
	added, err := store.AddEmail(context.Background(), "a@b.com", "")
	if err == nil || added {
		t.Fatalf("expected write error, got added=%v err=%v", added, err)
	}
}

func TestValidEmail(t *testing.T) {
	cases := map[string]bool{
		"a@b.com":         true,
		"first.last@x.io": true,
		"a@b":             false,
		"a b@c.com":       false,
		"@b.com":          false,
		"":                false,
		"a@@b.com":        false,
	}
	for in, want := range cases {
		if got := ValidEmail(in); got != want {
			t.Fatalf("ValidEmail(%q) = %v, want %v", in, got, want)
		}
	}
}

// flakyBlobs serves reads from data until readErr is set; writes always land.
type flakyBlobs struct {
	data    []byte
	readErr error
	puts    int
}

func (f *flakyBlobs) Get(context.Context, string) ([]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.data, nil
}

func (f *flakyBlobs) Put(_ context.Context, _ string, data []byte) error {
	f.puts++
	f.data = data
	return nil
}

func (f *flakyBlobs) Delete(context.Context, string) error { return nil }

func TestAddEmailKeepsEntriesWhenReadFails(t *testing.T) {
	blobs := &flakyBlobs{data: []byte(`[{"email":"a@x.com","timestamp":"T1","source":"website"},{"email":"b@x.com","timestamp":"T2","source":"website"},{"email":"c@x.com","timestamp":"T3","source":"website"}]`)}
	store := NewStore(blobs)
	ctx := context.Background()

	blobs.readErr = errors.New("dial tcp: i/o timeout")
	added, err := store.AddEmail(ctx, "d@x.com", "")
	if err == nil || added {
		t.Fatalf("expected read error to abort the signup, got added=%v err=%v", added, err)
	}
	if blobs.puts != 0 {
		t.Fatalf("waitlist was rewritten %d times during a failed read", blobs.puts)
	}
	if n := store.EmailCount(ctx); n != 0 {
		t.Fatalf("listing during an outage should degrade to empty, got %d", n)
	}

	blobs.readErr = nil
	if n := store.EmailCount(ctx); n != 3 {
		t.Fatalf("expected the 3 original entries to survive, got %d", n)
	}
	if added, err := store.AddEmail(ctx, "d@x.com", ""); err != nil || !added {
		t.Fatalf("signup after recovery: added=%v err=%v", added, err)
	}
	if n := store.EmailCount(ctx); n != 4 {
		t.Fatalf("expected 4 entries, got %d", n)
	}
}
