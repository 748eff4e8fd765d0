// Package testutil provides shared test helpers for setting up note stores.
package testutil

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/starford/cloudnotes/internal/models"
	"github.com/starford/cloudnotes/internal/notelist"
	"github.com/starford/cloudnotes/internal/storage"
)

// TestDB creates a temporary SQLite store that is automatically cleaned up.
func TestDB(t *testing.T) *storage.SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "cloudnotes-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := storage.OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a file-backed store.
func TestVault(t *testing.T) (string, *storage.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// Clock is a manual time source that advances one second per call.
type Clock struct {
	mu  sync.Mutex
	cur time.Time
}

// NewClock starts a Clock at a fixed instant.
func NewClock() *Clock {
	return &Clock{cur: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the next tick.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

// Recorder collects list events.
type Recorder struct {
	mu     sync.Mutex
	events []models.ListEvent
}

// Notify implements notelist.Notifier.
func (r *Recorder) Notify(ev models.ListEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Kinds returns the kinds recorded so far and clears the recorder.
func (r *Recorder) Kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	r.events = nil
	return out
}

// Seed inserts notes with the given titles, oldest first, so the last title
// ends up at row 0.
func Seed(t *testing.T, repo storage.Repository, clock *Clock, titles ...string) {
	t.Helper()
	for _, title := range titles {
		info := models.Information{Title: title, LastModified: clock.Now()}
		if title != "" {
			info.Content = "\nbody of " + title
		}
		if _, err := repo.Insert(info); err != nil {
			t.Fatal(err)
		}
	}
}

// LoadSynchronizer seeds repo with titles and returns a loaded Synchronizer
// over it. Events raised by the initial load are discarded.
func LoadSynchronizer(t *testing.T, repo storage.Repository, titles ...string) (*notelist.Synchronizer, *Recorder) {
	t.Helper()
	clock := NewClock()
	Seed(t, repo, clock, titles...)

	rec := &Recorder{}
	s := notelist.New(repo, notelist.WithClock(clock.Now), notelist.WithNotifier(rec))
	if err := s.Load(t.Context()); err != nil {
		t.Fatal(err)
	}
	rec.Kinds()
	return s, rec
}

// TestSynchronizer returns a loaded Synchronizer over a temporary SQLite
// store seeded with titles.
func TestSynchronizer(t *testing.T, titles ...string) (*notelist.Synchronizer, *storage.SQLite, *Recorder) {
	t.Helper()
	db := TestDB(t)
	s, rec := LoadSynchronizer(t, db, titles...)
	return s, db, rec
}
