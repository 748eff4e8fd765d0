package storage

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starford/cloudnotes/internal/apperr"
	"github.com/starford/cloudnotes/internal/models"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(sec int) time.Time {
	return base.Add(time.Duration(sec) * time.Second)
}

func testSQLite(t *testing.T) Repository {
	t.Helper()
	f, err := os.CreateTemp("", "cloudnotes-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := OpenSQLite(f.Name())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testFS(t *testing.T) Repository {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

// backends runs fn against every Repository implementation.
func backends(t *testing.T, fn func(t *testing.T, repo Repository)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, testSQLite(t)) })
	t.Run("vault", func(t *testing.T) { fn(t, testFS(t)) })
}

// find returns the listed note with id, or nil.
func find(t *testing.T, repo Repository, id string) *models.Note {
	t.Helper()
	notes, err := repo.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, n := range notes {
		if n.ID == id {
			return &n
		}
	}
	return nil
}

func titles(notes []models.Note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.Title
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRepository_InsertAssignsID(t *testing.T) {
	backends(t, func(t *testing.T, repo Repository) {
		n, err := repo.Insert(models.Information{Title: "Hello", Content: "\nworld", LastModified: at(1)})
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if n.ID == "" {
			t.Fatal("expected an id")
		}
		got := find(t, repo, n.ID)
		if got == nil {
			t.Fatalf("note %s not listed", n.ID)
		}
		if got.Title != "Hello" || got.Content != "\nworld" || !got.LastModified.Equal(at(1)) {
			t.Errorf("got %+v", got)
		}
	})
}

func TestRepository_ListSortedByLastModifiedDesc(t *testing.T) {
	backends(t, func(t *testing.T, repo Repository) {
		_, _ = repo.Insert(models.Information{Title: "middle", LastModified: at(5)})
		_, _ = repo.Insert(models.Information{Title: "newest", LastModified: at(9)})
		_, _ = repo.Insert(models.Information{Title: "oldest", LastModified: at(1)})

		notes, err := repo.List()
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		want := []string{"newest", "middle", "oldest"}
		if got := titles(notes); !equalStrings(got, want) {
			t.Errorf("order = %v, want %v", got, want)
		}
	})
}

func TestRepository_UpdateResorts(t *testing.T) {
	backends(t, func(t *testing.T, repo Repository) {
		a, _ := repo.Insert(models.Information{Title: "A", LastModified: at(1)})
		_, _ = repo.Insert(models.Information{Title: "B", LastModified: at(2)})

		if _, err := repo.Update(a.ID, models.Information{Title: "A2", Content: "\nx", LastModified: at(3)}); err != nil {
			t.Fatalf("Update: %v", err)
		}
		notes, _ := repo.List()
		if got := titles(notes); !equalStrings(got, []string{"A2", "B"}) {
			t.Errorf("order = %v", got)
		}
		if notes[0].ID != a.ID {
			t.Errorf("id changed on update: %s != %s", notes[0].ID, a.ID)
		}
	})
}

func TestRepository_UpdateMissing(t *testing.T) {
	backends(t, func(t *testing.T, repo Repository) {
		_, err := repo.Update("ghost", models.Information{Title: "x", LastModified: at(1)})
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestRepository_Delete(t *testing.T) {
	backends(t, func(t *testing.T, repo Repository) {
		n, _ := repo.Insert(models.Information{Title: "bye", LastModified: at(1)})
		if err := repo.Delete(n.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if err := repo.Delete(n.ID); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("second Delete err = %v", err)
		}
		notes, _ := repo.List()
		if len(notes) != 0 {
			t.Errorf("len = %d, want 0", len(notes))
		}
	})
}

func TestRepository_Search(t *testing.T) {
	backends(t, func(t *testing.T, repo Repository) {
		_, _ = repo.Insert(models.Information{Title: "Shopping", Content: "\nuniqueword here", LastModified: at(1)})
		_, _ = repo.Insert(models.Information{Title: "Other", Content: "\nnothing", LastModified: at(2)})

		results, err := repo.Search("uniqueword", 10)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(results) != 1 || results[0].Title != "Shopping" {
			t.Errorf("results = %+v, want 1 hit for Shopping", results)
		}
	})
}

func TestRepository_EmptyDraftRoundTrip(t *testing.T) {
	backends(t, func(t *testing.T, repo Repository) {
		n, err := repo.Insert(models.Information{LastModified: at(1)})
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		got := find(t, repo, n.ID)
		if got == nil {
			t.Fatalf("draft %s not listed", n.ID)
		}
		if !got.IsDraft() || got.Content != "" {
			t.Errorf("got %+v, want empty draft", got)
		}
	})
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(Options{Driver: "mongo"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestOpen_Vault(t *testing.T) {
	repo, err := Open(Options{Driver: DriverVault, VaultPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer repo.Close()
	if _, ok := repo.(*FS); !ok {
		t.Errorf("repo = %T, want *FS", repo)
	}
}
