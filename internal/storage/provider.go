// Package storage persists notes and always returns them newest first.
package storage

import (
	"fmt"
	"sort"

	"github.com/starford/cloudnotes/internal/models"
)

// Drivers.
const (
	DriverSQLite = "sqlite"
	DriverVault  = "vault"
)

// Repository is the note store used by the list synchronizer.
type Repository interface {
	// List returns every note sorted by LastModified descending.
	List() ([]models.Note, error)
	// Insert stores a new note and assigns its id.
	Insert(info models.Information) (*models.Note, error)
	// Update overwrites the title, content and modification time of a note.
	Update(id string, info models.Information) (*models.Note, error)
	// Delete removes the note with the given id.
	Delete(id string) error
	// Search returns notes whose title or content contains query, newest first.
	Search(query string, limit int) ([]models.Note, error)
	Close() error
}

var (
	_ Repository = (*SQLite)(nil)
	_ Repository = (*FS)(nil)
)

// Options selects and configures a Repository backend.
type Options struct {
	Driver     string
	SQLitePath string
	VaultPath  string
}

// Open returns the Repository selected by opts.Driver.
func Open(opts Options) (Repository, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		return OpenSQLite(opts.SQLitePath)
	case DriverVault:
		return NewFS(opts.VaultPath)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", opts.Driver)
	}
}

// sortNotes orders notes newest first; ties fall back to id so row indexes
// are stable between fetches.
func sortNotes(notes []models.Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		a, b := notes[i], notes[j]
		if !a.LastModified.Equal(b.LastModified) {
			return a.LastModified.After(b.LastModified)
		}
		return a.ID > b.ID
	})
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	return limit
}
