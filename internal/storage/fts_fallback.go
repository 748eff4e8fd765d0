//go:build !sqlite_fts5

package storage

import (
	"database/sql"
	"fmt"

	"github.com/starford/cloudnotes/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE on the notes table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _, _ string) error { return nil }

func ftsDelete(_ *sql.Tx, _ string) {}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (s *SQLite) Search(query string, limit int) ([]models.Note, error) {
	like := likePattern(query)
	rows, err := s.conn.Query(`
		SELECT id, title, content, last_modified
		FROM notes
		WHERE title LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\'
		ORDER BY last_modified DESC, id DESC
		LIMIT ?
	`, like, like, defaultLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("storage: search: %w", err)
	}
	defer rows.Close()
	return scanNotes(rows)
}
