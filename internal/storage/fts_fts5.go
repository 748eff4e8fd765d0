//go:build sqlite_fts5

package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/cloudnotes/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
			id UNINDEXED,
			title,
			content,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, id, title, content string) error {
	_, _ = tx.Exec(`DELETE FROM notes_fts WHERE id = ?`, id)
	_, err := tx.Exec(`INSERT INTO notes_fts (id, title, content) VALUES (?, ?, ?)`, id, title, content)
	if err != nil {
		return fmt.Errorf("storage: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, id string) {
	_, _ = tx.Exec(`DELETE FROM notes_fts WHERE id = ?`, id)
}

// Search performs an FTS5 prefix-phrase search; hits are returned newest
// first to match the list ordering.
func (s *SQLite) Search(query string, limit int) ([]models.Note, error) {
	if strings.TrimSpace(query) == "" {
		return []models.Note{}, nil
	}
	rows, err := s.conn.Query(`
		SELECT n.id, n.title, n.content, n.last_modified
		FROM notes_fts f
		JOIN notes n ON n.id = f.id
		WHERE notes_fts MATCH ?
		ORDER BY n.last_modified DESC, n.id DESC
		LIMIT ?
	`, ftsPhrase(query), defaultLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("storage: search: %w", err)
	}
	defer rows.Close()
	return scanNotes(rows)
}
