package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/cloudnotes/internal/apperr"
	"github.com/starford/cloudnotes/internal/models"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL DEFAULT '',
	content       TEXT NOT NULL DEFAULT '',
	last_modified INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_last_modified ON notes(last_modified DESC);
`

// SQLite implements Repository on an embedded SQLite database.
// Timestamps are stored as Unix microseconds so ordering happens in SQL.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database at dsn and applies the schema.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("storage: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: apply fts schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// List returns all notes, newest first.
func (s *SQLite) List() ([]models.Note, error) {
	rows, err := s.conn.Query(`
		SELECT id, title, content, last_modified
		FROM notes
		ORDER BY last_modified DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	defer rows.Close()
	return scanNotes(rows)
}

// Insert stores a new note under a fresh UUID.
func (s *SQLite) Insert(info models.Information) (*models.Note, error) {
	n := models.Note{
		ID:           uuid.NewString(),
		Title:        info.Title,
		Content:      info.Content,
		LastModified: time.UnixMicro(info.LastModified.UnixMicro()),
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("storage: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`INSERT INTO notes (id, title, content, last_modified) VALUES (?, ?, ?, ?)`,
		n.ID, n.Title, n.Content, n.LastModified.UnixMicro())
	if err != nil {
		return nil, fmt.Errorf("storage: insert: %w", err)
	}
	if err := ftsUpsert(tx, n.ID, n.Title, n.Content); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("storage: commit: %w", err)
	}
	return &n, nil
}

// Update overwrites title, content and modification time.
func (s *SQLite) Update(id string, info models.Information) (*models.Note, error) {
	n := models.Note{
		ID:           id,
		Title:        info.Title,
		Content:      info.Content,
		LastModified: time.UnixMicro(info.LastModified.UnixMicro()),
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("storage: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.Exec(`UPDATE notes SET title = ?, content = ?, last_modified = ? WHERE id = ?`,
		n.Title, n.Content, n.LastModified.UnixMicro(), id)
	if err != nil {
		return nil, fmt.Errorf("storage: update %s: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, apperr.ErrNotFound
	}
	if err := ftsUpsert(tx, n.ID, n.Title, n.Content); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("storage: commit: %w", err)
	}
	return &n, nil
}

// Delete removes a note and its search entry.
func (s *SQLite) Delete(id string) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("storage: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.Exec(`DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("storage: delete %s: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperr.ErrNotFound
	}
	ftsDelete(tx, id)
	return tx.Commit()
}

func scanNotes(rows *sql.Rows) ([]models.Note, error) {
	var out []models.Note
	for rows.Next() {
		var (
			n     models.Note
			micro int64
		)
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &micro); err != nil {
			return nil, fmt.Errorf("storage: scan: %w", err)
		}
		n.LastModified = time.UnixMicro(micro)
		out = append(out, n)
	}
	return out, rows.Err()
}
