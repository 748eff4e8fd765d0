package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/cloudnotes/internal/apperr"
	"github.com/starford/cloudnotes/internal/models"
	"github.com/starford/cloudnotes/internal/parser"
)

const (
	noteExt   = ".md"
	tmpPrefix = ".cloudnotes-tmp-"
)

// FS implements Repository as a vault directory holding one Markdown file
// per note, named <id>.md, with the title and modification time kept in
// YAML frontmatter.
type FS struct {
	root string // absolute path to vault directory
}

// NewFS creates a vault repository rooted at root, creating the directory
// if needed.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute vault directory.
func (f *FS) Root() string {
	return f.root
}

// Close is a no-op; the vault holds no open handles.
func (f *FS) Close() error {
	return nil
}

// notePath maps an id to its file and rejects ids that could escape the
// vault root (directory traversal).
func (f *FS) notePath(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("storage: invalid note id: %q", id)
	}
	abs := filepath.Join(f.root, id+noteExt)
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path escapes vault root: %s", id)
	}
	return abs, nil
}

// List reads every note file in the vault root, newest first. Files that
// are not note documents are skipped, and so are files that fail to read or
// decode, so one broken file never hides the rest of the vault.
func (f *FS) List() ([]models.Note, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	out := make([]models.Note, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isNoteFile(e.Name()) {
			continue
		}
		n, err := f.readFile(filepath.Join(f.root, e.Name()))
		if err != nil {
			if !errors.Is(err, parser.ErrNoFrontmatter) && !errors.Is(err, apperr.ErrNotFound) {
				slog.Warn("storage: skipping unreadable note",
					slog.String("file", e.Name()), slog.String("error", err.Error()))
			}
			continue
		}
		out = append(out, *n)
	}
	sortNotes(out)
	return out, nil
}

// Insert writes a new note file under a fresh UUID.
func (f *FS) Insert(info models.Information) (*models.Note, error) {
	n := models.Note{
		ID:           uuid.NewString(),
		Title:        info.Title,
		Content:      info.Content,
		LastModified: info.LastModified.UTC(),
	}
	if err := f.writeNote(n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Update overwrites an existing note file.
func (f *FS) Update(id string, info models.Information) (*models.Note, error) {
	abs, err := f.notePath(id)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("storage: stat %s: %w", id, err)
	}
	n := models.Note{
		ID:           id,
		Title:        info.Title,
		Content:      info.Content,
		LastModified: info.LastModified.UTC(),
	}
	if err := f.writeNote(n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Delete removes a note file.
func (f *FS) Delete(id string) error {
	abs, err := f.notePath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return fmt.Errorf("storage: delete %s: %w", id, err)
	}
	return nil
}

// Search scans every note for a case-insensitive substring match.
func (f *FS) Search(query string, limit int) ([]models.Note, error) {
	notes, err := f.List()
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	limit = defaultLimit(limit)
	var out []models.Note
	for _, n := range notes {
		if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Content), q) {
			out = append(out, n)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *FS) readFile(abs string) (*models.Note, error) {
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("storage: read %s: %w", filepath.Base(abs), err)
	}
	meta, body, err := parser.DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", filepath.Base(abs), err)
	}
	// The file name is the id Update and Delete resolve; a stale or copied
	// frontmatter id is ignored and rewritten on the next save.
	return &models.Note{
		ID:           idFromPath(abs),
		Title:        meta.Title,
		Content:      body,
		LastModified: meta.LastModified,
	}, nil
}

func (f *FS) writeNote(n models.Note) error {
	abs, err := f.notePath(n.ID)
	if err != nil {
		return err
	}
	data, err := parser.EncodeDocument(parser.Frontmatter{
		ID:           n.ID,
		Title:        n.Title,
		LastModified: n.LastModified,
	}, n.Content)
	if err != nil {
		return err
	}
	return f.atomicWrite(abs, data)
}

// atomicWrite writes content via tmp file → fsync → rename.
func (f *FS) atomicWrite(abs string, content []byte) error {
	tmp, err := os.CreateTemp(f.root, tmpPrefix+"*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

func isNoteFile(name string) bool {
	return strings.HasSuffix(name, noteExt) && !strings.HasPrefix(name, ".")
}

// idFromPath returns the note id encoded in a vault file name.
func idFromPath(p string) string {
	return strings.TrimSuffix(filepath.Base(p), noteExt)
}
