// Package notelist keeps the ordered note list, its selection and the
// create affordance consistent with the note store.
//
// The list holds at most one draft (a note with an empty title) and that
// draft is always row 0. While it exists the create affordance is disabled.
package notelist

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/cloudnotes/internal/apperr"
	"github.com/starford/cloudnotes/internal/metrics"
	"github.com/starford/cloudnotes/internal/models"
	"github.com/starford/cloudnotes/internal/parser"
	"github.com/starford/cloudnotes/internal/storage"
)

// NoSelection is the selected row of an empty list.
const NoSelection = -1

// State is the draft state of the list.
type State string

const (
	StateNoDraft  State = "no_draft"
	StateHasDraft State = "has_draft"
)

// Notifier receives presentation events once an operation has finished.
type Notifier interface {
	Notify(models.ListEvent)
}

// View is a snapshot of the list for the presentation layer.
type View struct {
	Notes     []models.Note `json:"notes"`
	Selected  int           `json:"selected"`
	CanCreate bool          `json:"can_create"`
	Empty     bool          `json:"empty"`
	State     State         `json:"state"`
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithNotifier sets the receiver of list events.
func WithNotifier(n Notifier) Option {
	return func(s *Synchronizer) {
		s.notifier = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) {
		s.logger = l
	}
}

// WithClock overrides the time source used to stamp edits and new notes.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) {
		s.now = now
	}
}

// Synchronizer applies list operations to the store one at a time.
type Synchronizer struct {
	mu        sync.Mutex
	repo      storage.Repository
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time
	canCreate bool
	selected  int
}

// New creates a Synchronizer over repo. Call Load before serving requests.
func New(repo storage.Repository, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		repo:      repo,
		logger:    slog.Default(),
		now:       time.Now,
		canCreate: true,
		selected:  NoSelection,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// batch collects the events of one operation.
type batch struct {
	events []models.ListEvent
}

func (b *batch) add(kind string, row int, id string) {
	b.events = append(b.events, models.ListEvent{Kind: kind, Row: row, ID: id})
}

// do runs fn under the lock and delivers its events after the lock is
// released, so observers never see a half-applied operation.
func (s *Synchronizer) do(ctx context.Context, fn func(b *batch) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b := &batch{}
	s.mu.Lock()
	err := fn(b)
	s.mu.Unlock()

	if s.notifier != nil {
		for _, ev := range b.events {
			s.notifier.Notify(ev)
		}
	}
	return err
}

// fetch lists the store. A failure is logged and yields an empty list with
// ok false; callers must not read draft state from that list.
func (s *Synchronizer) fetch() ([]models.Note, bool) {
	notes, err := s.repo.List()
	if err != nil {
		s.logger.Warn("notelist: fetch failed", slog.String("error", err.Error()))
		metrics.FetchFailures.Inc()
		return []models.Note{}, false
	}
	if notes == nil {
		notes = []models.Note{}
	}
	return notes, true
}

// rows lists the store for operations that only need row lookups.
func (s *Synchronizer) rows() []models.Note {
	notes, _ := s.fetch()
	return notes
}

func (s *Synchronizer) setAffordance(b *batch, enabled bool) {
	if s.canCreate == enabled {
		return
	}
	s.canCreate = enabled
	if enabled {
		b.add(models.EventAffordanceEnabled, 0, "")
	} else {
		b.add(models.EventAffordanceDisabled, 0, "")
	}
}

func (s *Synchronizer) selectRow(b *batch, row int, id string) {
	s.selected = row
	b.add(models.EventRowSelected, row, id)
}

// showList derives the affordance and selection from a fresh fetch. A failed
// fetch leaves both untouched.
func (s *Synchronizer) showList(b *batch, keepSelection bool) {
	notes, ok := s.fetch()
	if !ok {
		return
	}
	if len(notes) == 0 {
		s.selected = NoSelection
		s.setAffordance(b, true)
		b.add(models.EventListEmpty, NoSelection, "")
		return
	}
	s.setAffordance(b, !notes[0].IsDraft())
	b.add(models.EventListNotEmpty, 0, "")

	row := 0
	if keepSelection && s.selected >= 0 {
		row = min(s.selected, len(notes)-1)
	}
	s.selectRow(b, row, notes[row].ID)
}

// Load reads the store and selects the first row. A draft at row 0
// disables the create affordance.
func (s *Synchronizer) Load(ctx context.Context) error {
	return s.do(ctx, func(b *batch) error {
		s.showList(b, false)
		return nil
	})
}

// Reload re-derives affordance and selection after the store changed
// underneath the list, keeping the selected row when it still exists.
func (s *Synchronizer) Reload(ctx context.Context) error {
	return s.do(ctx, func(b *batch) error {
		s.showList(b, true)
		b.add(models.EventListReloaded, s.selected, "")
		return nil
	})
}

// Notes returns the notes in row order.
func (s *Synchronizer) Notes(ctx context.Context) []models.Note {
	var notes []models.Note
	_ = s.do(ctx, func(_ *batch) error {
		notes = s.rows()
		return nil
	})
	if notes == nil {
		notes = []models.Note{}
	}
	return notes
}

// View returns the notes together with the selection and affordance.
func (s *Synchronizer) View(ctx context.Context) View {
	var v View
	_ = s.do(ctx, func(_ *batch) error {
		v = View{
			Notes:     s.rows(),
			Selected:  s.selected,
			CanCreate: s.canCreate,
			State:     s.state(),
		}
		return nil
	})
	if v.Notes == nil {
		v.Notes = []models.Note{}
		v.Selected = NoSelection
		v.CanCreate = true
		v.State = StateNoDraft
	}
	v.Empty = len(v.Notes) == 0
	return v
}

// CanCreate reports whether the create affordance is enabled.
func (s *Synchronizer) CanCreate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canCreate
}

// Selected returns the selected row, or NoSelection.
func (s *Synchronizer) Selected() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// State returns the draft state of the list.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

func (s *Synchronizer) state() State {
	if s.canCreate {
		return StateNoDraft
	}
	return StateHasDraft
}

// Edit replaces the note at index with the title and content split from
// raw. The store re-sorts the edited note to row 0. Editing any other row
// prunes a draft left behind at row 1; editing row 0 toggles the affordance
// on whether that note is still a draft.
func (s *Synchronizer) Edit(ctx context.Context, index int, raw string) (*models.Note, error) {
	var updated *models.Note
	err := s.do(ctx, func(b *batch) error {
		before := s.rows()
		if index < 0 || index >= len(before) {
			return apperr.ErrRowOutOfRange
		}

		info := parser.Split(raw, s.now())
		n, err := s.repo.Update(before[index].ID, info)
		if err != nil {
			return fmt.Errorf("notelist: update row %d: %w", index, err)
		}
		updated = n
		metrics.NoteOperations.WithLabelValues("edit").Inc()

		if index != 0 {
			b.events = append(b.events, models.ListEvent{Kind: models.EventRowMoved, Row: 0, From: index, ID: n.ID})
		}
		b.add(models.EventNoteUpdated, 0, n.ID)

		after, ok := s.fetch()
		if !ok {
			// Without a fresh listing the superseded draft is the old row 0,
			// and after pruning it the edited note is the only possible draft.
			if index != 0 && before[0].IsDraft() {
				if err := s.pruneDraft(b, before[0]); err != nil {
					return err
				}
			}
			s.setAffordance(b, !n.IsDraft())
			s.selectRow(b, 0, n.ID)
			return nil
		}

		if index != 0 && len(after) > 1 && after[1].IsDraft() && after[1].ID != n.ID {
			if err := s.pruneDraft(b, after[1]); err != nil {
				return err
			}
			after = append(after[:1], after[2:]...)
		}
		s.setAffordance(b, len(after) > 0 && !after[0].IsDraft())

		if s.selected != 0 || index != 0 {
			s.selectRow(b, 0, n.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// pruneDraft deletes a draft superseded by an edit; it sat at row 1 once the
// edited note moved to the top.
func (s *Synchronizer) pruneDraft(b *batch, draft models.Note) error {
	if err := s.repo.Delete(draft.ID); err != nil {
		return fmt.Errorf("notelist: prune draft: %w", err)
	}
	metrics.DraftsPruned.Inc()
	s.logger.Debug("notelist: pruned superseded draft", slog.String("id", draft.ID))
	b.add(models.EventNoteDeleted, 1, draft.ID)
	return nil
}

// Create inserts an empty draft at row 0 and selects it. It is refused
// while a draft exists.
func (s *Synchronizer) Create(ctx context.Context) (*models.Note, error) {
	var created *models.Note
	err := s.do(ctx, func(b *batch) error {
		if !s.canCreate {
			return apperr.ErrDraftExists
		}
		notes, ok := s.fetch()
		if !ok {
			return apperr.ErrUnavailable
		}
		if len(notes) > 0 && notes[0].IsDraft() {
			s.setAffordance(b, false)
			return apperr.ErrDraftExists
		}

		n, err := s.repo.Insert(models.Information{LastModified: s.now()})
		if err != nil {
			return fmt.Errorf("notelist: insert: %w", err)
		}
		created = n
		metrics.NoteOperations.WithLabelValues("create").Inc()
		s.logger.Debug("notelist: created draft", slog.String("id", n.ID))

		b.add(models.EventNoteCreated, 0, n.ID)
		if len(notes) == 0 {
			b.add(models.EventListNotEmpty, 0, "")
		}
		s.selectRow(b, 0, n.ID)
		s.setAffordance(b, false)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Delete removes the note at row and returns the new selection: the row
// that slides into its place, the previous row when the last row was
// removed, or NoSelection when the list is now empty.
func (s *Synchronizer) Delete(ctx context.Context, row int) (int, error) {
	selected := NoSelection
	err := s.do(ctx, func(b *batch) error {
		var err error
		selected, err = s.delete(b, row)
		return err
	})
	return selected, err
}

// DeleteSelected removes the selected note.
func (s *Synchronizer) DeleteSelected(ctx context.Context) (int, error) {
	selected := NoSelection
	err := s.do(ctx, func(b *batch) error {
		if s.selected == NoSelection {
			return apperr.ErrRowOutOfRange
		}
		var err error
		selected, err = s.delete(b, s.selected)
		return err
	})
	return selected, err
}

func (s *Synchronizer) delete(b *batch, row int) (int, error) {
	notes := s.rows()
	if row < 0 || row >= len(notes) {
		return s.selected, apperr.ErrRowOutOfRange
	}
	victim := notes[row]
	if err := s.repo.Delete(victim.ID); err != nil {
		return s.selected, fmt.Errorf("notelist: delete row %d: %w", row, err)
	}
	metrics.NoteOperations.WithLabelValues("delete").Inc()
	b.add(models.EventNoteDeleted, row, victim.ID)

	remaining, ok := s.fetch()
	if !ok {
		// The deleted draft was the only one, so creating is safe again.
		if victim.IsDraft() {
			s.setAffordance(b, true)
		}
		s.selected = NoSelection
		return NoSelection, nil
	}
	if len(remaining) == 0 {
		s.selected = NoSelection
		s.setAffordance(b, true)
		b.add(models.EventListEmpty, NoSelection, "")
		return NoSelection, nil
	}

	next := row
	if len(remaining) == row {
		next = row - 1
	}
	s.setAffordance(b, !remaining[0].IsDraft())
	s.selectRow(b, next, remaining[next].ID)
	return next, nil
}

// Select marks row as selected and returns its note.
func (s *Synchronizer) Select(ctx context.Context, row int) (*models.Note, error) {
	var note *models.Note
	err := s.do(ctx, func(b *batch) error {
		notes := s.rows()
		if row < 0 || row >= len(notes) {
			return apperr.ErrRowOutOfRange
		}
		n := notes[row]
		note = &n
		s.selectRow(b, row, n.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

// Share returns the full text of the note at row.
func (s *Synchronizer) Share(ctx context.Context, row int) (string, error) {
	var text string
	err := s.do(ctx, func(_ *batch) error {
		notes := s.rows()
		if row < 0 || row >= len(notes) {
			return apperr.ErrRowOutOfRange
		}
		text = parser.Join(notes[row].Title, notes[row].Content)
		metrics.NoteOperations.WithLabelValues("share").Inc()
		return nil
	})
	return text, err
}

// Search returns notes matching query, newest first.
func (s *Synchronizer) Search(ctx context.Context, query string, limit int) ([]models.Note, error) {
	var results []models.Note
	err := s.do(ctx, func(_ *batch) error {
		var err error
		results, err = s.repo.Search(query, limit)
		return err
	})
	if results == nil {
		results = []models.Note{}
	}
	return results, err
}
