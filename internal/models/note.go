// Package models defines the domain types for CloudNotes.
package models

import (
	"encoding/json"
	"time"
)

// Note is a persisted note record.
type Note struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	LastModified time.Time `json:"last_modified"`
}

// IsDraft reports whether the note has an empty title.
func (n Note) IsDraft() bool {
	return n.Title == ""
}

// MarshalJSON adds last_modified_date as float seconds since the epoch.
func (n Note) MarshalJSON() ([]byte, error) {
	type alias Note
	return json.Marshal(struct {
		alias
		LastModifiedDate float64 `json:"last_modified_date"`
	}{
		alias:            alias(n),
		LastModifiedDate: EpochSeconds(n.LastModified),
	})
}

// Information is the derived title/content pair produced from raw note text.
type Information struct {
	Title        string
	Content      string
	LastModified time.Time
}

// EpochSeconds converts t to fractional seconds since the Unix epoch.
func EpochSeconds(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}

// List event kinds delivered to the presentation layer.
const (
	EventNoteCreated        = "note.created"
	EventNoteUpdated        = "note.updated"
	EventNoteDeleted        = "note.deleted"
	EventRowMoved           = "row.moved"
	EventRowSelected        = "row.selected"
	EventListEmpty          = "list.empty"
	EventListNotEmpty       = "list.not_empty"
	EventAffordanceEnabled  = "affordance.enabled"
	EventAffordanceDisabled = "affordance.disabled"
	EventListReloaded       = "list.reloaded"
)

// ListEvent is a presentation signal emitted after a list operation.
type ListEvent struct {
	Kind string `json:"kind"`
	Row  int    `json:"row"`
	ID   string `json:"id,omitempty"`
	// From is the previous row for row.moved.
	From int `json:"from,omitempty"`
}
