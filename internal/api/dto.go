package api

import (
	"time"

	"github.com/starford/cloudnotes/internal/checksum"
	"github.com/starford/cloudnotes/internal/models"
	"github.com/starford/cloudnotes/internal/notelist"
	"github.com/starford/cloudnotes/internal/parser"
)

// EditNoteRequest is the request body for editing a note.
type EditNoteRequest struct {
	Text string `json:"text" example:"Groceries\nmilk\neggs" validate:"required"`
}

// NoteDetail is the full note response type.
type NoteDetail struct {
	Row              int       `json:"row" example:"0" validate:"required"`
	ID               string    `json:"id" example:"3f1c..." validate:"required"`
	Title            string    `json:"title" example:"Groceries" validate:"required"`
	Content          string    `json:"content" example:"\nmilk\neggs" validate:"required"`
	Text             string    `json:"text" example:"Groceries\nmilk\neggs" validate:"required"`
	Checksum         string    `json:"checksum" example:"abc123..." validate:"required"`
	LastModified     time.Time `json:"last_modified" validate:"required"`
	LastModifiedDate float64   `json:"last_modified_date" example:"1704067200.5" validate:"required"`
}

func noteDetail(row int, n models.Note) NoteDetail {
	return NoteDetail{
		Row:              row,
		ID:               n.ID,
		Title:            n.Title,
		Content:          n.Content,
		Text:             parser.Join(n.Title, n.Content),
		Checksum:         checksum.Note(n.ID, n.Title, n.Content),
		LastModified:     n.LastModified,
		LastModifiedDate: models.EpochSeconds(n.LastModified),
	}
}

// NoteListResponse is the list view returned by GET /notes.
type NoteListResponse = notelist.View

// DeleteResponse reports the selection after a delete.
type DeleteResponse struct {
	Selected int `json:"selected" example:"1" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []models.Note `json:"results" validate:"required"`
}
