package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/cloudnotes/internal/apperr"
	"github.com/starford/cloudnotes/internal/notelist"
)

// Handler holds API route handlers.
type Handler struct {
	list *notelist.Synchronizer
}

// NewHandler creates a new Handler.
func NewHandler(list *notelist.Synchronizer) *Handler {
	return &Handler{list: list}
}

// rowParam parses the {row} URL parameter.
func rowParam(r *http.Request) (int, bool) {
	row, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil || row < 0 {
		return 0, false
	}
	return row, true
}

// writeError maps list and store errors to HTTP responses.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrRowOutOfRange), errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrDraftExists):
		writeJSON(w, http.StatusConflict, errorBody(apperr.ErrDraftExists.Error()))
	case errors.Is(err, apperr.ErrUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorBody(apperr.ErrUnavailable.Error()))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes newest first with selection and create affordance
//	@Tags			notes
//	@Produce		json
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.list.View(r.Context()))
}

// GetNote handles GET /api/notes/{row}. It also selects the row.
//
//	@Summary		Select and get the note at a row
//	@Tags			notes
//	@Produce		json
//	@Param			row				path		int		true	"Row index"
//	@Param			If-None-Match	header		string	false	"Checksum from a previous read"
//	@Success		200				{object}	NoteDetail
//	@Success		304				"Not modified"
//	@Failure		400				{object}	errResponse
//	@Failure		404				{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{row} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	row, ok := rowParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("row must be a non-negative integer"))
		return
	}
	note, err := h.list.Select(r.Context(), row)
	if err != nil {
		writeError(w, "select note", err)
		return
	}
	detail := noteDetail(row, *note)
	etag := `"` + detail.Checksum + `"`
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Trim(match, `"`) == detail.Checksum {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create an empty draft at row 0
//	@Tags			notes
//	@Produce		json
//	@Success		201		{object}	NoteDetail
//	@Failure		409		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.list.Create(r.Context())
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, noteDetail(0, *note))
}

// EditNote handles PUT /api/notes/{row}.
//
//	@Summary		Replace a note's text; the note moves to row 0
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			row		path		int				true	"Row index"
//	@Param			body	body		EditNoteRequest	true	"Raw note text"
//	@Success		200		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{row} [put]
func (h *Handler) EditNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	row, ok := rowParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("row must be a non-negative integer"))
		return
	}
	var req EditNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	note, err := h.list.Edit(r.Context(), row, req.Text)
	if err != nil {
		writeError(w, "edit note", err)
		return
	}
	writeJSON(w, http.StatusOK, noteDetail(0, *note))
}

// DeleteNote handles DELETE /api/notes/{row}.
//
//	@Summary		Delete the note at a row
//	@Tags			notes
//	@Produce		json
//	@Param			row		path		int		true	"Row index"
//	@Success		200		{object}	DeleteResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{row} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	row, ok := rowParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("row must be a non-negative integer"))
		return
	}
	selected, err := h.list.Delete(r.Context(), row)
	if err != nil {
		writeError(w, "delete note", err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Selected: selected})
}

// DeleteSelected handles DELETE /api/selected.
//
//	@Summary		Delete the selected note
//	@Tags			notes
//	@Produce		json
//	@Success		200		{object}	DeleteResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/selected [delete]
func (h *Handler) DeleteSelected(w http.ResponseWriter, r *http.Request) {
	selected, err := h.list.DeleteSelected(r.Context())
	if err != nil {
		writeError(w, "delete selected", err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Selected: selected})
}

// ShareNote handles GET /api/notes/{row}/share.
//
//	@Summary		Get the full text of a note for sharing
//	@Tags			notes
//	@Produce		plain
//	@Param			row		path		int		true	"Row index"
//	@Success		200		{string}	string
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{row}/share [get]
func (h *Handler) ShareNote(w http.ResponseWriter, r *http.Request) {
	row, ok := rowParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("row must be a non-negative integer"))
		return
	}
	text, err := h.list.Share(r.Context(), row)
	if err != nil {
		writeError(w, "share note", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

// Search handles GET /api/search.
//
//	@Summary		Search note titles and content
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.list.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
