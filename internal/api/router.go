package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/cloudnotes/internal/notelist"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(list *notelist.Synchronizer, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(list)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Route("/notes/{row}", func(r chi.Router) {
		r.Get("/", h.GetNote)
		r.Put("/", h.EditNote)
		r.Delete("/", h.DeleteNote)
		r.Get("/share", h.ShareNote)
	})
	r.Delete("/selected", h.DeleteSelected)

	r.Get("/search", h.Search)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
