package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vaultsite/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Indexed notes.
	r.Get("/notes", h.ListNotes)
	r.Get("/notes/*", h.GetNote)

	r.Get("/search", h.Search)
	r.Get("/tags", h.Tags)

	// Builds.
	r.Get("/builds/latest", h.LastBuild)
	r.Post("/builds", h.Rebuild)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
