package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/sowilo/internal/recordservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *recordservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Indexes and artifacts.
	r.Get("/index", h.GetIndex)
	r.Get("/records/*", h.GetRecord)
	r.Get("/parse/*", h.ParseDocument)

	// Exports.
	r.Post("/publish/*", h.Publish)
	r.Post("/draft/*", h.Draft)
	r.Post("/rebuild", h.Rebuild)

	// Catalog queries.
	r.Get("/search", h.Search)
	r.Get("/tags", h.ListTags)
	r.Get("/tags/*", h.ByTag)
	r.Get("/backlinks/*", h.Backlinks)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
