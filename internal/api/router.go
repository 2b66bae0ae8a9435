package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/berkana/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes CRUD.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Post("/notes/bulk", h.BulkCreate)
	r.Patch("/notes/bulk", h.BulkUpdate)
	r.Delete("/notes/bulk", h.BulkDelete)
	r.Route("/notes/{id}", func(r chi.Router) {
		r.Get("/", h.GetNote)
		r.Patch("/", h.UpdateNote)
		r.Delete("/", h.DeleteNote)
		r.Get("/links", h.ForwardLinks)
		r.Get("/backlinks", h.Backlinks)
		r.Get("/topics", h.NoteTopics)
		r.Get("/wikilinks", h.Wikilinks)
	})

	r.Get("/search", h.Search)

	// Journal.
	r.Get("/journal/{date}", h.Journal)
	r.Get("/journal/{date}/entries", h.JournalEntries)
	r.Post("/journal/{date}/entries", h.AddJournalEntry)

	// Topics.
	r.Get("/topics", h.ListTopics)
	r.Post("/topics", h.CreateTopic)
	r.Get("/topics/{slug}", h.GetTopic)
	r.Get("/topics/{slug}/notes", h.TopicNotes)
	r.Get("/contacts/{id}/topics", h.ContactTopics)
	r.Get("/authors/{id}/topics", h.AuthorTopics)

	// Graph.
	r.Get("/links", h.Links)
	r.Get("/graph", h.Graph)

	// Export / import.
	r.Post("/export", h.Export)
	r.Post("/import", h.Import)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
