package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListTopics handles GET /api/topics.
//
//	@Summary		List topics sorted by label
//	@Tags			topics
//	@Produce		json
//	@Success		200	{object}	TopicListResponse
//	@Security		BearerAuth
//	@Router			/topics [get]
func (h *Handler) ListTopics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TopicListResponse{Topics: h.svc.Topics(r.Context())})
}

// CreateTopic handles POST /api/topics. An existing topic with the same
// slug is returned instead of a new one.
func (h *Handler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	var req CreateTopicRequest
	if !decodeBody(w, r, &req) {
		return
	}
	t, err := h.svc.CreateTopic(r.Context(), req.Label)
	if err != nil {
		writeError(w, "create topic", err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// GetTopic handles GET /api/topics/{slug}.
func (h *Handler) GetTopic(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Topic(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, "get topic", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// TopicNotes handles GET /api/topics/{slug}/notes.
func (h *Handler) TopicNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.TopicNotes(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, "topic notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// ContactTopics handles GET /api/contacts/{id}/topics.
func (h *Handler) ContactTopics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TopicListResponse{Topics: h.svc.ContactTopics(r.Context(), chi.URLParam(r, "id"))})
}

// AuthorTopics handles GET /api/authors/{id}/topics.
func (h *Handler) AuthorTopics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TopicListResponse{Topics: h.svc.AuthorTopics(r.Context(), chi.URLParam(r, "id"))})
}

// Links handles GET /api/links.
func (h *Handler) Links(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LinkListResponse{Links: h.svc.Links(r.Context())})
}

// Graph handles GET /api/graph.
//
//	@Summary		Get the note graph
//	@Description	Materializes hashtag and tag topics, then returns notes, topics and contacts with their edges.
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	models.Graph
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.Graph(r.Context())
	if err != nil {
		writeError(w, "graph", err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}
