package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/berkana/internal/models"
	"github.com/starford/berkana/internal/noteservice"
	"github.com/starford/berkana/internal/notestore"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes, newest first
//	@Tags			notes
//	@Produce		json
//	@Param			contact	query		string	false	"Filter by contact id"
//	@Param			author	query		string	false	"Filter by author contact id"
//	@Param			folder	query		string	false	"Filter by folder (archived notes excluded)"
//	@Param			date	query		string	false	"Filter by creation date prefix (YYYY-MM-DD)"
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	notes := h.svc.ListNotes(r.Context(), noteservice.NoteFilter{
		ContactID: q.Get("contact"),
		AuthorID:  q.Get("author"),
		FolderID:  q.Get("folder"),
		Date:      q.Get("date"),
	})
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a note with its topics and links
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.GetNote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	note, err := h.svc.CreateNote(r.Context(), req.toNewNote())
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PATCH /api/notes/{id}.
//
//	@Summary		Update a note with optional optimistic concurrency
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string				true	"Note id"
//	@Param			If-Match	header		string				false	"Expected sync_version"
//	@Param			body		body		UpdateNoteRequest	true	"Fields to change"
//	@Success		200			{object}	models.Note
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [patch]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req UpdateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ifVersion := 0
	if ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`); ifMatch != "" {
		v, err := strconv.Atoi(ifMatch)
		if err != nil || v < 1 {
			writeJSON(w, http.StatusBadRequest, errorBody("If-Match must be a sync_version"))
			return
		}
		ifVersion = v
	}

	note, err := h.svc.UpdateNote(r.Context(), chi.URLParam(r, "id"), req.NoteUpdate, ifVersion)
	if err != nil {
		writeError(w, "update note", err)
		return
	}
	w.Header().Set("ETag", strconv.Quote(strconv.Itoa(note.SyncVersion)))
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/{id}.
//
//	@Summary		Delete a note and its topic and link rows
//	@Tags			notes
//	@Param			id	path	string	true	"Note id"
//	@Success		204	"Note deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteNote(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ForwardLinks handles GET /api/notes/{id}/links.
func (h *Handler) ForwardLinks(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.ForwardLinks(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "forward links", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// Backlinks handles GET /api/notes/{id}/backlinks.
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.Backlinks(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "backlinks", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// NoteTopics handles GET /api/notes/{id}/topics.
func (h *Handler) NoteTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.svc.NoteTopics(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "note topics", err)
		return
	}
	writeJSON(w, http.StatusOK, TopicListResponse{Topics: topics})
}

// Wikilinks handles GET /api/notes/{id}/wikilinks.
func (h *Handler) Wikilinks(w http.ResponseWriter, r *http.Request) {
	targets, err := h.svc.Wikilinks(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "wikilinks", err)
		return
	}
	writeJSON(w, http.StatusOK, WikilinkListResponse{Targets: targets})
}

// BulkCreate handles POST /api/notes/bulk. The batch is all or nothing.
func (h *Handler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	var req BulkCreateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ins := make([]notestore.NewNote, len(req.Notes))
	for i, n := range req.Notes {
		ins[i] = n.toNewNote()
	}
	notes, err := h.svc.BulkCreate(r.Context(), ins)
	if err != nil {
		writeError(w, "bulk create", err)
		return
	}
	writeJSON(w, http.StatusCreated, NoteListResponse{Notes: notes, Total: len(notes)})
}

// BulkUpdate handles PATCH /api/notes/bulk. Unknown ids yield null at their
// position; the other entries are still applied.
func (h *Handler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req BulkUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	entries := make([]notestore.BulkUpdate, len(req.Updates))
	for i, e := range req.Updates {
		entries[i] = notestore.BulkUpdate{NoteID: e.NoteID, Updates: e.Updates}
	}
	results := h.svc.BulkUpdate(r.Context(), entries)
	resp := BulkUpdateResponse{Notes: make([]*models.Note, len(results))}
	for i, res := range results {
		resp.Notes[i] = res.Note
	}
	writeJSON(w, http.StatusOK, resp)
}

// BulkDelete handles DELETE /api/notes/bulk.
func (h *Handler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req IDsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, BulkDeleteResponse{Results: h.svc.BulkDelete(r.Context(), req.IDs)})
}

// Search handles GET /api/search.
//
//	@Summary		Case-insensitive substring search over titles and content
//	@Tags			search
//	@Produce		json
//	@Param			q	query		string	true	"Search query"
//	@Success		200	{object}	NoteListResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	notes := h.svc.Search(r.Context(), q)
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}
