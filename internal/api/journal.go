package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/berkana/internal/notestore"
)

// dateParam parses the {date} URL parameter as a journal date key.
func dateParam(w http.ResponseWriter, r *http.Request) (time.Time, string, bool) {
	key := chi.URLParam(r, "date")
	d, err := time.Parse(notestore.DateKeyLayout, key)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("date must be YYYY-MM-DD"))
		return time.Time{}, "", false
	}
	return d, key, true
}

// Journal handles GET /api/journal/{date}. The journal note of the day is
// created on first access.
//
//	@Summary		Get or create the journal note of a day
//	@Tags			journal
//	@Produce		json
//	@Param			date	path		string	true	"Day (YYYY-MM-DD)"
//	@Success		200		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/journal/{date} [get]
func (h *Handler) Journal(w http.ResponseWriter, r *http.Request) {
	d, _, ok := dateParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Journal(r.Context(), d))
}

// JournalEntries handles GET /api/journal/{date}/entries.
func (h *Handler) JournalEntries(w http.ResponseWriter, r *http.Request) {
	_, key, ok := dateParam(w, r)
	if !ok {
		return
	}
	notes := h.svc.JournalEntries(r.Context(), key)
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// AddJournalEntry handles POST /api/journal/{date}/entries.
func (h *Handler) AddJournalEntry(w http.ResponseWriter, r *http.Request) {
	_, key, ok := dateParam(w, r)
	if !ok {
		return
	}
	var req JournalEntryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusCreated, h.svc.AddJournalEntry(r.Context(), key, req.Content))
}
