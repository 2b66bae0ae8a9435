package notestore

import (
	"fmt"

	"github.com/starford/berkana/internal/apperr"
	"github.com/starford/berkana/internal/models"
)

// BulkUpdate is one entry of a bulk update request.
type BulkUpdate struct {
	NoteID  string     `json:"noteId"`
	Updates NoteUpdate `json:"updates"`
}

// BulkResult is the positional outcome of one bulk update entry. Note is
// nil and Err is apperr.ErrNotFound when the id was unknown.
type BulkResult struct {
	NoteID string       `json:"noteId"`
	Note   *models.Note `json:"note"`
	Err    error        `json:"-"`
}

// BulkCreate creates every note in input order and returns them in that
// order. The batch is validated up front: one invalid entry fails the call
// before anything is stored.
func (s *Store) BulkCreate(ins []NewNote) ([]*models.Note, error) {
	for i, in := range ins {
		if in.ContactID == "" || in.AuthorContactID == "" {
			return nil, fmt.Errorf("notestore: bulk create entry %d: %w", i, apperr.ErrMissingContact)
		}
	}

	s.mu.Lock()
	c := &change{}
	out := make([]*models.Note, 0, len(ins))
	for _, in := range ins {
		out = append(out, s.createLocked(c, in, models.KindNote, "").Clone())
	}
	s.enqueue(c.events)
	s.mu.Unlock()

	s.flush()
	return out, nil
}

// BulkUpdate applies each entry independently. A missing id yields a
// result with a nil note at that position; later entries still run.
func (s *Store) BulkUpdate(entries []BulkUpdate) []BulkResult {
	s.mu.Lock()
	c := &change{}
	out := make([]BulkResult, len(entries))
	for i, e := range entries {
		out[i].NoteID = e.NoteID
		n, ok := s.updateLocked(c, e.NoteID, e.Updates)
		if !ok {
			out[i].Err = apperr.ErrNotFound
			continue
		}
		out[i].Note = n.Clone()
	}
	s.enqueue(c.events)
	s.mu.Unlock()

	s.flush()
	return out
}

// BulkDelete deletes each id independently and reports per id whether a
// note was removed.
func (s *Store) BulkDelete(ids []string) []bool {
	s.mu.Lock()
	c := &change{}
	out := make([]bool, len(ids))
	for i, id := range ids {
		out[i] = s.deleteLocked(c, id)
	}
	s.enqueue(c.events)
	s.mu.Unlock()

	s.flush()
	return out
}
