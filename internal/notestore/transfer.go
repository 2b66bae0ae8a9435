package notestore

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/starford/berkana/internal/apperr"
	"github.com/starford/berkana/internal/models"
	"github.com/starford/berkana/internal/parser"
)

// ImportOptions controls how ImportJSON treats incoming notes.
type ImportOptions struct {
	// Overwrite replaces an existing note that has the same id.
	Overwrite bool `json:"overwrite"`
	// GenerateNewIDs imports every note under a fresh id with its sync
	// version reset to 1; nothing is treated as a collision.
	GenerateNewIDs bool `json:"generateNewIds"`
}

// Export builds the export envelope for the notes in ids, or for every
// note when ids is nil. Notes keep store order; unknown ids are skipped.
func (s *Store) Export(ids []string) models.Export {
	s.mu.Lock()
	defer s.mu.Unlock()

	var want map[string]struct{}
	if ids != nil {
		want = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			want[id] = struct{}{}
		}
	}
	notes := make([]*models.Note, 0, len(s.notes))
	for _, n := range s.notes {
		if want != nil {
			if _, ok := want[n.ID]; !ok {
				continue
			}
		}
		notes = append(notes, n.Clone())
	}
	return models.Export{
		Version:    models.ExportVersion,
		ExportedAt: s.timestamp(),
		NoteCount:  len(notes),
		Notes:      notes,
	}
}

// ExportJSON serializes Export(ids) as indented JSON.
func (s *Store) ExportJSON(ids []string) ([]byte, error) {
	data, err := json.MarshalIndent(s.Export(ids), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("notestore: export: %w", err)
	}
	return data, nil
}

// ImportJSON imports the notes of an export envelope and returns the notes
// actually inserted or overwritten, in input order. Skipped collisions are
// absent from the result. Malformed input fails with apperr.ErrInvalidJSON,
// apperr.ErrInvalidExport or apperr.ErrInvalidNote before anything is
// stored. When Overwrite is set and an id repeats within the payload, the
// last copy wins.
func (s *Store) ImportJSON(data []byte, opts ImportOptions) ([]*models.Note, error) {
	incoming, err := decodeExport(data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	c := &change{}
	imported := make([]*models.Note, 0, len(incoming))
	kinds := make([]EventKind, 0, len(incoming))
	inBatch := make(map[string]int, len(incoming))
	for _, n := range incoming {
		s.normalizeImportLocked(n)
		kind := EventNoteCreated
		switch {
		case opts.GenerateNewIDs:
			n.ID = s.newID()
			n.SyncVersion = 1
			n.LastSyncedAt = nil
			s.insertLocked(n)
		case s.byID[n.ID] != nil:
			if !opts.Overwrite {
				continue
			}
			s.replaceLocked(n)
			kind = EventNoteUpdated
			// A repeated id replaces its earlier copy from this batch,
			// which was never kept and so is neither derived nor returned.
			if prev, ok := inBatch[n.ID]; ok {
				kind = kinds[prev]
				imported[prev] = nil
			}
		default:
			s.insertLocked(n)
		}
		inBatch[n.ID] = len(imported)
		imported = append(imported, n)
		kinds = append(kinds, kind)
	}
	// Derive only after the whole batch is in, so wikilinks between
	// imported notes resolve to each other instead of to new stubs.
	out := make([]*models.Note, 0, len(imported))
	for i, n := range imported {
		if n == nil {
			continue
		}
		s.deriveLocked(c, n)
		c.add(s.noteEvent(kinds[i], n))
		out = append(out, n.Clone())
	}
	s.enqueue(c.events)
	s.mu.Unlock()

	s.flush()
	return out, nil
}

// Restore loads previously persisted topics and notes into an empty store
// and re-derives the link and topic rows. It emits no events.
func (s *Store) Restore(notes []*models.Note, ts []models.Topic) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range ts {
		s.topics.Put(t)
	}
	ordered := make([]*models.Note, 0, len(notes))
	for _, n := range notes {
		if n == nil || n.ID == "" || s.byID[n.ID] != nil {
			continue
		}
		cp := n.Clone()
		s.normalizeImportLocked(cp)
		ordered = append(ordered, cp)
	}
	// Oldest first, so the newest note ends up at the head.
	sortNewestFirst(ordered)
	for i := len(ordered) - 1; i >= 0; i-- {
		s.insertLocked(ordered[i])
	}
	discard := &change{}
	for _, n := range ordered {
		s.deriveLocked(discard, n)
	}
}

func decodeExport(data []byte) ([]*models.Note, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(data, &env); err != nil {
		var probe any
		if json.Unmarshal(data, &probe) != nil {
			return nil, apperr.ErrInvalidJSON
		}
		// Valid JSON that is not an object has no notes array.
		return nil, apperr.ErrInvalidExport
	}
	raw, ok := env["notes"]
	if !ok {
		return nil, apperr.ErrInvalidExport
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, apperr.ErrInvalidExport
	}
	out := make([]*models.Note, 0, len(items))
	for i, item := range items {
		var n models.Note
		if err := json.Unmarshal(item, &n); err != nil {
			return nil, fmt.Errorf("%w: note %d: %v", apperr.ErrInvalidNote, i, err)
		}
		out = append(out, &n)
	}
	return out, nil
}

// normalizeImportLocked fills the fields an external payload may omit so
// imported notes keep the store invariants.
func (s *Store) normalizeImportLocked(n *models.Note) {
	if n.ID == "" {
		n.ID = s.newID()
	}
	if n.ContactID == "" {
		n.ContactID = s.contactZero
	}
	if n.AuthorContactID == "" {
		n.AuthorContactID = s.contactZero
	}
	if n.Kind == "" {
		n.Kind = models.KindNote
	}
	if strings.TrimSpace(n.Title) == "" {
		n.Title = parser.DeriveTitle(n.Content)
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	if n.FolderID == "" {
		n.FolderID = models.DefaultFolderID
	}
	if n.SyncVersion < 1 {
		n.SyncVersion = 1
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.timestamp()
	}
}

// replaceLocked swaps the stored note that has n.ID for n, keeping its
// position in store order.
func (s *Store) replaceLocked(n *models.Note) {
	for i, cur := range s.notes {
		if cur.ID == n.ID {
			s.notes[i] = n
			break
		}
	}
	s.byID[n.ID] = n
}
