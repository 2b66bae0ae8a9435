// Package topics maintains the topic index: slug-deduplicated topics and the
// note-to-topic join table.
//
// An Index is not safe for concurrent use. The note store owns one and
// serializes access to it.
package topics

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/berkana/internal/apperr"
	"github.com/starford/berkana/internal/models"
	"github.com/starford/berkana/internal/parser"
)

// Index maps slugs to topics and notes to the topics they reference.
type Index struct {
	newID func() string
	now   func() time.Time

	byID   map[string]*models.Topic
	bySlug map[string]*models.Topic

	// noteTopics keeps per-note topic ids in first-link order.
	noteTopics map[string][]string
}

// Option configures an Index.
type Option func(*Index)

// WithIDGenerator overrides the topic id generator.
func WithIDGenerator(fn func() string) Option {
	return func(ix *Index) { ix.newID = fn }
}

// WithClock overrides the clock used for CreatedAt.
func WithClock(fn func() time.Time) Option {
	return func(ix *Index) { ix.now = fn }
}

// New returns an empty topic index.
func New(opts ...Option) *Index {
	ix := &Index{
		newID:      func() string { return "topic-" + uuid.NewString() },
		now:        time.Now,
		byID:       make(map[string]*models.Topic),
		bySlug:     make(map[string]*models.Topic),
		noteTopics: make(map[string][]string),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// GetOrCreate returns the topic whose slug matches label, creating it when
// absent. created reports whether a new topic was stored. Labels that are
// empty after trimming, or that normalize to an empty slug, are rejected.
func (ix *Index) GetOrCreate(label string) (topic models.Topic, created bool, err error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return models.Topic{}, false, apperr.ErrEmptyTopicLabel
	}
	slug := parser.Slugify(label)
	if slug == "" {
		return models.Topic{}, false, apperr.ErrEmptyTopicLabel
	}
	if t, ok := ix.bySlug[slug]; ok {
		return *t, false, nil
	}
	t := &models.Topic{
		ID:        ix.newID(),
		Label:     label,
		Slug:      slug,
		CreatedAt: models.At(ix.now()),
	}
	ix.byID[t.ID] = t
	ix.bySlug[slug] = t
	return *t, true, nil
}

// Put stores a topic as-is. Used when restoring a persisted index; a topic
// whose slug is already present is ignored.
func (ix *Index) Put(t models.Topic) {
	if t.ID == "" || t.Slug == "" {
		return
	}
	if _, ok := ix.bySlug[t.Slug]; ok {
		return
	}
	if _, ok := ix.byID[t.ID]; ok {
		return
	}
	cp := t
	ix.byID[t.ID] = &cp
	ix.bySlug[t.Slug] = &cp
}

// Link records that noteID references topicID. Repeated calls are no-ops.
func (ix *Index) Link(noteID, topicID string) {
	for _, id := range ix.noteTopics[noteID] {
		if id == topicID {
			return
		}
	}
	ix.noteTopics[noteID] = append(ix.noteTopics[noteID], topicID)
}

// Unlink drops every join row of noteID.
func (ix *Index) Unlink(noteID string) {
	delete(ix.noteTopics, noteID)
}

// TopicIDs returns the ids of the topics linked to noteID, in link order.
func (ix *Index) TopicIDs(noteID string) []string {
	return append([]string(nil), ix.noteTopics[noteID]...)
}

// ForNote returns the topics linked to noteID, in link order.
func (ix *Index) ForNote(noteID string) []models.Topic {
	ids := ix.noteTopics[noteID]
	out := make([]models.Topic, 0, len(ids))
	for _, id := range ids {
		if t, ok := ix.byID[id]; ok {
			out = append(out, *t)
		}
	}
	return out
}

// ForNotes returns the union of the topics linked to any of noteIDs,
// sorted by label.
func (ix *Index) ForNotes(noteIDs []string) []models.Topic {
	seen := make(map[string]struct{})
	var out []models.Topic
	for _, nid := range noteIDs {
		for _, id := range ix.noteTopics[nid] {
			if _, dup := seen[id]; dup {
				continue
			}
			if t, ok := ix.byID[id]; ok {
				seen[id] = struct{}{}
				out = append(out, *t)
			}
		}
	}
	sortByLabel(out)
	return out
}

// NoteIDs returns the ids of notes linked to topicID, in no particular order.
func (ix *Index) NoteIDs(topicID string) []string {
	var out []string
	for nid, ids := range ix.noteTopics {
		for _, id := range ids {
			if id == topicID {
				out = append(out, nid)
				break
			}
		}
	}
	return out
}

// Pairs returns every join row. Rows are grouped by note id, notes sorted.
func (ix *Index) Pairs() []models.NoteTopic {
	noteIDs := make([]string, 0, len(ix.noteTopics))
	for nid := range ix.noteTopics {
		noteIDs = append(noteIDs, nid)
	}
	sort.Strings(noteIDs)
	var out []models.NoteTopic
	for _, nid := range noteIDs {
		for _, id := range ix.noteTopics[nid] {
			out = append(out, models.NoteTopic{NoteID: nid, TopicID: id})
		}
	}
	return out
}

// ByID looks a topic up by id.
func (ix *Index) ByID(id string) (models.Topic, bool) {
	t, ok := ix.byID[id]
	if !ok {
		return models.Topic{}, false
	}
	return *t, true
}

// BySlug looks a topic up by slug. The argument is normalized first, so a
// label works too.
func (ix *Index) BySlug(slug string) (models.Topic, bool) {
	t, ok := ix.bySlug[parser.Slugify(slug)]
	if !ok {
		return models.Topic{}, false
	}
	return *t, true
}

// All returns every topic sorted by label.
func (ix *Index) All() []models.Topic {
	out := make([]models.Topic, 0, len(ix.byID))
	for _, t := range ix.byID {
		out = append(out, *t)
	}
	sortByLabel(out)
	return out
}

// Len returns the number of topics.
func (ix *Index) Len() int { return len(ix.byID) }

func sortByLabel(ts []models.Topic) {
	sort.Slice(ts, func(i, j int) bool {
		li, lj := strings.ToLower(ts[i].Label), strings.ToLower(ts[j].Label)
		if li != lj {
			return li < lj
		}
		return ts[i].Slug < ts[j].Slug
	})
}
