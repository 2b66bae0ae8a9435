package notestore

import (
	"sort"

	"github.com/starford/berkana/internal/models"
	"github.com/starford/berkana/internal/parser"
)

// ForwardLinks returns the notes id links to, newest first. Targets that no
// longer exist are skipped.
func (s *Store) ForwardLinks(id string) []*models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notesLocked(s.links.Outgoing(id))
}

// Backlinks returns the notes that link to id, newest first.
func (s *Store) Backlinks(id string) []*models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notesLocked(s.links.Incoming(id))
}

// Links returns every link whose endpoints both exist, grouped by source
// in store order.
func (s *Store) Links() []models.NoteLink {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linksLocked()
}

func (s *Store) linksLocked() []models.NoteLink {
	sources := make([]string, len(s.notes))
	for i, n := range s.notes {
		sources[i] = n.ID
	}
	all := s.links.All(sources)
	out := all[:0]
	for _, l := range all {
		if _, ok := s.byID[l.TargetNoteID]; ok {
			out = append(out, l)
		}
	}
	return out
}

// Wikilinks resolves the [[Label]] tokens of note id against the current
// store without creating anything. Each token yields its note target and
// then its topic target; targets that do not exist are left out.
func (s *Store) Wikilinks(id string) ([]WikilinkTarget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	var out []WikilinkTarget
	for _, wl := range parser.Wikilinks(n.Content) {
		if target := s.findByTitleLocked(wl.Target); target != nil {
			out = append(out, WikilinkTarget{Kind: TargetNote, Label: wl.Target, ID: target.ID})
		}
		if topic, ok := s.topics.BySlug(wl.Target); ok {
			out = append(out, WikilinkTarget{Kind: TargetTopic, Label: wl.Target, ID: topic.ID})
		}
	}
	return out, true
}

// TopicsForNote returns the topics linked to note id, in link order.
func (s *Store) TopicsForNote(id string) []models.Topic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topics.ForNote(id)
}

// TopicsForContact returns the union of the topics of every note about
// contactID, sorted by label.
func (s *Store) TopicsForContact(contactID string) []models.Topic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topics.ForNotes(s.idsLocked(func(n *models.Note) bool { return n.ContactID == contactID }))
}

// TopicsForAuthor returns the union of the topics of every note written by
// authorID, sorted by label.
func (s *Store) TopicsForAuthor(authorID string) []models.Topic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topics.ForNotes(s.idsLocked(func(n *models.Note) bool { return n.AuthorContactID == authorID }))
}

// NotesForTopic returns the notes linked to topicID, newest first.
func (s *Store) NotesForTopic(topicID string) []*models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notesLocked(s.topics.NoteIDs(topicID))
}

// Topic looks a topic up by id.
func (s *Store) Topic(id string) (models.Topic, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topics.ByID(id)
}

// TopicBySlug looks a topic up by slug or label.
func (s *Store) TopicBySlug(slug string) (models.Topic, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topics.BySlug(slug)
}

// Topics returns every topic sorted by label.
func (s *Store) Topics() []models.Topic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topics.All()
}

// GetOrCreateTopic returns the topic for label, creating it when absent.
func (s *Store) GetOrCreateTopic(label string) (models.Topic, error) {
	s.mu.Lock()
	c := &change{}
	topic, err := s.getOrCreateTopicLocked(c, label)
	s.enqueue(c.events)
	s.mu.Unlock()

	s.flush()
	return topic, err
}

func (s *Store) getOrCreateTopicLocked(c *change, label string) (models.Topic, error) {
	topic, created, err := s.topics.GetOrCreate(label)
	if err != nil {
		return models.Topic{}, err
	}
	if created {
		t := topic
		c.add(Event{Kind: EventTopicCreated, Topic: &t})
	}
	return topic, nil
}

// notesLocked returns clones of the existing notes among ids, newest first.
func (s *Store) notesLocked(ids []string) []*models.Note {
	out := make([]*models.Note, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if n, ok := s.byID[id]; ok {
			out = append(out, n.Clone())
		}
	}
	// Restore store order before the stable sort so ties match All().
	pos := make(map[string]int, len(s.notes))
	for i, n := range s.notes {
		pos[n.ID] = i
	}
	sortByStoreOrder(out, pos)
	sortNewestFirst(out)
	return out
}

func (s *Store) idsLocked(keep func(*models.Note) bool) []string {
	var out []string
	for _, n := range s.notes {
		if keep(n) {
			out = append(out, n.ID)
		}
	}
	return out
}

func sortByStoreOrder(ns []*models.Note, pos map[string]int) {
	sort.Slice(ns, func(i, j int) bool { return pos[ns[i].ID] < pos[ns[j].ID] })
}

// State is a consistent copy of everything the store derives a graph from.
type State struct {
	Notes      []*models.Note
	Topics     []models.Topic
	NoteTopics []models.NoteTopic
	Links      []models.NoteLink
}

// State returns a copy of the notes, topics and join rows taken under one
// lock. Rows whose note no longer exists are left out.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes := make([]*models.Note, len(s.notes))
	for i, n := range s.notes {
		notes[i] = n.Clone()
	}
	var pairs []models.NoteTopic
	for _, p := range s.topics.Pairs() {
		if _, ok := s.byID[p.NoteID]; ok {
			pairs = append(pairs, p)
		}
	}
	return State{
		Notes:      notes,
		Topics:     s.topics.All(),
		NoteTopics: pairs,
		Links:      s.linksLocked(),
	}
}
