package notestore

import (
	"strings"

	"github.com/starford/berkana/internal/models"
	"github.com/starford/berkana/internal/parser"
)

// TargetKind tells which side of a wikilink a target stands for.
type TargetKind string

const (
	TargetNote  TargetKind = "note"
	TargetTopic TargetKind = "topic"
)

// WikilinkTarget is one resolution of a [[Label]] token. A token resolves
// to a note target first (title match, else a new stub note) and then to
// a topic target (slug match, else a new topic). A label whose slug is
// empty has no topic target.
type WikilinkTarget struct {
	Kind  TargetKind `json:"kind"`
	Label string     `json:"label"`
	ID    string     `json:"id"`
	// Created is set when resolving the token materialized the target.
	Created bool `json:"created"`
}

// deriveLocked re-derives every outgoing link and topic row of n from its
// current content. Stale rows are cleared first, so running it twice on
// unchanged content yields the same rows.
func (s *Store) deriveLocked(c *change, n *models.Note) {
	s.topics.Unlink(n.ID)

	var targets []string
	for _, wl := range parser.Wikilinks(n.Content) {
		for _, t := range s.resolveLocked(c, wl.Target, n) {
			switch t.Kind {
			case TargetNote:
				if t.ID != n.ID {
					targets = append(targets, t.ID)
				}
			case TargetTopic:
				s.topics.Link(n.ID, t.ID)
			}
		}
	}
	s.links.Replace(n.ID, targets)
}

// resolveLocked resolves one label against the current store in the fixed
// order note, then topic.
func (s *Store) resolveLocked(c *change, label string, source *models.Note) []WikilinkTarget {
	out := make([]WikilinkTarget, 0, 2)

	if target := s.findByTitleLocked(label); target != nil {
		out = append(out, WikilinkTarget{Kind: TargetNote, Label: label, ID: target.ID})
	} else {
		stub := s.createStubLocked(c, label, source)
		out = append(out, WikilinkTarget{Kind: TargetNote, Label: label, ID: stub.ID, Created: true})
	}

	topic, created, err := s.topics.GetOrCreate(label)
	if err == nil {
		if created {
			t := topic
			c.add(Event{Kind: EventTopicCreated, Topic: &t})
		}
		out = append(out, WikilinkTarget{Kind: TargetTopic, Label: label, ID: topic.ID, Created: created})
	}
	return out
}

// findByTitleLocked returns the first note in store order whose title
// equals title, ignoring case and surrounding space.
func (s *Store) findByTitleLocked(title string) *models.Note {
	want := strings.TrimSpace(title)
	for _, n := range s.notes {
		if strings.EqualFold(strings.TrimSpace(n.Title), want) {
			return n
		}
	}
	return nil
}

// createStubLocked materializes an empty note titled label, anchored to
// the same contact and author as source.
func (s *Store) createStubLocked(c *change, label string, source *models.Note) *models.Note {
	return s.createLocked(c, NewNote{
		ContactID:       source.ContactID,
		AuthorContactID: source.AuthorContactID,
		Title:           label,
	}, models.KindNote, "")
}
