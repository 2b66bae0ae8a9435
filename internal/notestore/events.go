package notestore

import "github.com/starford/berkana/internal/models"

// EventKind names a store change.
type EventKind string

const (
	EventNoteCreated  EventKind = "created"
	EventNoteUpdated  EventKind = "updated"
	EventNoteDeleted  EventKind = "deleted"
	EventTopicCreated EventKind = "topic_created"
)

// Event describes one change. Note events carry a copy of the note plus
// its topic ids and link targets as they were right after the change.
type Event struct {
	Kind        EventKind
	NoteID      string
	Note        *models.Note
	TopicIDs    []string
	LinkTargets []string
	Topic       *models.Topic
}

// Observer receives store events in mutation order. Observers run after
// the store lock is released, so they may call back into the store. When
// mutations race, one mutating goroutine delivers the queued events of the
// others, so a mutation may return before its own events are observed.
type Observer func(Event)

// Subscribe registers o for every future event.
func (s *Store) Subscribe(o Observer) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, o)
}

// change accumulates events while the store lock is held.
type change struct {
	events []Event
}

func (c *change) add(ev Event) {
	c.events = append(c.events, ev)
}

// enqueue appends events to the delivery queue. Caller holds s.mu, which
// fixes the queue order to the mutation order.
func (s *Store) enqueue(events []Event) {
	if len(events) == 0 {
		return
	}
	s.queueMu.Lock()
	s.pending = append(s.pending, events...)
	s.queueMu.Unlock()
}

// flush delivers queued events unless another goroutine already is. Caller
// must not hold s.mu.
func (s *Store) flush() {
	s.queueMu.Lock()
	if s.dispatching {
		s.queueMu.Unlock()
		return
	}
	s.dispatching = true
	for len(s.pending) > 0 {
		batch := s.pending
		s.pending = nil
		s.queueMu.Unlock()

		s.obsMu.RLock()
		observers := append([]Observer(nil), s.observers...)
		s.obsMu.RUnlock()
		for _, ev := range batch {
			for _, o := range observers {
				o(ev)
			}
		}

		s.queueMu.Lock()
	}
	s.dispatching = false
	s.queueMu.Unlock()
}

// noteEvent snapshots n and its derived rows. Caller holds s.mu.
func (s *Store) noteEvent(kind EventKind, n *models.Note) Event {
	return Event{
		Kind:        kind,
		NoteID:      n.ID,
		Note:        n.Clone(),
		TopicIDs:    s.topics.TopicIDs(n.ID),
		LinkTargets: s.links.Outgoing(n.ID),
	}
}
