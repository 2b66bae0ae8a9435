package notestore

import (
	"strings"
	"time"

	"github.com/starford/berkana/internal/models"
)

// DateKeyLayout is the layout of journal date keys.
const DateKeyLayout = "2006-01-02"

// DateKey formats t as a journal date key in t's own location.
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// CreateLogEntry stores a journal entry for dateKey, authored by and about
// the contact zero.
func (s *Store) CreateLogEntry(dateKey, content string) *models.Note {
	s.mu.Lock()
	c := &change{}
	n := s.createLogEntryLocked(c, dateKey, content)
	out := n.Clone()
	s.enqueue(c.events)
	s.mu.Unlock()

	s.flush()
	return out
}

// LogEntriesByDate returns the non-archived journal entries of dateKey,
// newest first.
func (s *Store) LogEntriesByDate(dateKey string) []*models.Note {
	return s.filter(func(n *models.Note) bool {
		return n.Kind == models.KindLog && n.DateKey == dateKey && !n.IsArchived
	})
}

// JournalForDate returns the journal note of date's calendar day, creating
// it on first use. Repeated calls for the same day return the same note.
func (s *Store) JournalForDate(date time.Time) *models.Note {
	key := DateKey(date)

	s.mu.Lock()
	c := &change{}
	var n *models.Note
	for _, cand := range s.notes {
		if cand.Kind == models.KindLog && cand.DateKey == key {
			n = cand
			break
		}
	}
	if n == nil {
		n = s.createLogEntryLocked(c, key, "")
	}
	out := n.Clone()
	s.enqueue(c.events)
	s.mu.Unlock()

	s.flush()
	return out
}

func (s *Store) createLogEntryLocked(c *change, dateKey, content string) *models.Note {
	title := ""
	if strings.TrimSpace(content) == "" {
		title = "Journal " + dateKey
	}
	return s.createLocked(c, NewNote{
		ContactID:       s.contactZero,
		AuthorContactID: s.contactZero,
		Content:         content,
		Title:           title,
	}, models.KindLog, dateKey)
}
