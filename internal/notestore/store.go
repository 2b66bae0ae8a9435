// Package notestore is the system of record for notes. It owns the topic
// index and the link table and re-derives both from note content on every
// create and content update.
package notestore

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/berkana/internal/apperr"
	"github.com/starford/berkana/internal/links"
	"github.com/starford/berkana/internal/models"
	"github.com/starford/berkana/internal/parser"
	"github.com/starford/berkana/internal/topics"
)

// DefaultContactZeroID is the "self" contact used when no author is known.
const DefaultContactZeroID = "contact-zero"

// Store holds notes newest-first together with their derived indices.
// All methods are safe for concurrent use; a single mutex serializes them.
type Store struct {
	mu sync.Mutex

	now         func() time.Time
	newID       func() string
	contactZero string

	notes  []*models.Note // head = most recently inserted
	byID   map[string]*models.Note
	topics *topics.Index
	links  *links.Table

	obsMu     sync.RWMutex
	observers []Observer

	queueMu     sync.Mutex
	pending     []Event
	dispatching bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock. Tests use it to get stable timestamps.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

// WithIDGenerator overrides the note id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithContactZero sets the id of the "self" contact used as the default
// contact and author of journal entries and imported orphans.
func WithContactZero(id string) Option {
	return func(s *Store) {
		if id != "" {
			s.contactZero = id
		}
	}
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		now:         time.Now,
		newID:       func() string { return "note-" + uuid.NewString() },
		contactZero: DefaultContactZeroID,
		byID:        make(map[string]*models.Note),
		links:       links.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.topics = topics.New(topics.WithClock(s.now))
	return s
}

// ContactZero returns the configured "self" contact id.
func (s *Store) ContactZero() string { return s.contactZero }

// NewNote is the input of Create.
type NewNote struct {
	ContactID       string   `json:"contactId"`
	AuthorContactID string   `json:"authorContactId"`
	Content         string   `json:"content"`
	Title           string   `json:"title,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	FolderID        string   `json:"folderId,omitempty"`
	IsInbox         bool     `json:"isInbox,omitempty"`
}

// NoteUpdate lists the fields an update may change; nil means unchanged.
type NoteUpdate struct {
	Content    *string   `json:"content,omitempty"`
	Title      *string   `json:"title,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
	FolderID   *string   `json:"folderId,omitempty"`
	IsInbox    *bool     `json:"isInbox,omitempty"`
	IsArchived *bool     `json:"isArchived,omitempty"`
}

// Create stores a new note and derives its topics and links.
func (s *Store) Create(in NewNote) (*models.Note, error) {
	if in.ContactID == "" || in.AuthorContactID == "" {
		return nil, apperr.ErrMissingContact
	}
	s.mu.Lock()
	c := &change{}
	n := s.createLocked(c, in, models.KindNote, "")
	out := n.Clone()
	s.enqueue(c.events)
	s.mu.Unlock()

	s.flush()
	return out, nil
}

// Get returns the note with id.
func (s *Store) Get(id string) (*models.Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

// Update merges u into the note with id, bumps its sync version by one and,
// when the content changed hands, re-derives topics and links. It returns
// apperr.ErrNotFound for an unknown id.
func (s *Store) Update(id string, u NoteUpdate) (*models.Note, error) {
	s.mu.Lock()
	c := &change{}
	n, ok := s.updateLocked(c, id, u)
	var out *models.Note
	if ok {
		out = n.Clone()
	}
	s.enqueue(c.events)
	s.mu.Unlock()

	s.flush()
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return out, nil
}

// UpdateIfVersion is Update guarded by an expected sync version. It returns
// apperr.ErrConflict, and changes nothing, when the stored note's version
// differs from version.
func (s *Store) UpdateIfVersion(id string, version int, u NoteUpdate) (*models.Note, error) {
	s.mu.Lock()
	cur, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return nil, apperr.ErrNotFound
	}
	if cur.SyncVersion != version {
		s.mu.Unlock()
		return nil, apperr.ErrConflict
	}
	c := &change{}
	n, _ := s.updateLocked(c, id, u)
	out := n.Clone()
	s.enqueue(c.events)
	s.mu.Unlock()

	s.flush()
	return out, nil
}

// Delete removes the note with id and every topic and link row that
// references it. It reports whether a note was removed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	c := &change{}
	ok := s.deleteLocked(c, id)
	s.enqueue(c.events)
	s.mu.Unlock()

	s.flush()
	return ok
}

// All returns every note, newest first.
func (s *Store) All() []*models.Note {
	return s.filter(func(*models.Note) bool { return true })
}

// ByContact returns the notes about contactID, newest first.
func (s *Store) ByContact(contactID string) []*models.Note {
	return s.filter(func(n *models.Note) bool { return n.ContactID == contactID })
}

// ByAuthor returns the notes written by authorID, newest first.
func (s *Store) ByAuthor(authorID string) []*models.Note {
	return s.filter(func(n *models.Note) bool { return n.AuthorContactID == authorID })
}

// ByFolder returns the non-archived notes in folderID, newest first.
func (s *Store) ByFolder(folderID string) []*models.Note {
	return s.filter(func(n *models.Note) bool { return n.FolderID == folderID && !n.IsArchived })
}

// ByDate returns the notes whose ISO createdAt starts with dateKey
// (normally YYYY-MM-DD), newest first.
func (s *Store) ByDate(dateKey string) []*models.Note {
	return s.filter(func(n *models.Note) bool { return strings.HasPrefix(n.CreatedAt.String(), dateKey) })
}

// Search returns notes whose title or content contains query,
// case-insensitively. Results are newest first and unranked.
func (s *Store) Search(query string) []*models.Note {
	q := strings.ToLower(query)
	return s.filter(func(n *models.Note) bool {
		return strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Content), q)
	})
}

// Len returns the number of notes.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notes)
}

// Stats counts what the store holds.
type Stats struct {
	Notes  int `json:"notes"`
	Topics int `json:"topics"`
	Links  int `json:"links"`
}

// Stats returns the note, topic and link row counts under one lock.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Notes: len(s.notes), Topics: s.topics.Len(), Links: s.links.Len()}
}

func (s *Store) filter(keep func(*models.Note) bool) []*models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Note
	for _, n := range s.notes {
		if keep(n) {
			out = append(out, n.Clone())
		}
	}
	sortNewestFirst(out)
	return out
}

// sortNewestFirst orders notes by createdAt descending. The sort is stable,
// so equal timestamps keep store order (most recently inserted first).
func sortNewestFirst(ns []*models.Note) {
	sort.SliceStable(ns, func(i, j int) bool {
		return ns[i].CreatedAt.UnixMilli() > ns[j].CreatedAt.UnixMilli()
	})
}

func (s *Store) timestamp() models.Timestamp {
	return models.At(s.now())
}

// createLocked builds and inserts a note, then derives its topics and links.
func (s *Store) createLocked(c *change, in NewNote, kind models.NoteKind, dateKey string) *models.Note {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = parser.DeriveTitle(in.Content)
	}
	folder := in.FolderID
	if folder == "" {
		folder = models.DefaultFolderID
	}
	tags := append([]string{}, in.Tags...)

	n := &models.Note{
		ID:              s.newID(),
		ContactID:       in.ContactID,
		AuthorContactID: in.AuthorContactID,
		Kind:            kind,
		DateKey:         dateKey,
		Title:           title,
		Content:         in.Content,
		Tags:            tags,
		FolderID:        folder,
		IsInbox:         in.IsInbox,
		SyncVersion:     1,
		CreatedAt:       s.timestamp(),
	}
	s.insertLocked(n)
	s.deriveLocked(c, n)
	c.add(s.noteEvent(EventNoteCreated, n))
	return n
}

func (s *Store) insertLocked(n *models.Note) {
	s.notes = append([]*models.Note{n}, s.notes...)
	s.byID[n.ID] = n
}

func (s *Store) updateLocked(c *change, id string, u NoteUpdate) (*models.Note, bool) {
	n, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	if u.Content != nil {
		n.Content = *u.Content
	}
	if u.Title != nil {
		n.Title = *u.Title
	}
	if u.Tags != nil {
		n.Tags = append([]string{}, (*u.Tags)...)
	}
	if u.FolderID != nil {
		n.FolderID = *u.FolderID
	}
	if u.IsInbox != nil {
		n.IsInbox = *u.IsInbox
	}
	if u.IsArchived != nil {
		n.IsArchived = *u.IsArchived
	}
	ts := s.timestamp()
	n.UpdatedAt = &ts
	n.SyncVersion++

	if u.Content != nil {
		s.deriveLocked(c, n)
	}
	c.add(s.noteEvent(EventNoteUpdated, n))
	return n, true
}

func (s *Store) deleteLocked(c *change, id string) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	for i, n := range s.notes {
		if n.ID == id {
			s.notes = append(s.notes[:i], s.notes[i+1:]...)
			break
		}
	}
	s.topics.Unlink(id)
	s.links.RemoveNote(id)
	c.add(Event{Kind: EventNoteDeleted, NoteID: id})
	return true
}
