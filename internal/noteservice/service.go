// Package noteservice is the application layer shared by the REST API, the
// MCP server and the CLI. It wraps the note store with not-found handling,
// graph building and export files.
package noteservice

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/starford/berkana/internal/apperr"
	"github.com/starford/berkana/internal/graph"
	"github.com/starford/berkana/internal/models"
	"github.com/starford/berkana/internal/notestore"
	"github.com/starford/berkana/internal/storage"
)

// NoteRef is a lightweight pointer to a related note.
type NoteRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// NoteDetail is a note together with its derived topics and links.
type NoteDetail struct {
	*models.Note
	Topics       []models.Topic `json:"topics"`
	ForwardLinks []NoteRef      `json:"forwardLinks"`
	Backlinks    []NoteRef      `json:"backlinks"`
}

// NoteFilter narrows ListNotes. Empty fields do not filter; set fields are
// combined with AND.
type NoteFilter struct {
	ContactID string
	AuthorID  string
	FolderID  string
	Date      string
}

// Service coordinates the note store, the graph builder and export files.
type Service struct {
	store          *notestore.Store
	files          storage.Provider
	exportDir      string
	importDefaults notestore.ImportOptions
	logger         *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithFiles enables export snapshots written under dir of the vault.
func WithFiles(files storage.Provider, dir string) Option {
	return func(s *Service) {
		s.files = files
		s.exportDir = dir
	}
}

// WithImportDefaults sets the options used when a caller does not pass any.
func WithImportDefaults(opts notestore.ImportOptions) Option {
	return func(s *Service) { s.importDefaults = opts }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a new note service over store.
func NewService(store *notestore.Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the underlying note store.
func (s *Service) Store() *notestore.Store { return s.store }

// ImportDefaults returns the configured default import options.
func (s *Service) ImportDefaults() notestore.ImportOptions { return s.importDefaults }

// ListNotes returns the notes matching f, newest first.
func (s *Service) ListNotes(_ context.Context, f NoteFilter) []*models.Note {
	var lists [][]*models.Note
	if f.ContactID != "" {
		lists = append(lists, s.store.ByContact(f.ContactID))
	}
	if f.AuthorID != "" {
		lists = append(lists, s.store.ByAuthor(f.AuthorID))
	}
	if f.FolderID != "" {
		lists = append(lists, s.store.ByFolder(f.FolderID))
	}
	if f.Date != "" {
		lists = append(lists, s.store.ByDate(f.Date))
	}
	if len(lists) == 0 {
		return nonNilSlice(s.store.All())
	}
	return nonNilSlice(intersect(lists))
}

// GetNote returns a note with its topics, forward links and backlinks.
func (s *Service) GetNote(_ context.Context, id string) (*NoteDetail, error) {
	n, ok := s.store.Get(id)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &NoteDetail{
		Note:         n,
		Topics:       nonNilSlice(s.store.TopicsForNote(id)),
		ForwardLinks: refs(s.store.ForwardLinks(id)),
		Backlinks:    refs(s.store.Backlinks(id)),
	}, nil
}

// CreateNote stores a new note.
func (s *Service) CreateNote(_ context.Context, in notestore.NewNote) (*models.Note, error) {
	return s.store.Create(in)
}

// UpdateNote merges u into note id. A positive ifVersion enables optimistic
// concurrency: the update fails with apperr.ErrConflict unless the stored
// sync version equals it.
func (s *Service) UpdateNote(_ context.Context, id string, u notestore.NoteUpdate, ifVersion int) (*models.Note, error) {
	if ifVersion > 0 {
		return s.store.UpdateIfVersion(id, ifVersion, u)
	}
	return s.store.Update(id, u)
}

// DeleteNote removes note id and its derived rows.
func (s *Service) DeleteNote(_ context.Context, id string) error {
	if !s.store.Delete(id) {
		return apperr.ErrNotFound
	}
	return nil
}

// Search returns the notes whose title or content contains query.
func (s *Service) Search(_ context.Context, query string) []*models.Note {
	return nonNilSlice(s.store.Search(query))
}

// ForwardLinks returns the notes id links to.
func (s *Service) ForwardLinks(_ context.Context, id string) ([]*models.Note, error) {
	if _, ok := s.store.Get(id); !ok {
		return nil, apperr.ErrNotFound
	}
	return nonNilSlice(s.store.ForwardLinks(id)), nil
}

// Backlinks returns the notes that link to id.
func (s *Service) Backlinks(_ context.Context, id string) ([]*models.Note, error) {
	if _, ok := s.store.Get(id); !ok {
		return nil, apperr.ErrNotFound
	}
	return nonNilSlice(s.store.Backlinks(id)), nil
}

// NoteTopics returns the topics of note id.
func (s *Service) NoteTopics(_ context.Context, id string) ([]models.Topic, error) {
	if _, ok := s.store.Get(id); !ok {
		return nil, apperr.ErrNotFound
	}
	return nonNilSlice(s.store.TopicsForNote(id)), nil
}

// Wikilinks resolves the [[Label]] tokens of note id to the notes and
// topics they currently point at.
func (s *Service) Wikilinks(_ context.Context, id string) ([]notestore.WikilinkTarget, error) {
	targets, ok := s.store.Wikilinks(id)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return nonNilSlice(targets), nil
}

// Links returns every note link.
func (s *Service) Links(_ context.Context) []models.NoteLink {
	return nonNilSlice(s.store.Links())
}

// Journal returns the journal note of date's day, creating it on first use.
func (s *Service) Journal(_ context.Context, date time.Time) *models.Note {
	return s.store.JournalForDate(date)
}

// AddJournalEntry stores a log entry for dateKey.
func (s *Service) AddJournalEntry(_ context.Context, dateKey, content string) *models.Note {
	return s.store.CreateLogEntry(dateKey, content)
}

// JournalEntries returns the log entries of dateKey.
func (s *Service) JournalEntries(_ context.Context, dateKey string) []*models.Note {
	return nonNilSlice(s.store.LogEntriesByDate(dateKey))
}

// Topics returns every topic sorted by label.
func (s *Service) Topics(_ context.Context) []models.Topic {
	return nonNilSlice(s.store.Topics())
}

// Topic looks a topic up by slug or label.
func (s *Service) Topic(_ context.Context, slug string) (models.Topic, error) {
	t, ok := s.store.TopicBySlug(slug)
	if !ok {
		return models.Topic{}, apperr.ErrNotFound
	}
	return t, nil
}

// TopicNotes returns the notes linked to the topic with slug.
func (s *Service) TopicNotes(ctx context.Context, slug string) ([]*models.Note, error) {
	t, err := s.Topic(ctx, slug)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(s.store.NotesForTopic(t.ID)), nil
}

// CreateTopic returns the topic for label, creating it when absent.
func (s *Service) CreateTopic(_ context.Context, label string) (models.Topic, error) {
	return s.store.GetOrCreateTopic(label)
}

// ContactTopics returns the topics of the notes about contactID.
func (s *Service) ContactTopics(_ context.Context, contactID string) []models.Topic {
	return nonNilSlice(s.store.TopicsForContact(contactID))
}

// AuthorTopics returns the topics of the notes written by authorID.
func (s *Service) AuthorTopics(_ context.Context, authorID string) []models.Topic {
	return nonNilSlice(s.store.TopicsForAuthor(authorID))
}

// Graph materializes inline topics and then builds the graph.
func (s *Service) Graph(_ context.Context) (models.Graph, error) {
	inline, err := graph.EnsureInlineTopics(s.store)
	if err != nil {
		return models.Graph{}, fmt.Errorf("noteservice: graph: %w", err)
	}
	return graph.Build(graph.Snapshot{State: s.store.State(), Inline: inline}), nil
}

// BulkCreate creates every note in ins, or none when one is invalid.
func (s *Service) BulkCreate(_ context.Context, ins []notestore.NewNote) ([]*models.Note, error) {
	return s.store.BulkCreate(ins)
}

// BulkUpdate applies each entry independently.
func (s *Service) BulkUpdate(_ context.Context, entries []notestore.BulkUpdate) []notestore.BulkResult {
	return s.store.BulkUpdate(entries)
}

// BulkDelete deletes each id independently.
func (s *Service) BulkDelete(_ context.Context, ids []string) []bool {
	return s.store.BulkDelete(ids)
}

// Export returns the export JSON of ids, or of every note when ids is nil.
func (s *Service) Export(_ context.Context, ids []string) ([]byte, error) {
	return s.store.ExportJSON(ids)
}

// ExportToVault writes Export(ids) to the vault's export directory and
// returns the path written, relative to the vault root.
func (s *Service) ExportToVault(ctx context.Context, ids []string) (string, error) {
	if s.files == nil {
		return "", fmt.Errorf("noteservice: export: no vault configured")
	}
	data, err := s.Export(ctx, ids)
	if err != nil {
		return "", err
	}
	name := "berkana-export-" + time.Now().UTC().Format("20060102T150405.000Z") + ".json"
	rel := path.Join(s.exportDir, name)
	if err := s.files.Write(rel, data); err != nil {
		return "", fmt.Errorf("noteservice: export: %w", err)
	}
	s.logger.Info("export written", slog.String("path", rel), slog.Int("bytes", len(data)))
	return rel, nil
}

// Import imports an export payload with opts.
func (s *Service) Import(_ context.Context, data []byte, opts notestore.ImportOptions) ([]*models.Note, error) {
	notes, err := s.store.ImportJSON(data, opts)
	if err != nil {
		return nil, err
	}
	s.logger.Info("import done", slog.Int("notes", len(notes)),
		slog.Bool("overwrite", opts.Overwrite), slog.Bool("generate_new_ids", opts.GenerateNewIDs))
	return nonNilSlice(notes), nil
}

func intersect(lists [][]*models.Note) []*models.Note {
	counts := make(map[string]int)
	for _, l := range lists {
		for _, n := range l {
			counts[n.ID]++
		}
	}
	var out []*models.Note
	for _, n := range lists[0] {
		if counts[n.ID] == len(lists) {
			out = append(out, n)
		}
	}
	return out
}

func refs(ns []*models.Note) []NoteRef {
	out := make([]NoteRef, len(ns))
	for i, n := range ns {
		out[i] = NoteRef{ID: n.ID, Title: n.Title}
	}
	return out
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
