package index

import (
	"fmt"
	"log/slog"

	"github.com/starford/berkana/internal/models"
	"github.com/starford/berkana/internal/notestore"
)

// Mirror is the write side of the SQLite mirror. Consumers depend on it
// rather than on *DB so they can be tested without SQLite.
type Mirror interface {
	UpsertNote(n *models.Note, topicIDs, linkTargets []string) error
	DeleteNote(id string) error
	UpsertTopic(t models.Topic) error
}

// Verify *DB satisfies Mirror at compile time.
var _ Mirror = (*DB)(nil)

// Follow returns a store observer that writes every change to m. Failures
// are logged and otherwise ignored; the store remains authoritative.
func Follow(m Mirror, logger *slog.Logger) notestore.Observer {
	return func(ev notestore.Event) {
		var err error
		switch ev.Kind {
		case notestore.EventNoteCreated, notestore.EventNoteUpdated:
			err = m.UpsertNote(ev.Note, ev.TopicIDs, ev.LinkTargets)
		case notestore.EventNoteDeleted:
			err = m.DeleteNote(ev.NoteID)
		case notestore.EventTopicCreated:
			if ev.Topic != nil {
				err = m.UpsertTopic(*ev.Topic)
			}
		}
		if err != nil {
			logger.Warn("mirror: write failed",
				slog.String("event", string(ev.Kind)),
				slog.String("note", ev.NoteID),
				slog.String("error", err.Error()))
		}
	}
}

// Restore loads the mirrored topics and notes into an empty store.
func Restore(db *DB, store *notestore.Store, logger *slog.Logger) error {
	topics, err := db.LoadTopics()
	if err != nil {
		return fmt.Errorf("index: restore: %w", err)
	}
	notes, err := db.LoadNotes()
	if err != nil {
		return fmt.Errorf("index: restore: %w", err)
	}
	store.Restore(notes, topics)
	logger.Info("mirror: restored",
		slog.Int("notes", len(notes)),
		slog.Int("topics", len(topics)))
	return nil
}
