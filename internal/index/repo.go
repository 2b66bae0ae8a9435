package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/berkana/internal/models"
)

// UpsertNote inserts or replaces a note together with its topic and link
// rows within a transaction.
func (db *DB) UpsertNote(n *models.Note, topicIDs, linkTargets []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, _ := json.Marshal(tags)

	_, err = tx.Exec(`
		INSERT INTO notes (id, contact_id, author_contact_id, kind, date_key, title, content, tags,
			folder_id, is_inbox, is_archived, sync_version, last_synced_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			contact_id        = excluded.contact_id,
			author_contact_id = excluded.author_contact_id,
			kind              = excluded.kind,
			date_key          = excluded.date_key,
			title             = excluded.title,
			content           = excluded.content,
			tags              = excluded.tags,
			folder_id         = excluded.folder_id,
			is_inbox          = excluded.is_inbox,
			is_archived       = excluded.is_archived,
			sync_version      = excluded.sync_version,
			last_synced_at    = excluded.last_synced_at,
			created_at        = excluded.created_at,
			updated_at        = excluded.updated_at
	`, n.ID, n.ContactID, n.AuthorContactID, string(n.Kind), n.DateKey, n.Title, n.Content, string(tagsJSON),
		n.FolderID, n.IsInbox, n.IsArchived, n.SyncVersion, nullTime(n.LastSyncedAt), n.CreatedAt.String(), nullTime(n.UpdatedAt))
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	_, _ = tx.Exec(`DELETE FROM note_topics WHERE note_id = ?`, n.ID)
	if len(topicIDs) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO note_topics (note_id, topic_id, position) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare topic insert: %w", err)
		}
		defer stmt.Close()
		for i, id := range topicIDs {
			if _, err := stmt.Exec(n.ID, id, i); err != nil {
				return fmt.Errorf("index: insert note topic: %w", err)
			}
		}
	}

	_, _ = tx.Exec(`DELETE FROM note_links WHERE source_note_id = ?`, n.ID)
	if len(linkTargets) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO note_links (source_note_id, target_note_id) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, target := range linkTargets {
			if _, err := stmt.Exec(n.ID, target); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteNote removes a note and every topic and link row touching it.
func (db *DB) DeleteNote(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, _ = tx.Exec(`DELETE FROM note_links WHERE source_note_id = ? OR target_note_id = ?`, id, id)
	_, _ = tx.Exec(`DELETE FROM note_topics WHERE note_id = ?`, id)
	_, _ = tx.Exec(`DELETE FROM notes WHERE id = ?`, id)

	return tx.Commit()
}

// UpsertTopic inserts a topic, or refreshes the label of the topic that
// already owns its slug.
func (db *DB) UpsertTopic(t models.Topic) error {
	_, err := db.conn.Exec(`
		INSERT INTO topics (id, label, slug, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET label = excluded.label
	`, t.ID, t.Label, t.Slug, t.CreatedAt.String())
	if err != nil {
		return fmt.Errorf("index: upsert topic: %w", err)
	}
	return nil
}

// LoadNotes returns every mirrored note, newest first.
func (db *DB) LoadNotes() ([]*models.Note, error) {
	rows, err := db.conn.Query(`
		SELECT id, contact_id, author_contact_id, kind, date_key, title, content, tags,
			folder_id, is_inbox, is_archived, sync_version, last_synced_at, created_at, updated_at
		FROM notes ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("index: load notes: %w", err)
	}
	defer rows.Close()

	var out []*models.Note
	for rows.Next() {
		var (
			n                   models.Note
			kind, tags, created string
			lastSynced, updated sql.NullString
		)
		if err := rows.Scan(&n.ID, &n.ContactID, &n.AuthorContactID, &kind, &n.DateKey, &n.Title, &n.Content, &tags,
			&n.FolderID, &n.IsInbox, &n.IsArchived, &n.SyncVersion, &lastSynced, &created, &updated); err != nil {
			return nil, fmt.Errorf("index: scan note: %w", err)
		}
		n.Kind = models.NoteKind(kind)
		if err := json.Unmarshal([]byte(tags), &n.Tags); err != nil {
			return nil, fmt.Errorf("index: note %s tags: %w", n.ID, err)
		}
		ts, err := parseTime(created)
		if err != nil {
			return nil, fmt.Errorf("index: note %s created_at: %w", n.ID, err)
		}
		n.CreatedAt = ts
		if n.LastSyncedAt, err = parseNullTime(lastSynced); err != nil {
			return nil, fmt.Errorf("index: note %s last_synced_at: %w", n.ID, err)
		}
		if n.UpdatedAt, err = parseNullTime(updated); err != nil {
			return nil, fmt.Errorf("index: note %s updated_at: %w", n.ID, err)
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

// LoadTopics returns every mirrored topic.
func (db *DB) LoadTopics() ([]models.Topic, error) {
	rows, err := db.conn.Query(`SELECT id, label, slug, created_at FROM topics ORDER BY label`)
	if err != nil {
		return nil, fmt.Errorf("index: load topics: %w", err)
	}
	defer rows.Close()

	var out []models.Topic
	for rows.Next() {
		var t models.Topic
		var created string
		if err := rows.Scan(&t.ID, &t.Label, &t.Slug, &created); err != nil {
			return nil, fmt.Errorf("index: scan topic: %w", err)
		}
		ts, err := parseTime(created)
		if err != nil {
			return nil, fmt.Errorf("index: topic %s created_at: %w", t.ID, err)
		}
		t.CreatedAt = ts
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountNotes returns the number of mirrored notes.
func (db *DB) CountNotes() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count notes: %w", err)
	}
	return n, nil
}

// HasImport reports whether a payload with checksum cs was imported before.
func (db *DB) HasImport(cs string) (bool, error) {
	var path string
	err := db.conn.QueryRow(`SELECT path FROM imports WHERE checksum = ?`, cs).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("index: lookup import: %w", err)
	}
	return true, nil
}

// RecordImport remembers that the payload with checksum cs was imported.
func (db *DB) RecordImport(cs, path string, count int) error {
	_, err := db.conn.Exec(`
		INSERT INTO imports (checksum, path, note_count, imported_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(checksum) DO UPDATE SET path = excluded.path, note_count = excluded.note_count, imported_at = excluded.imported_at
	`, cs, path, count, models.At(time.Now()).String())
	if err != nil {
		return fmt.Errorf("index: record import: %w", err)
	}
	return nil
}

func nullTime(ts *models.Timestamp) any {
	if ts == nil {
		return nil
	}
	return ts.String()
}

func parseTime(s string) (models.Timestamp, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return models.Timestamp{}, err
	}
	return models.At(t), nil
}

func parseNullTime(s sql.NullString) (*models.Timestamp, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	ts, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}
