// Package index mirrors the note store into SQLite and feeds the import
// inbox. The store stays the system of record; the mirror is written after
// every change and read back once at startup.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	id                TEXT PRIMARY KEY,
	contact_id        TEXT NOT NULL,
	author_contact_id TEXT NOT NULL,
	kind              TEXT NOT NULL DEFAULT 'note',
	date_key          TEXT NOT NULL DEFAULT '',
	title             TEXT NOT NULL DEFAULT '',
	content           TEXT NOT NULL DEFAULT '',
	tags              TEXT NOT NULL DEFAULT '[]',
	folder_id         TEXT NOT NULL DEFAULT '',
	is_inbox          INTEGER NOT NULL DEFAULT 0,
	is_archived       INTEGER NOT NULL DEFAULT 0,
	sync_version      INTEGER NOT NULL DEFAULT 1,
	last_synced_at    TEXT,
	created_at        TEXT NOT NULL,
	updated_at        TEXT
);

CREATE INDEX IF NOT EXISTS idx_notes_contact ON notes(contact_id);
CREATE INDEX IF NOT EXISTS idx_notes_author ON notes(author_contact_id);

CREATE TABLE IF NOT EXISTS topics (
	id         TEXT PRIMARY KEY,
	label      TEXT NOT NULL,
	slug       TEXT NOT NULL UNIQUE,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS note_topics (
	note_id  TEXT NOT NULL,
	topic_id TEXT NOT NULL,
	position INTEGER NOT NULL DEFAULT 0,
	UNIQUE(note_id, topic_id)
);

CREATE INDEX IF NOT EXISTS idx_note_topics_topic ON note_topics(topic_id);

CREATE TABLE IF NOT EXISTS note_links (
	source_note_id TEXT NOT NULL,
	target_note_id TEXT NOT NULL,
	UNIQUE(source_note_id, target_note_id)
);

CREATE INDEX IF NOT EXISTS idx_note_links_source ON note_links(source_note_id);
CREATE INDEX IF NOT EXISTS idx_note_links_target ON note_links(target_note_id);

CREATE TABLE IF NOT EXISTS imports (
	checksum    TEXT PRIMARY KEY,
	path        TEXT NOT NULL,
	note_count  INTEGER NOT NULL DEFAULT 0,
	imported_at TEXT NOT NULL
);
`

// DB wraps a sql.DB with mirror-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
