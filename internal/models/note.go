// Package models defines the domain types for Berkana.
package models

import "slices"

// NoteKind distinguishes regular notes from journal entries.
type NoteKind string

const (
	KindNote NoteKind = "note"
	KindLog  NoteKind = "log"
)

// DefaultFolderID is the folder a note lands in when none is given.
const DefaultFolderID = "inbox"

// Note is a free-text note about a contact. Field names are part of the
// export format and must not change.
type Note struct {
	ID              string     `json:"id"`
	ContactID       string     `json:"contactId"`
	AuthorContactID string     `json:"authorContactId"`
	Kind            NoteKind   `json:"kind"`
	DateKey         string     `json:"dateKey,omitempty"`
	Title           string     `json:"title"`
	Content         string     `json:"content"`
	Tags            []string   `json:"tags"`
	FolderID        string     `json:"folderId"`
	IsInbox         bool       `json:"isInbox"`
	IsArchived      bool       `json:"isArchived"`
	SyncVersion     int        `json:"sync_version"`
	LastSyncedAt    *Timestamp `json:"last_synced_at,omitempty"`
	CreatedAt       Timestamp  `json:"createdAt"`
	UpdatedAt       *Timestamp `json:"updatedAt"`
}

// Clone returns a deep copy of n.
func (n *Note) Clone() *Note {
	c := *n
	c.Tags = slices.Clone(n.Tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if n.LastSyncedAt != nil {
		ts := *n.LastSyncedAt
		c.LastSyncedAt = &ts
	}
	if n.UpdatedAt != nil {
		ts := *n.UpdatedAt
		c.UpdatedAt = &ts
	}
	return &c
}

// Topic is a normalized label referenced from note content.
type Topic struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Slug      string    `json:"slug"`
	CreatedAt Timestamp `json:"createdAt"`
}

// NoteTopic joins a note to a topic.
type NoteTopic struct {
	NoteID  string `json:"noteId"`
	TopicID string `json:"topicId"`
}

// NoteLink is a directed wikilink reference between two notes.
type NoteLink struct {
	SourceNoteID string `json:"sourceNoteId"`
	TargetNoteID string `json:"targetNoteId"`
}

// ExportVersion is the version written into every export envelope.
const ExportVersion = "1.0"

// Export is the JSON envelope produced by note export and accepted by import.
type Export struct {
	Version    string    `json:"version"`
	ExportedAt Timestamp `json:"exportedAt"`
	NoteCount  int       `json:"noteCount"`
	Notes      []*Note   `json:"notes"`
}
