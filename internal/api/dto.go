package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/berkana/internal/models"
	"github.com/starford/berkana/internal/noteservice"
	"github.com/starford/berkana/internal/notestore"
)

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	ContactID       string   `json:"contactId" example:"contact-42" validate:"required"`
	AuthorContactID string   `json:"authorContactId" example:"contact-zero" validate:"required"`
	Content         string   `json:"content" example:"Talked about [[Garden Design]]"`
	Title           string   `json:"title,omitempty" example:"Lunch with Ana"`
	Tags            []string `json:"tags,omitempty"`
	FolderID        string   `json:"folderId,omitempty" example:"inbox"`
	IsInbox         bool     `json:"isInbox,omitempty"`
}

// Validate implements validation.Validatable.
func (r CreateNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ContactID, validation.Required),
		validation.Field(&r.AuthorContactID, validation.Required),
		validation.Field(&r.Tags, validation.Each(validation.Required)),
	)
}

func (r CreateNoteRequest) toNewNote() notestore.NewNote {
	return notestore.NewNote{
		ContactID:       r.ContactID,
		AuthorContactID: r.AuthorContactID,
		Content:         r.Content,
		Title:           r.Title,
		Tags:            r.Tags,
		FolderID:        r.FolderID,
		IsInbox:         r.IsInbox,
	}
}

// UpdateNoteRequest is the request body for updating a note. Omitted fields
// are left unchanged.
type UpdateNoteRequest struct {
	notestore.NoteUpdate
}

// Validate implements validation.Validatable.
func (r UpdateNoteRequest) Validate() error {
	u := r.NoteUpdate
	return validation.ValidateStruct(&u,
		validation.Field(&u.Title, validation.NilOrNotEmpty),
		validation.Field(&u.FolderID, validation.NilOrNotEmpty),
	)
}

// BulkCreateRequest is the request body for POST /notes/bulk.
type BulkCreateRequest struct {
	Notes []CreateNoteRequest `json:"notes" validate:"required"`
}

// Validate implements validation.Validatable.
func (r BulkCreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Notes, validation.NotNil),
	)
}

// BulkUpdateEntry is one entry of a bulk update.
type BulkUpdateEntry struct {
	NoteID  string               `json:"noteId" validate:"required"`
	Updates notestore.NoteUpdate `json:"updates"`
}

// Validate implements validation.Validatable.
func (e BulkUpdateEntry) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.NoteID, validation.Required),
	)
}

// BulkUpdateRequest is the request body for PATCH /notes/bulk.
type BulkUpdateRequest struct {
	Updates []BulkUpdateEntry `json:"updates" validate:"required"`
}

// Validate implements validation.Validatable.
func (r BulkUpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Updates, validation.NotNil),
	)
}

// BulkUpdateResponse holds one entry per request entry, in order. A null
// note marks an unknown id.
type BulkUpdateResponse struct {
	Notes []*models.Note `json:"notes" validate:"required"`
}

// IDsRequest carries a list of note ids.
type IDsRequest struct {
	IDs []string `json:"ids"`
}

// Validate implements validation.Validatable.
func (r IDsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IDs, validation.NotNil, validation.Each(validation.Required)),
	)
}

// BulkDeleteResponse reports per id whether a note was removed.
type BulkDeleteResponse struct {
	Results []bool `json:"results" example:"true,false" validate:"required"`
}

// ExportRequest selects the notes to export. Omitted or null ids export
// every note.
type ExportRequest struct {
	IDs []string `json:"ids"`
}

// ImportResponse is returned after an import.
type ImportResponse struct {
	Imported int            `json:"imported" example:"3" validate:"required"`
	Notes    []*models.Note `json:"notes" validate:"required"`
}

// JournalEntryRequest is the request body for POST /journal/{date}/entries.
type JournalEntryRequest struct {
	Content string `json:"content" example:"Morning run, 5k"`
}

// CreateTopicRequest is the request body for POST /topics.
type CreateTopicRequest struct {
	Label string `json:"label" example:"Garden Design" validate:"required"`
}

// Validate implements validation.Validatable.
func (r CreateTopicRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Label, validation.Required),
	)
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []*models.Note `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// TopicListResponse wraps topic listings.
type TopicListResponse struct {
	Topics []models.Topic `json:"topics" validate:"required"`
}

// WikilinkListResponse lists the resolved wikilink targets of one note.
type WikilinkListResponse struct {
	Targets []notestore.WikilinkTarget `json:"targets"`
}

// LinkListResponse wraps the link table.
type LinkListResponse struct {
	Links []models.NoteLink `json:"links" validate:"required"`
}
