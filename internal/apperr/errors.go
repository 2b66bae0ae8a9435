// Package apperr holds the sentinel errors shared across Berkana packages.
package apperr

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("sync version mismatch")

	// Import errors. The messages are user facing and must stay byte-exact.
	ErrInvalidJSON   = errors.New("Invalid JSON format")
	ErrInvalidExport = errors.New("Invalid export format: missing notes array")
	ErrInvalidNote   = errors.New("Invalid export format: malformed note")

	ErrEmptyTopicLabel = errors.New("topic label is empty")
	ErrMissingContact  = errors.New("note requires contactId and authorContactId")
)
