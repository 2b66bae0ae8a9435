// Package links maintains the directed note-to-note link table that backs
// forward links and backlinks.
//
// A Table is not safe for concurrent use; the note store serializes access.
package links

import "github.com/starford/berkana/internal/models"

// Table stores deduplicated, non-self-referencing links.
type Table struct {
	out map[string][]string // source -> targets, insertion order
	in  map[string][]string // target -> sources, insertion order
	n   int
}

// New returns an empty link table.
func New() *Table {
	return &Table{
		out: make(map[string][]string),
		in:  make(map[string][]string),
	}
}

// Replace drops every outgoing link of source and inserts links to targets.
// Duplicate targets and self references are skipped.
func (t *Table) Replace(source string, targets []string) {
	t.clearOutgoing(source)
	for _, target := range targets {
		t.add(source, target)
	}
}

// RemoveNote drops every link that has id as source or target.
func (t *Table) RemoveNote(id string) {
	t.clearOutgoing(id)
	for _, src := range t.in[id] {
		t.out[src] = without(t.out[src], id)
		if len(t.out[src]) == 0 {
			delete(t.out, src)
		}
		t.n--
	}
	delete(t.in, id)
}

// Outgoing returns the targets source links to, in insertion order.
func (t *Table) Outgoing(source string) []string {
	return append([]string(nil), t.out[source]...)
}

// Incoming returns the sources that link to target, in insertion order.
func (t *Table) Incoming(target string) []string {
	return append([]string(nil), t.in[target]...)
}

// Has reports whether the link source -> target exists.
func (t *Table) Has(source, target string) bool {
	for _, id := range t.out[source] {
		if id == target {
			return true
		}
	}
	return false
}

// All returns every link. Rows are emitted per source in the order given by
// sources, so callers control determinism; sources absent from the table
// are skipped.
func (t *Table) All(sources []string) []models.NoteLink {
	out := make([]models.NoteLink, 0, t.n)
	for _, src := range sources {
		for _, target := range t.out[src] {
			out = append(out, models.NoteLink{SourceNoteID: src, TargetNoteID: target})
		}
	}
	return out
}

// Len returns the number of links.
func (t *Table) Len() int { return t.n }

func (t *Table) add(source, target string) {
	if source == "" || target == "" || source == target || t.Has(source, target) {
		return
	}
	t.out[source] = append(t.out[source], target)
	t.in[target] = append(t.in[target], source)
	t.n++
}

func (t *Table) clearOutgoing(source string) {
	for _, target := range t.out[source] {
		t.in[target] = without(t.in[target], source)
		if len(t.in[target]) == 0 {
			delete(t.in, target)
		}
		t.n--
	}
	delete(t.out, source)
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
