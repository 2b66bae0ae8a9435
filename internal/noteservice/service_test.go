package noteservice

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/starford/berkana/internal/apperr"
	"github.com/starford/berkana/internal/notestore"
	"github.com/starford/berkana/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	files, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewService(notestore.New(), WithFiles(files, "exports"))
}

func mustCreate(t *testing.T, svc *Service, in notestore.NewNote) string {
	t.Helper()
	if in.ContactID == "" {
		in.ContactID = "contact-1"
	}
	if in.AuthorContactID == "" {
		in.AuthorContactID = "me"
	}
	n, err := svc.CreateNote(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	return n.ID
}

func TestGetNote_Detail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	target := mustCreate(t, svc, notestore.NewNote{Title: "Target", Content: "x"})
	src := mustCreate(t, svc, notestore.NewNote{Content: "see [[Target]]"})

	d, err := svc.GetNote(ctx, target)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Backlinks) != 1 || d.Backlinks[0].ID != src {
		t.Errorf("backlinks = %+v", d.Backlinks)
	}
	if len(d.ForwardLinks) != 0 || d.Topics == nil {
		t.Errorf("detail = %+v", d)
	}

	data, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(data, &m)
	if m["id"] != target || m["sync_version"] != float64(1) {
		t.Errorf("detail JSON should flatten the note: %s", data)
	}

	if _, err := svc.GetNote(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListNotes_CombinesFilters(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	a := mustCreate(t, svc, notestore.NewNote{ContactID: "ana", AuthorContactID: "me", FolderID: "work", Content: "a"})
	mustCreate(t, svc, notestore.NewNote{ContactID: "ana", AuthorContactID: "bo", FolderID: "work", Content: "b"})
	mustCreate(t, svc, notestore.NewNote{ContactID: "cy", AuthorContactID: "me", FolderID: "work", Content: "c"})

	got := svc.ListNotes(ctx, NoteFilter{ContactID: "ana", AuthorID: "me"})
	if len(got) != 1 || got[0].ID != a {
		t.Errorf("ListNotes = %+v", got)
	}
	if got := svc.ListNotes(ctx, NoteFilter{FolderID: "work"}); len(got) != 3 {
		t.Errorf("folder filter = %d, want 3", len(got))
	}
	if got := svc.ListNotes(ctx, NoteFilter{ContactID: "nobody"}); got == nil || len(got) != 0 {
		t.Errorf("empty result should be a non-nil empty slice, got %#v", got)
	}
}

func TestUpdateNote_IfVersion(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	id := mustCreate(t, svc, notestore.NewNote{Content: "v1"})
	content := "v2"

	if _, err := svc.UpdateNote(ctx, id, notestore.NoteUpdate{Content: &content}, 3); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
	n, err := svc.UpdateNote(ctx, id, notestore.NoteUpdate{Content: &content}, 1)
	if err != nil || n.SyncVersion != 2 {
		t.Errorf("UpdateNote = %+v, %v", n, err)
	}
	if _, err := svc.UpdateNote(ctx, "missing", notestore.NoteUpdate{}, 0); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteNote_NotFound(t *testing.T) {
	svc := newTestService(t)
	if err := svc.DeleteNote(context.Background(), "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestGraph_MaterializesInlineTopics(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, notestore.NewNote{ContactID: "ana", Content: "Loves #gardening", Tags: []string{"family"}})

	if got := len(svc.Topics(ctx)); got != 0 {
		t.Fatalf("topics before graph = %d, want 0", got)
	}
	g, err := svc.Graph(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(svc.Topics(ctx)); got != 2 {
		t.Errorf("topics after graph = %d, want 2", got)
	}
	// note, two topics, one contact
	if len(g.Nodes) != 4 {
		t.Errorf("nodes = %+v", g.Nodes)
	}
	// about, 2x note-topic, 2x topic-contact
	if len(g.Edges) != 5 {
		t.Errorf("edges = %+v", g.Edges)
	}
}

func TestTopicNotes(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	id := mustCreate(t, svc, notestore.NewNote{Content: "[[Cooking]]"})

	notes, err := svc.TopicNotes(ctx, "cooking")
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0].ID != id {
		t.Errorf("TopicNotes = %+v", notes)
	}
	if _, err := svc.TopicNotes(ctx, "unknown"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestExportToVaultAndImport(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	id := mustCreate(t, svc, notestore.NewNote{Content: "keep me"})

	rel, err := svc.ExportToVault(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	data, err := svc.files.Read(rel)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}

	got, err := svc.Import(ctx, data, notestore.ImportOptions{GenerateNewIDs: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID == id {
		t.Errorf("import = %+v", got)
	}
	if n := len(svc.ListNotes(ctx, NoteFilter{})); n != 2 {
		t.Errorf("notes = %d, want 2", n)
	}
}

func TestExportToVault_NoFiles(t *testing.T) {
	svc := NewService(notestore.New())
	if _, err := svc.ExportToVault(context.Background(), nil); err == nil {
		t.Error("expected error without a vault")
	}
}
