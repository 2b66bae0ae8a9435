package notestore

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/starford/berkana/internal/apperr"
	"github.com/starford/berkana/internal/models"
)

// testStore returns a store with sequential ids and a clock that advances
// one second per call, starting at 2024-03-01T09:00:00Z.
func testStore(t *testing.T) *Store {
	t.Helper()
	var mu sync.Mutex
	seq := 0
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return New(
		WithIDGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			seq++
			return fmt.Sprintf("note-%d", seq)
		}),
		WithClock(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			clock = clock.Add(time.Second)
			return clock
		}),
	)
}

func mustCreate(t *testing.T, s *Store, in NewNote) *models.Note {
	t.Helper()
	if in.ContactID == "" {
		in.ContactID = "contact-1"
	}
	if in.AuthorContactID == "" {
		in.AuthorContactID = "contact-zero"
	}
	n, err := s.Create(in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return n
}

func ids(ns []*models.Note) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.ID
	}
	return out
}

func containsID(ns []*models.Note, id string) bool {
	for _, n := range ns {
		if n.ID == id {
			return true
		}
	}
	return false
}

func TestCreate_Defaults(t *testing.T) {
	s := testStore(t)
	n := mustCreate(t, s, NewNote{ContactID: "c1", AuthorContactID: "me", Content: "Coffee with Ana\nshe moved to Lisbon"})

	if n.ContactID != "c1" || n.AuthorContactID != "me" {
		t.Errorf("contact/author = %q/%q", n.ContactID, n.AuthorContactID)
	}
	if n.Title != "Coffee with Ana" {
		t.Errorf("title = %q", n.Title)
	}
	if n.Kind != models.KindNote {
		t.Errorf("kind = %q", n.Kind)
	}
	if n.FolderID != models.DefaultFolderID {
		t.Errorf("folderId = %q, want %q", n.FolderID, models.DefaultFolderID)
	}
	if n.SyncVersion != 1 {
		t.Errorf("sync_version = %d, want 1", n.SyncVersion)
	}
	if n.UpdatedAt != nil {
		t.Errorf("updatedAt = %v, want nil", n.UpdatedAt)
	}
	if n.LastSyncedAt != nil {
		t.Errorf("last_synced_at should be unset")
	}
	if n.Tags == nil {
		t.Error("tags should be an empty slice, not nil")
	}
}

func TestCreate_MissingContact(t *testing.T) {
	s := testStore(t)
	for _, in := range []NewNote{
		{AuthorContactID: "me"},
		{ContactID: "c1"},
		{},
	} {
		if _, err := s.Create(in); !errors.Is(err, apperr.ErrMissingContact) {
			t.Errorf("Create(%+v) err = %v, want ErrMissingContact", in, err)
		}
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestCreate_ExplicitTitleWins(t *testing.T) {
	s := testStore(t)
	n := mustCreate(t, s, NewNote{Title: "Plan", Content: "first line"})
	if n.Title != "Plan" {
		t.Errorf("title = %q, want Plan", n.Title)
	}
}

func TestCreate_UniqueIDsByDefault(t *testing.T) {
	s := New()
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		n, err := s.Create(NewNote{ContactID: "c", AuthorContactID: "a"})
		if err != nil {
			t.Fatal(err)
		}
		if _, dup := seen[n.ID]; dup {
			t.Fatalf("duplicate id %q", n.ID)
		}
		seen[n.ID] = struct{}{}
	}
}

func TestAll_NewestFirst(t *testing.T) {
	s := testStore(t)
	a := mustCreate(t, s, NewNote{Content: "a"})
	b := mustCreate(t, s, NewNote{Content: "b"})
	c := mustCreate(t, s, NewNote{Content: "c"})

	got := ids(s.All())
	want := []string{c.ID, b.ID, a.ID}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("All = %v, want %v", got, want)
	}
}

func TestAll_TiesKeepInsertionOrder(t *testing.T) {
	frozen := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s := New(WithClock(func() time.Time { return frozen }))
	a := mustCreate(t, s, NewNote{Content: "a"})
	b := mustCreate(t, s, NewNote{Content: "b"})

	got := ids(s.All())
	if got[0] != b.ID || got[1] != a.ID {
		t.Errorf("All = %v, want most recently inserted first", got)
	}
}

func TestUpdate_SyncVersionMonotonic(t *testing.T) {
	s := testStore(t)
	n := mustCreate(t, s, NewNote{Content: "v0"})

	for k := 1; k <= 5; k++ {
		content := fmt.Sprintf("v%d", k)
		got, err := s.Update(n.ID, NoteUpdate{Content: &content})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if got.SyncVersion != 1+k {
			t.Errorf("after %d updates sync_version = %d, want %d", k, got.SyncVersion, 1+k)
		}
		if got.UpdatedAt == nil {
			t.Error("updatedAt should be set")
		}
	}
}

func TestUpdate_NotFound(t *testing.T) {
	s := testStore(t)
	content := "x"
	n, err := s.Update("missing", NoteUpdate{Content: &content})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if n != nil {
		t.Errorf("note = %+v, want nil", n)
	}
}

func TestUpdate_MergesOnlyGivenFields(t *testing.T) {
	s := testStore(t)
	n := mustCreate(t, s, NewNote{Content: "body", Tags: []string{"a"}})
	tags := []string{"b", "c"}
	got, err := s.Update(n.ID, NoteUpdate{Tags: &tags})
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != "body" || got.Title != n.Title {
		t.Errorf("untouched fields changed: %+v", got)
	}
	if fmt.Sprint(got.Tags) != "[b c]" {
		t.Errorf("tags = %v", got.Tags)
	}
	if !got.CreatedAt.Equal(n.CreatedAt.Time) {
		t.Errorf("createdAt changed from %v to %v", n.CreatedAt, got.CreatedAt)
	}
}

func TestDelete(t *testing.T) {
	s := testStore(t)
	n := mustCreate(t, s, NewNote{Content: "bye"})
	if !s.Delete(n.ID) {
		t.Fatal("Delete returned false for existing note")
	}
	if s.Delete(n.ID) {
		t.Error("second Delete should return false")
	}
	if _, ok := s.Get(n.ID); ok {
		t.Error("note still present")
	}
}

func TestReturnedNotesAreCopies(t *testing.T) {
	s := testStore(t)
	n := mustCreate(t, s, NewNote{Content: "x", Tags: []string{"keep"}})
	n.Tags[0] = "mutated"
	n.Content = "mutated"

	got, _ := s.Get(n.ID)
	if got.Content != "x" || got.Tags[0] != "keep" {
		t.Errorf("store state leaked through returned note: %+v", got)
	}
}

func TestFilters(t *testing.T) {
	s := testStore(t)
	a := mustCreate(t, s, NewNote{ContactID: "ana", AuthorContactID: "me", Content: "a"})
	b := mustCreate(t, s, NewNote{ContactID: "bo", AuthorContactID: "me", Content: "b"})
	c := mustCreate(t, s, NewNote{ContactID: "ana", AuthorContactID: "bo", Content: "c"})

	if got := ids(s.ByContact("ana")); fmt.Sprint(got) != fmt.Sprint([]string{c.ID, a.ID}) {
		t.Errorf("ByContact = %v", got)
	}
	if got := ids(s.ByAuthor("me")); fmt.Sprint(got) != fmt.Sprint([]string{b.ID, a.ID}) {
		t.Errorf("ByAuthor = %v", got)
	}
}

func TestSearch_CaseInsensitive(t *testing.T) {
	s := testStore(t)
	mustCreate(t, s, NewNote{Content: "This contains the word UNIQUE"})
	mustCreate(t, s, NewNote{Content: "This is different"})

	got := s.Search("unique")
	if len(got) != 1 {
		t.Fatalf("Search = %d results, want 1", len(got))
	}
	if got[0].Content != "This contains the word UNIQUE" {
		t.Errorf("content = %q", got[0].Content)
	}
}

func TestSearch_MatchesTitle(t *testing.T) {
	s := testStore(t)
	mustCreate(t, s, NewNote{Title: "Quarterly Review", Content: "numbers"})
	if got := s.Search("quarterly"); len(got) != 1 {
		t.Errorf("Search = %d results, want 1", len(got))
	}
}

func TestByDate(t *testing.T) {
	s := testStore(t)
	n := mustCreate(t, s, NewNote{Content: "x"})

	if got := s.ByDate("2024-03-01"); len(got) != 1 || got[0].ID != n.ID {
		t.Errorf("ByDate(2024-03-01) = %v", ids(got))
	}
	if got := s.ByDate("2024-03-02"); len(got) != 0 {
		t.Errorf("ByDate(2024-03-02) = %v, want none", ids(got))
	}
}

func TestByFolder_ExcludesArchived(t *testing.T) {
	s := testStore(t)
	n := mustCreate(t, s, NewNote{Content: "project plan", FolderID: "projects"})
	if got := s.ByFolder("projects"); len(got) != 1 {
		t.Fatalf("ByFolder = %d, want 1", len(got))
	}

	archived := true
	if _, err := s.Update(n.ID, NoteUpdate{IsArchived: &archived}); err != nil {
		t.Fatal(err)
	}
	if got := s.ByFolder("projects"); len(got) != 0 {
		t.Errorf("ByFolder after archive = %v, want empty", ids(got))
	}
}

func TestObserverSeesChanges(t *testing.T) {
	s := testStore(t)
	var kinds []EventKind
	s.Subscribe(func(ev Event) { kinds = append(kinds, ev.Kind) })

	n := mustCreate(t, s, NewNote{Content: "see [[Fresh Topic]]"})
	content := "plain"
	_, _ = s.Update(n.ID, NoteUpdate{Content: &content})
	s.Delete(n.ID)

	// stub note, topic, source note, update, delete
	want := []EventKind{EventNoteCreated, EventTopicCreated, EventNoteCreated, EventNoteUpdated, EventNoteDeleted}
	if fmt.Sprint(kinds) != fmt.Sprint(want) {
		t.Errorf("events = %v, want %v", kinds, want)
	}
}

func TestObserverMayCallBack(t *testing.T) {
	s := testStore(t)
	var seen int
	s.Subscribe(func(ev Event) {
		if ev.Kind == EventNoteCreated {
			seen = s.Len()
		}
	})
	mustCreate(t, s, NewNote{Content: "x"})
	if seen != 1 {
		t.Errorf("Len from observer = %d, want 1", seen)
	}
}

func TestConcurrentUpdates(t *testing.T) {
	s := New()
	n, err := s.Create(NewNote{ContactID: "c", AuthorContactID: "a", Content: "x"})
	if err != nil {
		t.Fatal(err)
	}
	const workers, perWorker = 8, 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				content := "[[Shared]]"
				if _, err := s.Update(n.ID, NoteUpdate{Content: &content}); err != nil {
					t.Error(err)
				}
			}
		}()
	}
	wg.Wait()

	got, _ := s.Get(n.ID)
	if got.SyncVersion != 1+workers*perWorker {
		t.Errorf("sync_version = %d, want %d", got.SyncVersion, 1+workers*perWorker)
	}
	if fl := s.ForwardLinks(n.ID); len(fl) != 1 {
		t.Errorf("forward links = %d, want 1", len(fl))
	}
}

func TestUpdateIfVersion(t *testing.T) {
	s := testStore(t)
	n := mustCreate(t, s, NewNote{Content: "v1"})
	content := "v2"

	if _, err := s.UpdateIfVersion(n.ID, 5, NoteUpdate{Content: &content}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("stale version err = %v, want ErrConflict", err)
	}
	if got, _ := s.Get(n.ID); got.SyncVersion != 1 || got.Content != "v1" {
		t.Errorf("conflict changed the note: %+v", got)
	}
	got, err := s.UpdateIfVersion(n.ID, 1, NoteUpdate{Content: &content})
	if err != nil {
		t.Fatal(err)
	}
	if got.SyncVersion != 2 || got.Content != "v2" {
		t.Errorf("updated = %+v", got)
	}
	if _, err := s.UpdateIfVersion("missing", 1, NoteUpdate{}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing err = %v", err)
	}
}

func TestStats(t *testing.T) {
	s := testStore(t)
	a := mustCreate(t, s, NewNote{Content: "see [[Garden]] and [[Roses]]"})

	// a plus two stubs, two topics, two links.
	if got := s.Stats(); got != (Stats{Notes: 3, Topics: 2, Links: 2}) {
		t.Errorf("Stats = %+v", got)
	}

	s.Delete(a.ID)
	if got := s.Stats(); got.Notes != 2 || got.Links != 0 {
		t.Errorf("Stats after delete = %+v", got)
	}
}

func TestObserversSeeMutationOrderWhenNested(t *testing.T) {
	s := testStore(t)
	var kinds []EventKind
	nested := false
	s.Subscribe(func(ev Event) {
		kinds = append(kinds, ev.Kind)
		if ev.Kind == EventNoteCreated && !nested {
			nested = true
			s.Delete(ev.NoteID)
		}
	})

	n := mustCreate(t, s, NewNote{Content: "plain"})

	if want := []EventKind{EventNoteCreated, EventNoteDeleted}; fmt.Sprint(kinds) != fmt.Sprint(want) {
		t.Errorf("events = %v, want %v", kinds, want)
	}
	if _, ok := s.Get(n.ID); ok {
		t.Error("note deleted by the observer is still stored")
	}
}
