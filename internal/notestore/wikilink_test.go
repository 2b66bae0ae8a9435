package notestore

import "testing"

func TestBacklinkSymmetry(t *testing.T) {
	s := testStore(t)
	b := mustCreate(t, s, NewNote{Title: "Project Phoenix", Content: "details"})
	a := mustCreate(t, s, NewNote{Content: "Discussed [[project phoenix]] today"})

	if fl := s.ForwardLinks(a.ID); !containsID(fl, b.ID) {
		t.Errorf("ForwardLinks(a) = %v, want it to contain %s", ids(fl), b.ID)
	}
	if bl := s.Backlinks(b.ID); !containsID(bl, a.ID) {
		t.Errorf("Backlinks(b) = %v, want it to contain %s", ids(bl), a.ID)
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2 (no stub for an existing title)", s.Len())
	}
}

func TestStubCreatedForUnknownTitle(t *testing.T) {
	s := testStore(t)
	a := mustCreate(t, s, NewNote{ContactID: "ana", AuthorContactID: "me", Content: "Need to read [[Deep Work]]"})

	fl := s.ForwardLinks(a.ID)
	if len(fl) != 1 {
		t.Fatalf("ForwardLinks = %d, want 1", len(fl))
	}
	stub := fl[0]
	if stub.Title != "Deep Work" || stub.Content != "" {
		t.Errorf("stub = %+v", stub)
	}
	if stub.ContactID != "ana" || stub.AuthorContactID != "me" {
		t.Errorf("stub contact/author = %q/%q, want ana/me", stub.ContactID, stub.AuthorContactID)
	}
	if stub.SyncVersion != 1 {
		t.Errorf("stub sync_version = %d", stub.SyncVersion)
	}
	if _, ok := s.Get(stub.ID); !ok {
		t.Error("stub should be persisted")
	}
}

func TestWikilinkAlsoCreatesTopic(t *testing.T) {
	s := testStore(t)
	a := mustCreate(t, s, NewNote{Content: "Ideas for [[Garden Design|the garden]]"})

	got := s.TopicsForNote(a.ID)
	if len(got) != 1 || got[0].Slug != "garden-design" || got[0].Label != "Garden Design" {
		t.Errorf("TopicsForNote = %+v", got)
	}
}

func TestSelfReferenceIsNotLinked(t *testing.T) {
	s := testStore(t)
	a := mustCreate(t, s, NewNote{Title: "Loop", Content: "I point at [[Loop]]"})

	if fl := s.ForwardLinks(a.ID); len(fl) != 0 {
		t.Errorf("ForwardLinks = %v, want none", ids(fl))
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
	if got := s.TopicsForNote(a.ID); len(got) != 1 {
		t.Errorf("self reference should still yield its topic, got %v", got)
	}
}

func TestRederivationIsIdempotent(t *testing.T) {
	s := testStore(t)
	a := mustCreate(t, s, NewNote{Content: "[[One]] and [[Two]] and [[one]]"})
	before := len(s.Links())

	content := "[[One]] and [[Two]] and [[one]]"
	if _, err := s.Update(a.ID, NoteUpdate{Content: &content}); err != nil {
		t.Fatal(err)
	}
	if after := len(s.Links()); after != before || after != 2 {
		t.Errorf("links before=%d after=%d, want 2 both times", before, after)
	}
	if s.Len() != 3 {
		t.Errorf("Len = %d, want 3 (source + two stubs)", s.Len())
	}
	if got := len(s.TopicsForNote(a.ID)); got != 2 {
		t.Errorf("topics = %d, want 2", got)
	}
}

func TestEditClearsStaleLinks(t *testing.T) {
	s := testStore(t)
	target := mustCreate(t, s, NewNote{Title: "Old", Content: "x"})
	a := mustCreate(t, s, NewNote{Content: "see [[Old]]"})

	content := "nothing here"
	if _, err := s.Update(a.ID, NoteUpdate{Content: &content}); err != nil {
		t.Fatal(err)
	}
	if bl := s.Backlinks(target.ID); len(bl) != 0 {
		t.Errorf("Backlinks = %v, want none after edit", ids(bl))
	}
	if got := s.TopicsForNote(a.ID); len(got) != 0 {
		t.Errorf("topics = %v, want none after edit", got)
	}
}

func TestUpdateWithoutContentKeepsDerivedRows(t *testing.T) {
	s := testStore(t)
	a := mustCreate(t, s, NewNote{Content: "see [[Kept]]"})
	title := "Renamed"
	if _, err := s.Update(a.ID, NoteUpdate{Title: &title}); err != nil {
		t.Fatal(err)
	}
	if fl := s.ForwardLinks(a.ID); len(fl) != 1 {
		t.Errorf("ForwardLinks = %d, want 1", len(fl))
	}
}

func TestDeleteCascadesLinks(t *testing.T) {
	s := testStore(t)
	b := mustCreate(t, s, NewNote{Title: "Target", Content: "x"})
	a := mustCreate(t, s, NewNote{Content: "see [[Target]]"})

	s.Delete(b.ID)

	if fl := s.ForwardLinks(a.ID); len(fl) != 0 {
		t.Errorf("ForwardLinks = %v, want none after target delete", ids(fl))
	}
	for _, l := range s.Links() {
		if l.TargetNoteID == b.ID || l.SourceNoteID == b.ID {
			t.Errorf("dangling link %+v", l)
		}
	}
}

func TestWikilinksResolution(t *testing.T) {
	s := testStore(t)
	target := mustCreate(t, s, NewNote{Title: "Budget", Content: "x"})
	a := mustCreate(t, s, NewNote{Content: "see [[Budget]]"})

	got, ok := s.Wikilinks(a.ID)
	if !ok {
		t.Fatal("Wikilinks: note not found")
	}
	if len(got) != 2 {
		t.Fatalf("Wikilinks = %+v, want note and topic targets", got)
	}
	if got[0].Kind != TargetNote || got[0].ID != target.ID {
		t.Errorf("first target = %+v, want note %s", got[0], target.ID)
	}
	if got[1].Kind != TargetTopic {
		t.Errorf("second target = %+v, want topic", got[1])
	}
	if _, ok := s.Wikilinks("missing"); ok {
		t.Error("Wikilinks(missing) should report not found")
	}
}

func TestTopicQueries(t *testing.T) {
	s := testStore(t)
	a := mustCreate(t, s, NewNote{ContactID: "ana", AuthorContactID: "me", Content: "[[Travel]] plans"})
	b := mustCreate(t, s, NewNote{ContactID: "ana", AuthorContactID: "bo", Content: "[[Books]] and [[travel]]"})
	mustCreate(t, s, NewNote{ContactID: "cy", AuthorContactID: "me", Content: "[[Cooking]]"})

	contactTopics := s.TopicsForContact("ana")
	if len(contactTopics) != 2 || contactTopics[0].Label != "Books" || contactTopics[1].Label != "Travel" {
		t.Errorf("TopicsForContact = %+v", contactTopics)
	}
	authorTopics := s.TopicsForAuthor("me")
	if len(authorTopics) != 2 || authorTopics[0].Label != "Cooking" || authorTopics[1].Label != "Travel" {
		t.Errorf("TopicsForAuthor = %+v", authorTopics)
	}

	travel, ok := s.TopicBySlug("travel")
	if !ok {
		t.Fatal("travel topic missing")
	}
	notes := s.NotesForTopic(travel.ID)
	if len(notes) != 2 || notes[0].ID != b.ID || notes[1].ID != a.ID {
		t.Errorf("NotesForTopic = %v, want [%s %s]", ids(notes), b.ID, a.ID)
	}
	if got, ok := s.Topic(travel.ID); !ok || got.Slug != "travel" {
		t.Errorf("Topic(id) = %+v, %v", got, ok)
	}

	all := s.Topics()
	if len(all) != 3 {
		t.Fatalf("Topics = %d, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Label > all[i].Label {
			t.Errorf("Topics not sorted by label: %v", all)
		}
	}
}

func TestGetOrCreateTopic(t *testing.T) {
	s := testStore(t)
	a, err := s.GetOrCreateTopic("Foo")
	if err != nil {
		t.Fatal(err)
	}
	for _, label := range []string{"foo", " Foo "} {
		b, err := s.GetOrCreateTopic(label)
		if err != nil {
			t.Fatal(err)
		}
		if b.ID != a.ID {
			t.Errorf("GetOrCreateTopic(%q) = %s, want %s", label, b.ID, a.ID)
		}
	}
	if _, err := s.GetOrCreateTopic("  "); err == nil {
		t.Error("empty label should fail")
	}
}

func TestLinksFilterMissingEndpoints(t *testing.T) {
	s := testStore(t)
	mustCreate(t, s, NewNote{Content: "[[A]] [[B]]"})
	for _, l := range s.Links() {
		if _, ok := s.Get(l.TargetNoteID); !ok {
			t.Errorf("link to missing note %+v", l)
		}
	}
}
