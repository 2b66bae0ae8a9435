package graph

import (
	"reflect"
	"testing"

	"github.com/starford/berkana/internal/models"
	"github.com/starford/berkana/internal/notestore"
)

func degree(g models.Graph, id string) int {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n.LinkCount
		}
	}
	return -1
}

func TestBuild_EdgesAndDegrees(t *testing.T) {
	snap := Snapshot{
		State: notestore.State{
			Notes: []*models.Note{
				{ID: "n1", ContactID: "c1", Title: "One"},
				{ID: "n2", ContactID: "c1", Title: "Two"},
			},
			Topics:     []models.Topic{{ID: "t1", Label: "Travel", Slug: "travel"}},
			NoteTopics: []models.NoteTopic{{NoteID: "n1", TopicID: "t1"}},
			Links: []models.NoteLink{
				{SourceNoteID: "n1", TargetNoteID: "n2"},
				{SourceNoteID: "n2", TargetNoteID: "n1"},
			},
		},
	}

	g := Build(snap)

	// n1-c1, n2-c1, n1-t1, t1-c1, n1-n2 (the reverse link collapses).
	if len(g.Edges) != 5 {
		t.Fatalf("edges = %d, want 5: %+v", len(g.Edges), g.Edges)
	}
	if len(g.Nodes) != 4 {
		t.Fatalf("nodes = %d, want 4: %+v", len(g.Nodes), g.Nodes)
	}
	want := map[string]int{"n1": 3, "n2": 2, "t1": 2, "c1": 3}
	for id, d := range want {
		if got := degree(g, id); got != d {
			t.Errorf("linkCount(%s) = %d, want %d", id, got, d)
		}
	}

	order := []models.NodeType{models.NodeNote, models.NodeNote, models.NodeTopic, models.NodeContact}
	for i, n := range g.Nodes {
		if n.Type != order[i] {
			t.Errorf("node %d type = %s, want %s", i, n.Type, order[i])
		}
	}
}

func TestBuild_SkipsDanglingRows(t *testing.T) {
	snap := Snapshot{
		State: notestore.State{
			Notes:      []*models.Note{{ID: "n1", ContactID: "c1"}},
			NoteTopics: []models.NoteTopic{{NoteID: "gone", TopicID: "t1"}, {NoteID: "n1", TopicID: "unknown"}},
			Links:      []models.NoteLink{{SourceNoteID: "n1", TargetNoteID: "gone"}},
		},
	}
	g := Build(snap)
	if len(g.Edges) != 1 || g.Edges[0].Type != models.EdgeAbout {
		t.Errorf("edges = %+v, want only the about edge", g.Edges)
	}
}

func TestBuild_IsDeterministic(t *testing.T) {
	s := notestore.New()
	if _, err := s.Create(notestore.NewNote{ContactID: "ana", AuthorContactID: "me", Title: "Alpha", Content: "[[Trip]] with [[Bo]]"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(notestore.NewNote{ContactID: "bo", AuthorContactID: "me", Content: "back to [[Alpha]]"}); err != nil {
		t.Fatal(err)
	}
	snap := Snapshot{State: s.State()}
	first := Build(snap)
	second := Build(snap)
	if !reflect.DeepEqual(first, second) {
		t.Error("Build is not deterministic")
	}
	if s.Len() != 4 {
		t.Errorf("Build must not mutate the store: Len = %d", s.Len())
	}
}

func TestEnsureInlineTopics(t *testing.T) {
	s := notestore.New()
	n, err := s.Create(notestore.NewNote{
		ContactID:       "ana",
		AuthorContactID: "me",
		Content:         "Planning #travel and [[Budget]]",
		Tags:            []string{"Family", "travel", "!!!"},
	})
	if err != nil {
		t.Fatal(err)
	}
	before := len(s.Topics())

	inline, err := EnsureInlineTopics(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(inline) != 2 {
		t.Fatalf("inline pairs = %+v, want travel and family", inline)
	}
	for _, p := range inline {
		if p.NoteID != n.ID {
			t.Errorf("pair note = %s, want %s", p.NoteID, n.ID)
		}
	}
	if got := len(s.Topics()); got != before+2 {
		t.Errorf("topics = %d, want %d", got, before+2)
	}

	again, err := EnsureInlineTopics(s)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(inline, again) {
		t.Errorf("second pass = %+v, want %+v", again, inline)
	}
	if got := len(s.Topics()); got != before+2 {
		t.Errorf("second pass created topics: %d", got)
	}

	g := Build(Snapshot{State: s.State(), Inline: inline})
	travel, _ := s.TopicBySlug("travel")
	if degree(g, travel.ID) != 2 {
		t.Errorf("travel degree = %d, want 2 (note and contact)", degree(g, travel.ID))
	}
}
