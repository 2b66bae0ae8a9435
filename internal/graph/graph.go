// Package graph projects the note store into a node/edge graph for
// visualization.
//
// Building is split in two: EnsureInlineTopics materializes the topics named
// by #hashtags and tag entries, and Build turns a snapshot into a Graph
// without touching any state.
package graph

import (
	"errors"
	"sort"
	"strings"

	"github.com/starford/berkana/internal/apperr"
	"github.com/starford/berkana/internal/models"
	"github.com/starford/berkana/internal/notestore"
	"github.com/starford/berkana/internal/parser"
)

// TopicSource is the part of the note store EnsureInlineTopics needs.
type TopicSource interface {
	All() []*models.Note
	TopicsForNote(id string) []models.Topic
	GetOrCreateTopic(label string) (models.Topic, error)
}

// Snapshot is the input of Build: the store state plus the inline topic
// pairs returned by EnsureInlineTopics.
type Snapshot struct {
	notestore.State
	Inline []models.NoteTopic
}

// EnsureInlineTopics creates a topic for every #hashtag in note content and
// every tag entry, and returns the note/topic pairs that the topic index
// does not already record. Labels that cannot form a topic are skipped.
func EnsureInlineTopics(src TopicSource) ([]models.NoteTopic, error) {
	var out []models.NoteTopic
	for _, n := range src.All() {
		linked := make(map[string]struct{})
		for _, t := range src.TopicsForNote(n.ID) {
			linked[t.ID] = struct{}{}
		}
		labels := append(parser.Hashtags(n.Content), n.Tags...)
		for _, label := range labels {
			if strings.TrimSpace(label) == "" {
				continue
			}
			t, err := src.GetOrCreateTopic(label)
			if errors.Is(err, apperr.ErrEmptyTopicLabel) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if _, ok := linked[t.ID]; ok {
				continue
			}
			linked[t.ID] = struct{}{}
			out = append(out, models.NoteTopic{NoteID: n.ID, TopicID: t.ID})
		}
	}
	return out, nil
}

type builder struct {
	nodes map[string]*models.GraphNode
	edges map[string]models.GraphEdge
}

// Build computes the graph of snap. Edges are deduplicated on their
// unordered endpoint pair, the first edge seen for a pair wins, and each
// node's LinkCount is its degree in the final edge set. Nodes are sorted by
// type then id, edges by endpoint pair.
func Build(snap Snapshot) models.Graph {
	b := &builder{
		nodes: make(map[string]*models.GraphNode),
		edges: make(map[string]models.GraphEdge),
	}

	notes := make(map[string]*models.Note, len(snap.Notes))
	for _, n := range snap.Notes {
		notes[n.ID] = n
	}
	topicsByID := make(map[string]models.Topic, len(snap.Topics))
	for _, t := range snap.Topics {
		topicsByID[t.ID] = t
	}

	for _, n := range snap.Notes {
		b.node(n.ID, models.NodeNote, n.Title)
		if n.ContactID != "" {
			b.node(n.ContactID, models.NodeContact, n.ContactID)
			b.edge(n.ID, n.ContactID, models.EdgeAbout)
		}
	}

	pairs := append(append([]models.NoteTopic(nil), snap.NoteTopics...), snap.Inline...)
	for _, p := range pairs {
		n, ok := notes[p.NoteID]
		if !ok {
			continue
		}
		t, ok := topicsByID[p.TopicID]
		if !ok {
			continue
		}
		b.node(t.ID, models.NodeTopic, t.Label)
		b.edge(n.ID, t.ID, models.EdgeTopic)
		if n.ContactID != "" {
			b.edge(t.ID, n.ContactID, models.EdgeTopicContact)
		}
	}

	for _, l := range snap.Links {
		if notes[l.SourceNoteID] == nil || notes[l.TargetNoteID] == nil {
			continue
		}
		b.edge(l.SourceNoteID, l.TargetNoteID, models.EdgeLink)
	}

	return b.graph()
}

func (b *builder) node(id string, typ models.NodeType, label string) {
	if _, ok := b.nodes[id]; ok {
		return
	}
	b.nodes[id] = &models.GraphNode{ID: id, Type: typ, Label: label}
}

func (b *builder) edge(source, target string, typ models.EdgeType) {
	if source == target {
		return
	}
	key := edgeKey(source, target)
	if _, ok := b.edges[key]; ok {
		return
	}
	b.edges[key] = models.GraphEdge{Source: source, Target: target, Type: typ}
}

func (b *builder) graph() models.Graph {
	keys := make([]string, 0, len(b.edges))
	for k := range b.edges {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	edges := make([]models.GraphEdge, 0, len(keys))
	for _, k := range keys {
		e := b.edges[k]
		edges = append(edges, e)
		b.nodes[e.Source].LinkCount++
		b.nodes[e.Target].LinkCount++
	}

	nodes := make([]models.GraphNode, 0, len(b.nodes))
	for _, n := range b.nodes {
		nodes = append(nodes, *n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Type != nodes[j].Type {
			return typeRank(nodes[i].Type) < typeRank(nodes[j].Type)
		}
		return nodes[i].ID < nodes[j].ID
	})
	return models.Graph{Nodes: nodes, Edges: edges}
}

func edgeKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "::" + b
}

func typeRank(t models.NodeType) int {
	switch t {
	case models.NodeNote:
		return 0
	case models.NodeTopic:
		return 1
	default:
		return 2
	}
}
