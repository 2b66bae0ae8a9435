package models

// NodeType is the kind of entity a graph node stands for.
type NodeType string

const (
	NodeNote    NodeType = "note"
	NodeTopic   NodeType = "topic"
	NodeContact NodeType = "contact"
)

// EdgeType records which relation produced a graph edge.
type EdgeType string

const (
	EdgeAbout        EdgeType = "about"         // note -> contact
	EdgeTopic        EdgeType = "topic"         // note -> topic
	EdgeTopicContact EdgeType = "topic_contact" // topic -> contact
	EdgeLink         EdgeType = "link"          // note -> note
)

// GraphNode is a vertex in the note graph.
type GraphNode struct {
	ID        string   `json:"id"`
	Type      NodeType `json:"type"`
	Label     string   `json:"label"`
	LinkCount int      `json:"linkCount"`
}

// GraphEdge is an undirected-for-dedup edge, stored in its first-seen direction.
type GraphEdge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Type   EdgeType `json:"type"`
}

// Graph is the full node/edge projection.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}
