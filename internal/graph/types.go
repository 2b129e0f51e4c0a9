// Package graph builds the node-edge view of an analyzed Python module and
// renders it to Graphviz DOT source or, through an external layout engine,
// to an image artifact.
package graph

import (
	"errors"

	"github.com/dominikbraun/graph"
)

// NodeKind represents the structural role of a node, which drives its DOT
// styling.
type NodeKind string

const (
	NodeModule      NodeKind = "module"
	NodeGlobals     NodeKind = "globals"
	NodeFunction    NodeKind = "function"
	NodeClass       NodeKind = "class"
	NodeAttribute   NodeKind = "attribute"
	NodeMethod      NodeKind = "method"
	NodeExternal    NodeKind = "external"       // callee with no definition in the module
	NodeControlFlow NodeKind = "control_flow"   // synthetic condition or loop descriptor
	NodeMissing     NodeKind = "missing_source" // call source with no drawn entity
)

// EdgeType represents the type of relationship between nodes. The string
// value doubles as the DOT edge label.
type EdgeType string

const (
	EdgeDefines        EdgeType = "defines"
	EdgeContains       EdgeType = "contains"
	EdgeHasAttribute   EdgeType = "has attribute"
	EdgeContainsMethod EdgeType = "contains method"
	EdgeCalls          EdgeType = "calls"
	EdgeInherits       EdgeType = "inherits"
)

// Node is one element of the structure graph.
type Node struct {
	ID    string   `json:"id"`    // Unique identifier within the model
	Kind  NodeKind `json:"kind"`  // Structural role
	Label string   `json:"label"` // Display label, may span lines
}

// Edge is a directed, typed connection between two nodes. The same ordered
// pair may carry several edge types: a module both contains and calls a
// function it invokes at import time.
type Edge struct {
	From string   `json:"from"` // Source node ID
	To   string   `json:"to"`   // Target node ID
	Type EdgeType `json:"type"` // Relationship type
}

// cluster groups nodes for the DOT writer. The module cluster comes first,
// then one cluster per class in declaration order.
type cluster struct {
	name    string
	label   string
	color   string
	fill    string
	nodeIDs []string
}

// edgeKey identifies an edge for deduplication.
type edgeKey struct {
	from, to string
	typ      EdgeType
}

// Model is the complete graph for one analyzed module. Nodes and Edges are
// in deterministic build order; the directed index supports id lookups.
type Model struct {
	ModuleName string `json:"module_name"`
	Nodes      []Node `json:"nodes"`
	Edges      []Edge `json:"edges"`

	clusters  []cluster
	index     graph.Graph[string, Node]
	seenEdges map[edgeKey]struct{}
}

func newModel(moduleName string) *Model {
	return &Model{
		ModuleName: moduleName,
		index:      graph.New(nodeID, graph.Directed()),
		seenEdges:  make(map[edgeKey]struct{}),
	}
}

func nodeID(n Node) string { return n.ID }

// Node returns the node with the given id, if present.
func (m *Model) Node(id string) (Node, bool) {
	n, err := m.index.Vertex(id)
	if err != nil {
		return Node{}, false
	}
	return n, true
}

// HasNode reports whether a node with the given id exists.
func (m *Model) HasNode(id string) bool {
	_, ok := m.Node(id)
	return ok
}

// addNode inserts a node unless its id is already taken; the first
// definition wins. Reports whether the node was inserted.
func (m *Model) addNode(n Node) bool {
	if err := m.index.AddVertex(n); err != nil {
		return false
	}
	m.Nodes = append(m.Nodes, n)
	return true
}

// addEdge inserts a typed edge. Self-loops and exact duplicates are
// dropped. The index keeps a single edge per ordered pair; additional
// types for the same pair survive in Edges.
func (m *Model) addEdge(from, to string, typ EdgeType) {
	if from == to {
		return
	}
	key := edgeKey{from: from, to: to, typ: typ}
	if _, ok := m.seenEdges[key]; ok {
		return
	}
	m.seenEdges[key] = struct{}{}

	err := m.index.AddEdge(from, to, graph.EdgeAttribute("label", string(typ)))
	if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return
	}
	m.Edges = append(m.Edges, Edge{From: from, To: to, Type: typ})
}
