package graph

import (
	"context"
	"fmt"
	"sync"
)

// QueryOperation represents the type of call-graph query to perform.
type QueryOperation string

const (
	OperationCallers QueryOperation = "callers"
	OperationCallees QueryOperation = "callees"
)

// Query defaults and limits
const (
	DefaultDepth      = 1
	DefaultMaxResults = 100
	MaxDepth          = 10
)

// QueryRequest represents a call-graph query.
type QueryRequest struct {
	Operation  QueryOperation // Type of query
	Target     string         // Node id to query from
	Depth      int            // Traversal depth (default: 1, max: 10)
	MaxResults int            // Maximum number of results (default: 100)
}

// QueryResult is a single node reached by a query.
type QueryResult struct {
	Node  Node `json:"node"`
	Depth int  `json:"depth"` // Traversal depth at which the node was reached
}

// QueryResponse is the response to a call-graph query.
type QueryResponse struct {
	Operation     string        `json:"operation"`
	Target        string        `json:"target"`
	Results       []QueryResult `json:"results"`
	TotalFound    int           `json:"total_found"`
	TotalReturned int           `json:"total_returned"`
	Truncated     bool          `json:"truncated"`
}

// Searcher answers caller and callee queries over a model's call edges.
// It is safe for concurrent use; Reload swaps the underlying model.
type Searcher struct {
	mu    sync.RWMutex
	model *Model

	// Reverse indexes over call edges for O(1) neighbor lookups.
	callers map[string][]string
	callees map[string][]string
}

// NewSearcher creates a searcher over the given model. A nil model yields
// a searcher that answers every query with no results until Reload.
func NewSearcher(m *Model) *Searcher {
	s := &Searcher{}
	s.Reload(m)
	return s
}

// Reload replaces the model and rebuilds the reverse indexes.
func (s *Searcher) Reload(m *Model) {
	callers := make(map[string][]string)
	callees := make(map[string][]string)
	if m != nil {
		for _, edge := range m.Edges {
			if edge.Type != EdgeCalls {
				continue
			}
			callees[edge.From] = append(callees[edge.From], edge.To)
			callers[edge.To] = append(callers[edge.To], edge.From)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = m
	s.callers = callers
	s.callees = callees
}

// Query executes a call-graph query.
func (s *Searcher) Query(ctx context.Context, req *QueryRequest) (*QueryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if req.Depth <= 0 {
		req.Depth = DefaultDepth
	}
	if req.Depth > MaxDepth {
		req.Depth = MaxDepth
	}
	if req.MaxResults <= 0 {
		req.MaxResults = DefaultMaxResults
	}

	var index map[string][]string
	switch req.Operation {
	case OperationCallers:
		index = s.callers
	case OperationCallees:
		index = s.callees
	default:
		return nil, fmt.Errorf("unsupported operation: %s", req.Operation)
	}

	found := s.traverse(index, req.Target, req.Depth)

	results := []QueryResult{}
	seen := make(map[string]bool)
	for _, rd := range found {
		if seen[rd.id] {
			continue
		}
		seen[rd.id] = true

		node, ok := s.node(rd.id)
		if !ok {
			continue
		}
		results = append(results, QueryResult{Node: node, Depth: rd.depth})
		if len(results) >= req.MaxResults {
			break
		}
	}

	return &QueryResponse{
		Operation:     string(req.Operation),
		Target:        req.Target,
		Results:       results,
		TotalFound:    len(found),
		TotalReturned: len(results),
		Truncated:     len(results) < len(found),
	}, nil
}

// resultWithDepth is an internal type for tracking depth in traversal.
type resultWithDepth struct {
	id    string
	depth int
}

// traverse walks the given neighbor index from target up to the requested
// depth. Nodes reached through several paths are expanded once at their
// shallowest depth but recorded once per path; dedup happens at result
// assembly so truncation accounting sees every hit.
func (s *Searcher) traverse(index map[string][]string, target string, depth int) []resultWithDepth {
	results := []resultWithDepth{}
	visited := make(map[string]int) // id -> shallowest depth at which it was expanded

	var walk func(id string, currentDepth int)
	walk = func(id string, currentDepth int) {
		if currentDepth > depth {
			return
		}
		if prev, seen := visited[id]; seen && prev <= currentDepth {
			return
		}
		visited[id] = currentDepth

		for _, neighbor := range index[id] {
			results = append(results, resultWithDepth{id: neighbor, depth: currentDepth})
			if currentDepth < depth {
				walk(neighbor, currentDepth+1)
			}
		}
	}

	walk(target, 1)
	return results
}

func (s *Searcher) node(id string) (Node, bool) {
	if s.model == nil {
		return Node{}, false
	}
	return s.model.Node(id)
}
