package mcp

// Implementation Plan:
// 1. Request types for the pyscope tools
// 2. GraphResponse - DOT source plus node/edge counts
// 3. Defaults shared by tool handlers and tests

// ReportRequest carries the arguments of the pyscope_report tool.
type ReportRequest struct {
	File string `json:"file"`
}

// GraphRequest carries the arguments of the pyscope_graph tool.
type GraphRequest struct {
	File string `json:"file"`
}

// GraphResponse is the pyscope_graph payload: the DOT source of the
// structure graph plus counts so a client can size the graph without
// parsing it.
type GraphResponse struct {
	File      string `json:"file"`
	Module    string `json:"module"`
	DOT       string `json:"dot"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

// CallsRequest carries the arguments of the pyscope_calls tool.
type CallsRequest struct {
	File       string `json:"file"`
	Target     string `json:"target"`
	Operation  string `json:"operation,omitempty"`
	Depth      int    `json:"depth,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}
