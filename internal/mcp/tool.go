package mcp

// Implementation Plan:
// 1. AddReportTool / AddGraphTool / AddCallsTool - composable registrations
// 2. Handler factories that capture the analysis service
// 3. Parse requests from MCP arguments
// 4. Analysis failures surface as tool errors, not transport errors
// 5. Report is plain text, graph and calls are JSON (mcp-go convention)

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/pyscope/internal/graph"
)

// AddReportTool registers the pyscope_report tool with an MCP server.
// This function is composable - it can be combined with other tool registrations.
func AddReportTool(s *server.MCPServer, service *AnalysisService) {
	tool := mcp.NewTool(
		"pyscope_report",
		mcp.WithDescription("Analyze the structure of a Python source file and return a deterministic text report: imports, global variables, functions, classes with their attributes and methods, docstrings, and the calls made in each scope."),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("Path to the Python source file to analyze")),
	)

	s.AddTool(tool, createReportHandler(service))
}

// createReportHandler creates the handler function for pyscope_report.
func createReportHandler(service *AnalysisService) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}

		file, err := parseStringArg(argsMap, "file", true)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		report, err := service.Report(file)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(report), nil
	}
}

// AddGraphTool registers the pyscope_graph tool with an MCP server.
func AddGraphTool(s *server.MCPServer, service *AnalysisService) {
	tool := mcp.NewTool(
		"pyscope_graph",
		mcp.WithDescription("Build the structure graph of a Python source file and return it as Graphviz DOT source. Nodes are the module, global variables, functions, classes, attributes and methods; edges cover containment, calls and inheritance."),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("Path to the Python source file to analyze")),
	)

	s.AddTool(tool, createGraphHandler(service))
}

// createGraphHandler creates the handler function for pyscope_graph.
func createGraphHandler(service *AnalysisService) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}

		file, err := parseStringArg(argsMap, "file", true)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		response, err := service.Graph(file)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		jsonData, err := json.Marshal(response)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}

		return mcp.NewToolResultText(string(jsonData)), nil
	}
}

// AddCallsTool registers the pyscope_calls tool with an MCP server.
func AddCallsTool(s *server.MCPServer, service *AnalysisService) {
	tool := mcp.NewTool(
		"pyscope_calls",
		mcp.WithDescription("Query the call graph of a Python source file: find the callers or callees of a function, method or class, up to a traversal depth. Targets may be bare names ('helper') or qualified node ids ('mymodule.helper')."),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("Path to the Python source file to analyze")),
		mcp.WithString("target",
			mcp.Required(),
			mcp.Description("Name or node id of the function, method or class to query")),
		mcp.WithString("operation",
			mcp.Description("Query direction: 'callers' or 'callees' (default: callers)")),
		mcp.WithNumber("depth",
			mcp.Description("Traversal depth (1-10, default: 1)")),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of results to return (default: 100)")),
	)

	s.AddTool(tool, createCallsHandler(service))
}

// createCallsHandler creates the handler function for pyscope_calls.
func createCallsHandler(service *AnalysisService) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}

		file, err := parseStringArg(argsMap, "file", true)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		target, err := parseStringArg(argsMap, "target", true)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		operation, err := parseStringArg(argsMap, "operation", false)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if operation == "" {
			operation = string(graph.OperationCallers)
		}
		if operation != string(graph.OperationCallers) && operation != string(graph.OperationCallees) {
			return mcp.NewToolResultError(fmt.Sprintf("operation must be 'callers' or 'callees', got '%s'", operation)), nil
		}

		req := &graph.QueryRequest{
			Operation:  graph.QueryOperation(operation),
			Target:     target,
			Depth:      parseClampedInt(argsMap, "depth", graph.DefaultDepth, 1, graph.MaxDepth),
			MaxResults: parseIntArg(argsMap, "max_results", graph.DefaultMaxResults),
		}

		response, err := service.Query(ctx, file, req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		jsonData, err := json.Marshal(response)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}

		return mcp.NewToolResultText(string(jsonData)), nil
	}
}
