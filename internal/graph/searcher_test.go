package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Searcher:
// - Query callers returns direct callers at depth 1
// - Query callers returns transitive callers with their depths
// - Query callees returns direct and transitive callees
// - The module node shows up as the caller of import-time calls
// - Depth at or below zero falls back to the default
// - MaxResults truncates and the response says so
// - Revisited nodes are reported once but counted per path
// - Unsupported operations are rejected
// - Reload swaps the model under live queries
// - A nil model answers with no results

func chainSearcher(t *testing.T) *Searcher {
	t.Helper()
	model := Build(mustAnalyze(t, "app", `def top():
    middle()

def middle():
    inner()

def inner():
    leaf()

def leaf():
    pass
`))
	return NewSearcher(model)
}

func TestSearcher_QueryCallers(t *testing.T) {
	t.Parallel()

	searcher := chainSearcher(t)
	ctx := context.Background()

	tests := []struct {
		name          string
		target        string
		depth         int
		expectedFound int
		expectedIDs   []string
	}{
		{
			name:          "direct callers",
			target:        "app.middle",
			depth:         1,
			expectedFound: 1,
			expectedIDs:   []string{"app.top"},
		},
		{
			name:          "transitive callers depth 2",
			target:        "app.inner",
			depth:         2,
			expectedFound: 2,
			expectedIDs:   []string{"app.middle", "app.top"},
		},
		{
			name:          "no callers",
			target:        "app.top",
			depth:         1,
			expectedFound: 0,
			expectedIDs:   []string{},
		},
		{
			name:          "unknown target",
			target:        "app.ghost",
			depth:         1,
			expectedFound: 0,
			expectedIDs:   []string{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp, err := searcher.Query(ctx, &QueryRequest{
				Operation: OperationCallers,
				Target:    tt.target,
				Depth:     tt.depth,
			})
			require.NoError(t, err)
			require.NotNil(t, resp)

			assert.Equal(t, tt.expectedFound, resp.TotalFound)
			assert.Equal(t, len(tt.expectedIDs), resp.TotalReturned)

			resultIDs := make([]string, len(resp.Results))
			for i, r := range resp.Results {
				resultIDs[i] = r.Node.ID
			}
			assert.ElementsMatch(t, tt.expectedIDs, resultIDs)
		})
	}
}

func TestSearcher_CallerDepths(t *testing.T) {
	t.Parallel()

	// Test: Query callers returns transitive callers with their depths
	searcher := chainSearcher(t)

	resp, err := searcher.Query(context.Background(), &QueryRequest{
		Operation: OperationCallers,
		Target:    "app.inner",
		Depth:     2,
	})
	require.NoError(t, err)

	depths := make(map[string]int)
	for _, r := range resp.Results {
		depths[r.Node.ID] = r.Depth
	}
	assert.Equal(t, map[string]int{"app.middle": 1, "app.top": 2}, depths)
}

func TestSearcher_QueryCallees(t *testing.T) {
	t.Parallel()

	// Test: Query callees returns direct and transitive callees
	searcher := chainSearcher(t)
	ctx := context.Background()

	resp, err := searcher.Query(ctx, &QueryRequest{
		Operation: OperationCallees,
		Target:    "app.middle",
		Depth:     1,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "app.inner", resp.Results[0].Node.ID)
	assert.Equal(t, NodeFunction, resp.Results[0].Node.Kind)

	resp, err = searcher.Query(ctx, &QueryRequest{
		Operation: OperationCallees,
		Target:    "app.top",
		Depth:     3,
	})
	require.NoError(t, err)

	resultIDs := make([]string, len(resp.Results))
	for i, r := range resp.Results {
		resultIDs[i] = r.Node.ID
	}
	assert.ElementsMatch(t, []string{"app.middle", "app.inner", "app.leaf"}, resultIDs)
	assert.False(t, resp.Truncated)
}

func TestSearcher_ModuleLevelCaller(t *testing.T) {
	t.Parallel()

	// Test: The module node shows up as the caller of import-time calls
	model := Build(mustAnalyze(t, "app", `def fetch():
    pass

fetch()
`))
	searcher := NewSearcher(model)

	resp, err := searcher.Query(context.Background(), &QueryRequest{
		Operation: OperationCallers,
		Target:    "app.fetch",
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "app", resp.Results[0].Node.ID)
	assert.Equal(t, NodeModule, resp.Results[0].Node.Kind)
}

func TestSearcher_DepthDefault(t *testing.T) {
	t.Parallel()

	// Test: Depth at or below zero falls back to the default
	searcher := chainSearcher(t)

	resp, err := searcher.Query(context.Background(), &QueryRequest{
		Operation: OperationCallers,
		Target:    "app.inner",
		Depth:     0,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1, "expected only the direct caller at the default depth")
	assert.Equal(t, "app.middle", resp.Results[0].Node.ID)
}

func TestSearcher_MaxResults(t *testing.T) {
	t.Parallel()

	// Test: MaxResults truncates and the response says so
	searcher := chainSearcher(t)

	resp, err := searcher.Query(context.Background(), &QueryRequest{
		Operation:  OperationCallees,
		Target:     "app.top",
		Depth:      10,
		MaxResults: 1,
	})
	require.NoError(t, err)

	assert.Len(t, resp.Results, 1)
	assert.Equal(t, 1, resp.TotalReturned)
	assert.Equal(t, 3, resp.TotalFound)
	assert.True(t, resp.Truncated)
}

func TestSearcher_DiamondPaths(t *testing.T) {
	t.Parallel()

	// Test: Revisited nodes are reported once but counted per path
	model := Build(mustAnalyze(t, "app", `def top():
    left()
    right()

def left():
    shared()

def right():
    shared()

def shared():
    pass
`))
	searcher := NewSearcher(model)

	resp, err := searcher.Query(context.Background(), &QueryRequest{
		Operation: OperationCallees,
		Target:    "app.top",
		Depth:     2,
	})
	require.NoError(t, err)

	resultIDs := make([]string, len(resp.Results))
	for i, r := range resp.Results {
		resultIDs[i] = r.Node.ID
	}
	assert.ElementsMatch(t, []string{"app.left", "app.right", "app.shared"}, resultIDs)
	assert.Equal(t, 4, resp.TotalFound, "the shared callee is reachable on two paths")
	assert.True(t, resp.Truncated)
}

func TestSearcher_UnsupportedOperation(t *testing.T) {
	t.Parallel()

	// Test: Unsupported operations are rejected
	searcher := chainSearcher(t)

	_, err := searcher.Query(context.Background(), &QueryRequest{
		Operation: "imports",
		Target:    "app.top",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported operation: imports")
}

func TestSearcher_Reload(t *testing.T) {
	t.Parallel()

	// Test: Reload swaps the model under live queries
	searcher := chainSearcher(t)
	ctx := context.Background()

	req := &QueryRequest{Operation: OperationCallers, Target: "app.middle"}

	resp, err := searcher.Query(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalFound)

	searcher.Reload(Build(mustAnalyze(t, "app", "def solo():\n    pass\n")))

	resp, err = searcher.Query(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.TotalFound)
}

func TestSearcher_NilModel(t *testing.T) {
	t.Parallel()

	// Test: A nil model answers with no results
	searcher := NewSearcher(nil)

	resp, err := searcher.Query(context.Background(), &QueryRequest{
		Operation: OperationCallees,
		Target:    "anything",
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 0, resp.TotalFound)
	assert.False(t, resp.Truncated)
}
