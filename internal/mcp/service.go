package mcp

// Implementation Plan:
// 1. analysis - immutable bundle derived from one parse of a file
// 2. AnalysisService - on-demand analysis with an otter cache keyed by absolute path
// 3. Tracker callback so a watcher learns about analyzed files
// 4. Invalidate - drop cache entries for changed paths

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/maypok86/otter"

	"github.com/mvp-joe/pyscope/internal/analyzer"
	"github.com/mvp-joe/pyscope/internal/graph"
)

const (
	defaultCacheEntries = 256

	// otter only admits entries costing at most a tenth of the cache
	// capacity. Every analysis has cost 1, so capacities below this floor
	// would never cache anything.
	minCacheEntries = 10
)

// analysis bundles everything derived from one parse of a file. Entries
// are immutable once cached; invalidation drops them wholesale.
type analysis struct {
	structure *analyzer.Structure
	model     *graph.Model
	searcher  *graph.Searcher
	report    string
	dot       string
}

// resolveTarget maps a bare name onto its module-qualified node id when no
// node carries the name as-is, so queries accept "helper" as well as
// "mymodule.helper".
func (a *analysis) resolveTarget(target string) string {
	if a.model.HasNode(target) {
		return target
	}
	qualified := a.structure.ModuleName + "." + target
	if a.model.HasNode(qualified) {
		return qualified
	}
	return target
}

// AnalysisService analyzes Python files on demand and caches the results
// keyed by absolute path. The track callback, when set, is told about each
// newly analyzed file so a watcher can invalidate its entry on change.
type AnalysisService struct {
	cache otter.Cache[string, *analysis]
	track func(path string) error
}

// NewAnalysisService creates a service whose cache holds up to maxEntries
// analyses. Sizes below minCacheEntries are raised to it. track may be nil.
func NewAnalysisService(maxEntries int, track func(path string) error) (*AnalysisService, error) {
	if maxEntries <= 0 {
		maxEntries = defaultCacheEntries
	}
	if maxEntries < minCacheEntries {
		maxEntries = minCacheEntries
	}
	cache, err := otter.MustBuilder[string, *analysis](maxEntries).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis cache: %w", err)
	}
	return &AnalysisService{cache: cache, track: track}, nil
}

// Report returns the text structure report for a Python file.
func (s *AnalysisService) Report(path string) (string, error) {
	entry, err := s.get(path)
	if err != nil {
		return "", err
	}
	return entry.report, nil
}

// Graph returns the structure graph of a Python file as DOT source with
// node and edge counts.
func (s *AnalysisService) Graph(path string) (*GraphResponse, error) {
	entry, err := s.get(path)
	if err != nil {
		return nil, err
	}
	return &GraphResponse{
		File:      path,
		Module:    entry.structure.ModuleName,
		DOT:       entry.dot,
		NodeCount: len(entry.model.Nodes),
		EdgeCount: len(entry.model.Edges),
	}, nil
}

// Query answers a caller or callee query against a file's call graph. Bare
// target names are qualified with the module name when needed.
func (s *AnalysisService) Query(ctx context.Context, path string, req *graph.QueryRequest) (*graph.QueryResponse, error) {
	entry, err := s.get(path)
	if err != nil {
		return nil, err
	}
	req.Target = entry.resolveTarget(req.Target)
	return entry.searcher.Query(ctx, req)
}

// Invalidate drops the cache entries for the given paths. Paths that were
// never analyzed are ignored.
func (s *AnalysisService) Invalidate(paths []string) {
	for _, path := range paths {
		s.cache.Delete(path)
	}
	log.Printf("Invalidated cached analyses for %d changed files", len(paths))
}

// Size reports the number of cached analyses.
func (s *AnalysisService) Size() int {
	return s.cache.Size()
}

// Close releases the cache.
func (s *AnalysisService) Close() {
	s.cache.Close()
}

// get returns the cached analysis for path, analyzing on miss.
func (s *AnalysisService) get(path string) (*analysis, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("could not resolve path '%s': %w", path, err)
	}
	if entry, ok := s.cache.Get(abs); ok {
		return entry, nil
	}

	structure, err := analyzer.Analyze(abs)
	if err != nil {
		return nil, err
	}
	model := graph.Build(structure)
	entry := &analysis{
		structure: structure,
		model:     model,
		searcher:  graph.NewSearcher(model),
		report:    analyzer.Render(structure),
		dot:       graph.DOT(model),
	}
	s.cache.Set(abs, entry)

	if s.track != nil {
		if err := s.track(abs); err != nil {
			log.Printf("Failed to watch %s: %v", abs, err)
		}
	}
	return entry, nil
}
