package mcp

// Implementation Plan:
// 1. Server struct with analysis service and file watcher
// 2. NewServer - builds the cached service, wires invalidation, registers tools
// 3. Serve - starts MCP server on stdio with graceful shutdown
// 4. Graceful shutdown on SIGTERM/SIGINT
// 5. Clean error handling and logging

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/pyscope/internal/config"
	"github.com/mvp-joe/pyscope/internal/watch"
)

// Server manages the MCP server lifecycle.
type Server struct {
	config  *config.Config
	service *AnalysisService
	watcher *watch.Watcher
	mcp     *server.MCPServer
}

// NewServer creates an MCP server exposing the pyscope tools. Analyzed
// files are watched so edits invalidate their cached analyses.
func NewServer(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	service, err := NewAnalysisService(cfg.Cache.MaxEntries, nil)
	if err != nil {
		return nil, err
	}

	watcher, err := watch.New(watch.Options{
		Patterns: cfg.Watch.Patterns,
		Ignore:   cfg.Watch.Ignore,
		Debounce: time.Duration(cfg.Watch.DebounceMs) * time.Millisecond,
	}, service.Invalidate)
	if err != nil {
		service.Close()
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	service.track = watcher.AddFile

	mcpServer := server.NewMCPServer(
		"pyscope-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	AddReportTool(mcpServer, service)
	AddGraphTool(mcpServer, service)
	AddCallsTool(mcpServer, service)

	return &Server{
		config:  cfg,
		service: service,
		watcher: watcher,
		mcp:     mcpServer,
	}, nil
}

// Serve starts the MCP server and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	// Start file watcher
	s.watcher.Start(ctx)
	defer s.watcher.Stop()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Start MCP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting MCP server on stdio...")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-sigCh:
		log.Printf("Received shutdown signal, stopping gracefully...")
		cancel()
		return nil
	case err := <-errCh:
		cancel()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases all resources.
func (s *Server) Close() error {
	if s.watcher != nil {
		s.watcher.Stop()
	}
	if s.service != nil {
		s.service.Close()
	}
	return nil
}
