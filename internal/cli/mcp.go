package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/pyscope/internal/config"
	"github.com/mvp-joe/pyscope/internal/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for Python structure analysis",
	Long: `Start the Model Context Protocol (MCP) server that lets LLM-powered coding
assistants analyze the structure of Python files on demand.

The MCP server:
- Exposes pyscope_report, pyscope_graph and pyscope_calls tools
- Caches analyses and invalidates them when watched files change
- Communicates via stdio (standard MCP transport)

Example:
  pyscope mcp`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Load configuration from .pyscope/config.yaml
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Pyscope MCP Server\n\n")

	server, err := mcp.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer server.Close()

	// Serve (blocks until shutdown)
	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}

	return nil
}
