package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/pyscope/internal/analyzer"
	"github.com/mvp-joe/pyscope/internal/config"
	"github.com/mvp-joe/pyscope/internal/graph"
)

var (
	graphFormatFlag string
	graphOutputFlag string
	graphQuietFlag  bool
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Render the structure graph of a Python source file",
	Long: `Graph parses a Python source file, builds its structure graph and renders
it through Graphviz. Nodes are the module, its global variables, functions,
classes, attributes and methods; edges cover containment, calls and
inheritance. Callees without a definition in the file appear as dashed
external nodes.

Requires a Graphviz layout engine (dot) on the PATH unless engine.path
points elsewhere in .pyscope/config.yaml.

Examples:
  # Render app_structure.png next to the file
  pyscope graph app.py

  # Render an SVG to a chosen path
  pyscope graph app.py --format svg --output docs/structure.svg

  # Emit the DOT source itself
  pyscope graph app.py -f dot`,
	Args: cobra.ExactArgs(1),
	RunE: runGraph,
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringVarP(&graphFormatFlag, "format", "f", "", "Output format: png, svg, pdf or dot (default from config)")
	graphCmd.Flags().StringVarP(&graphOutputFlag, "output", "o", "", "Output path (default <module>_structure.<format>)")
	graphCmd.Flags().BoolVarP(&graphQuietFlag, "quiet", "q", false, "Disable progress output")
}

func runGraph(cmd *cobra.Command, args []string) error {
	// Set up context with cancellation for Ctrl+C
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	format := strings.ToLower(graphFormatFlag)
	if format == "" {
		format = cfg.Output.Format
	}
	if !graph.IsSupportedFormat(format) {
		return fmt.Errorf("unsupported format '%s' (supported: %s)", format, strings.Join(graph.SupportedFormats(), ", "))
	}

	structure, err := analyzer.Analyze(args[0])
	if err != nil {
		return err
	}
	model := graph.Build(structure)

	dest := graphOutputFlag
	if dest == "" {
		dest = filepath.Join(cfg.Output.Dir, structure.ModuleName+"_structure."+format)
	}

	progress := NewCLIProgressReporter(graphQuietFlag)
	progress.OnExportStart(args[0], format)

	exporter := graph.NewExporter(cfg.Engine.Path)
	exportCtx, cancelExport := context.WithTimeout(ctx, time.Duration(cfg.Engine.TimeoutSeconds)*time.Second)
	defer cancelExport()

	artifact, err := exporter.Export(exportCtx, model, dest, format)
	progress.OnExportComplete()
	if err != nil {
		return err
	}

	fmt.Printf("Visualization graph saved to: %s\n", artifact)
	return nil
}
