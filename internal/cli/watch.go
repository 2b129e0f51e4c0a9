package cli

import (
	"context"
	"fmt"
	"log"
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
	"github.com/mvp-joe/pyscope/internal/watch"
)

var (
	watchGraphFlag     bool
	watchFormatFlag    string
	watchOutputDirFlag string
	watchQuietFlag     bool
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <path>...",
	Short: "Re-analyze Python source files whenever they change",
	Long: `Watch takes files and directories, prints the structure report of each
named file, and then keeps watching: every changed Python file is
re-analyzed independently and its refreshed report printed. Directory
arguments are watched recursively with the include and ignore globs
from the configuration. Changes are debounced so editor save bursts
produce a single pass. A failing pass keeps the watcher alive; the
next save is analyzed again.

Examples:
  # Reprint the report on every save
  pyscope watch app.py

  # Watch a source tree and re-render graphs as files change
  pyscope watch src/ --graph --format svg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVarP(&watchGraphFlag, "graph", "g", false, "Also render the structure graph on every pass")
	watchCmd.Flags().StringVarP(&watchFormatFlag, "format", "f", "", "Graph output format: png, svg, pdf or dot (default from config)")
	watchCmd.Flags().StringVar(&watchOutputDirFlag, "output-dir", "", "Directory for rendered graphs (default from config)")
	watchCmd.Flags().BoolVarP(&watchQuietFlag, "quiet", "q", false, "Disable non-error output between passes")
}

func runWatch(cmd *cobra.Command, args []string) error {
	// Set up context with cancellation for Ctrl+C
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nStopping watch...")
		cancel()
	}()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	format := strings.ToLower(watchFormatFlag)
	if format == "" {
		format = cfg.Output.Format
	}
	if watchGraphFlag && !graph.IsSupportedFormat(format) {
		return fmt.Errorf("unsupported format '%s' (supported: %s)", format, strings.Join(graph.SupportedFormats(), ", "))
	}

	outputDir := watchOutputDirFlag
	if outputDir == "" {
		outputDir = cfg.Output.Dir
	}

	// Each changed file is analyzed on its own; one broken file never
	// blocks reports for the others.
	pass := func(path string) error {
		structure, err := analyzer.Analyze(path)
		if err != nil {
			return err
		}
		fmt.Println(analyzer.Render(structure))

		if !watchGraphFlag {
			return nil
		}
		model := graph.Build(structure)
		dest := filepath.Join(outputDir, structure.ModuleName+"_structure."+format)

		exporter := graph.NewExporter(cfg.Engine.Path)
		exportCtx, cancelExport := context.WithTimeout(ctx, time.Duration(cfg.Engine.TimeoutSeconds)*time.Second)
		defer cancelExport()

		artifact, err := exporter.Export(exportCtx, model, dest, format)
		if err != nil {
			return err
		}
		fmt.Printf("Visualization graph saved to: %s\n", artifact)
		return nil
	}

	watcher, err := watch.New(watch.Options{
		Patterns: cfg.Watch.Patterns,
		Ignore:   cfg.Watch.Ignore,
		Debounce: time.Duration(cfg.Watch.DebounceMs) * time.Millisecond,
	}, func(paths []string) {
		for _, path := range paths {
			if !watchQuietFlag {
				log.Printf("Change detected, re-analyzing %s", filepath.Base(path))
			}
			// Later passes keep the watcher alive on failure.
			if err := pass(path); err != nil {
				log.Printf("Analysis failed: %v", err)
			}
		}
	})
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Stop()

	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("could not resolve path '%s': %w", arg, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return fmt.Errorf("cannot watch '%s': %w", arg, err)
		}
		if info.IsDir() {
			if err := watcher.AddRoot(abs); err != nil {
				return fmt.Errorf("failed to watch '%s': %w", arg, err)
			}
			continue
		}
		if err := watcher.AddFile(abs); err != nil {
			return fmt.Errorf("failed to watch '%s': %w", arg, err)
		}
		// A named file that does not analyze at startup is a hard error.
		if err := pass(abs); err != nil {
			return err
		}
	}

	watcher.Start(ctx)

	if !watchQuietFlag {
		log.Printf("Watching %s for changes (Ctrl+C to stop)", strings.Join(args, ", "))
	}
	<-ctx.Done()
	return nil
}
