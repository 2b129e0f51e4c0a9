package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/pyscope/internal/analyzer"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report <file>",
	Short: "Print the structure report of a Python source file",
	Long: `Report parses a Python source file and prints a deterministic text
summary of its structure:

  - imports (direct and from-imports)
  - global variables with annotations and assigned values
  - functions with arguments, decorators, docstrings and calls
  - classes with base classes, attributes and methods
  - module-level calls

Examples:
  # Report on a single file
  pyscope report app.py

  # Page through a large report
  pyscope report app.py | less`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	structure, err := analyzer.Analyze(args[0])
	if err != nil {
		return err
	}

	fmt.Println(analyzer.Render(structure))
	return nil
}
