// Package analyzer turns one Python source file into a structural model:
// imports, global variables, functions, classes with their members, and a
// per-scope call map. The model feeds the text report renderer in this
// package and the graph builder in internal/graph.
package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Analyze reads and parses the Python source file at path and extracts its
// structural model. It returns either a complete Structure or a classified
// error; there are no partial results.
func Analyze(path string) (*Structure, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: '%s'", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w '%s': %v", ErrRead, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w '%s': is a directory", ErrRead, path)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w '%s': %v", ErrRead, path, err)
	}

	s, err := AnalyzeSource(ModuleName(path), source)
	if err != nil {
		return nil, fmt.Errorf("file '%s' %w", path, err)
	}
	return s, nil
}

// AnalyzeSource parses source as Python and extracts its structural model
// under the given module name. Most callers want Analyze, which derives the
// module name from the file path and classifies I/O failures.
func AnalyzeSource(moduleName string, source []byte) (*Structure, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(pythonLang)

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("%w: parser produced no tree", ErrParse)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		if row, col, ok := firstSyntaxError(root); ok {
			return nil, fmt.Errorf("contains %w at line %d, column %d", ErrSyntax, row, col)
		}
		return nil, fmt.Errorf("contains %w", ErrSyntax)
	}

	return newExtractor(moduleName, source).extract(root), nil
}

// ModuleName derives the module name from a file path: the base name with
// its extension removed.
func ModuleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
