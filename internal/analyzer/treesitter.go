package analyzer

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// pythonLang is shared across analyses; tree-sitter languages are immutable.
var pythonLang = sitter.NewLanguage(python.Language())

// nodeText extracts the source text for a node.
func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// firstChildOfKind returns the first direct child with the given kind, or
// nil if none exists.
func firstChildOfKind(node *sitter.Node, kind string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

// hasChildOfKind reports whether the node has a direct child with the given
// kind.
func hasChildOfKind(node *sitter.Node, kind string) bool {
	return firstChildOfKind(node, kind) != nil
}

// firstSyntaxError locates the first error or missing node in the tree and
// returns its 1-based line and column.
func firstSyntaxError(node *sitter.Node) (row, col uint, ok bool) {
	if node == nil {
		return 0, 0, false
	}
	if node.IsError() || node.IsMissing() {
		pos := node.StartPosition()
		return pos.Row + 1, pos.Column + 1, true
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child == nil || !child.HasError() {
			continue
		}
		if r, c, found := firstSyntaxError(child); found {
			return r, c, found
		}
	}
	return 0, 0, false
}
