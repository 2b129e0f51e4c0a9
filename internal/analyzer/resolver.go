package analyzer

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// unresolvedToken stands in for any expression the resolver does not model.
const unresolvedToken = "<?>"

// exprText renders an expression node as its best-effort dotted name.
// Identifiers keep their text, attribute chains join with dots, and calls
// keep the callee shape with the arguments elided ("obj.method(...)").
// Everything else collapses to the unresolved token. Resolution is purely
// syntactic; no symbol table is consulted.
func exprText(node *sitter.Node, source []byte) string {
	if node == nil {
		return unresolvedToken
	}
	switch node.Kind() {
	case "identifier":
		return nodeText(node, source)
	case "attribute":
		obj := node.ChildByFieldName("object")
		attr := node.ChildByFieldName("attribute")
		return exprText(obj, source) + "." + nodeText(attr, source)
	case "call":
		fn := node.ChildByFieldName("function")
		return exprText(fn, source) + "(...)"
	case "parenthesized_expression":
		// Parentheses are grouping only; resolve the inner expression.
		return exprText(node.NamedChild(0), source)
	default:
		return unresolvedToken
	}
}
