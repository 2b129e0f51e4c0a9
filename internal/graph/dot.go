package graph

import (
	"fmt"
	"io"
	"strings"
)

// WriteDOT renders the model as Graphviz DOT source. Output is
// deterministic: the same model always produces byte-identical text.
// Declared entities are grouped into a cluster per module and per class;
// placeholder and missing-source nodes sit at the top level.
func WriteDOT(m *Model, w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "// Code Structure of %s\n", m.ModuleName)
	b.WriteString("digraph {\n")
	b.WriteString("\tgraph [bgcolor=\"transparent\", overlap=\"false\", rankdir=\"LR\", splines=\"true\"]\n")
	b.WriteString("\tnode [fontname=\"Helvetica\", fontsize=\"10\", shape=\"box\", style=\"filled\"]\n")
	b.WriteString("\tedge [fontname=\"Helvetica\", fontsize=\"8\"]\n")

	clustered := make(map[string]bool)
	for _, c := range m.clusters {
		fmt.Fprintf(&b, "\tsubgraph %s {\n", quote("cluster_"+c.name))
		fmt.Fprintf(&b, "\t\tcolor=%s\n", quote(c.color))
		fmt.Fprintf(&b, "\t\tfillcolor=%s\n", quote(c.fill))
		fmt.Fprintf(&b, "\t\tlabel=%s\n", quote(c.label))
		b.WriteString("\t\tstyle=\"rounded,filled\"\n")
		for _, id := range c.nodeIDs {
			node, ok := m.Node(id)
			if !ok {
				continue
			}
			clustered[id] = true
			fmt.Fprintf(&b, "\t\t%s [%s]\n", quote(id), nodeAttrs(node))
		}
		b.WriteString("\t}\n")
	}

	for _, n := range m.Nodes {
		if clustered[n.ID] {
			continue
		}
		fmt.Fprintf(&b, "\t%s [%s]\n", quote(n.ID), nodeAttrs(n))
	}

	for _, e := range m.Edges {
		fmt.Fprintf(&b, "\t%s -> %s [%s]\n", quote(e.From), quote(e.To), edgeAttrs(e.Type))
	}

	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// DOT returns the model's DOT source as a string.
func DOT(m *Model) string {
	var b strings.Builder
	// strings.Builder never returns a write error.
	_ = WriteDOT(m, &b)
	return b.String()
}

func nodeAttrs(n Node) string {
	var shape, style, fill, color, fontcolor string
	switch n.Kind {
	case NodeModule:
		shape, style, fill = "folder", "filled", "#ADD8E6"
	case NodeGlobals:
		shape, style, fill, fontcolor = "note", "filled", "grey", "white"
	case NodeFunction:
		shape, style, fill = "ellipse", "filled", "#90EE90"
	case NodeClass:
		shape, style, fill = "component", "filled", "#FFD700"
	case NodeAttribute:
		shape, style, fill = "rectangle", "filled", "#D3D3D3"
	case NodeMethod:
		shape, style, fill = "octagon", "filled", "#FFB6C1"
	case NodeControlFlow:
		shape, style, fill, color = "diamond", "dashed", "white", "gray"
	case NodeMissing:
		shape, style, fill, color = "box", "dashed", "white", "red"
	default:
		// External callees and anything unclassified.
		shape, style, fill, color = "box", "dashed", "white", "gray"
	}

	parts := make([]string, 0, 6)
	if color != "" {
		parts = append(parts, "color="+quote(color))
	}
	parts = append(parts, "fillcolor="+quote(fill))
	if fontcolor != "" {
		parts = append(parts, "fontcolor="+quote(fontcolor))
	}
	parts = append(parts,
		"label="+quote(n.Label),
		"shape="+quote(shape),
		"style="+quote(style),
	)
	return strings.Join(parts, ", ")
}

func edgeAttrs(t EdgeType) string {
	switch t {
	case EdgeCalls:
		return `color="purple", label="calls"`
	case EdgeInherits:
		return `arrowhead="empty", label="inherits", style="dashed"`
	default:
		return "label=" + quote(string(t))
	}
}

// quote escapes and double-quotes a DOT identifier or attribute value.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
