package analyzer

import (
	"fmt"
	"sort"
	"strings"
)

// Render formats a Structure as the text report. Output is deterministic:
// import and call sets are deduplicated and sorted, declaration-ordered
// sequences keep source order, and a section is emitted only when it has
// content. Synthetic control-flow descriptors never appear in the report.
func Render(s *Structure) string {
	var out []string
	out = append(out, fmt.Sprintf("--- Module: %s ---", s.ModuleName))

	if len(s.Imports.Direct) > 0 || len(s.Imports.From) > 0 {
		out = append(out, "\n--- Imports ---")
		for _, imp := range sortedUnique(s.Imports.Direct) {
			out = append(out, fmt.Sprintf("  - import %s", imp))
		}
		for _, imp := range sortedUnique(s.Imports.From) {
			if first, rest, ok := strings.Cut(imp, "."); ok {
				out = append(out, fmt.Sprintf("  - from %s import %s", first, rest))
			} else {
				out = append(out, fmt.Sprintf("  - from . import %s", imp))
			}
		}
	}

	if len(s.GlobalVariables) > 0 {
		out = append(out, "\n--- Global Variables ---")
		for _, v := range s.GlobalVariables {
			out = append(out, "  - "+v.Text())
		}
	}

	if len(s.Functions) > 0 {
		out = append(out, "\n--- Global Functions ---")
		for _, fn := range s.Functions {
			out = append(out, definitionHeader(fn, "  "))
			out = appendDocAndCalls(out, s, fn, s.ModuleName+"."+fn.Name, "    ")
		}
	}

	if len(s.Classes) > 0 {
		out = append(out, "\n--- Classes ---")
		for _, cls := range s.Classes {
			out = append(out, classHeader(cls))
			if cls.Docstring != "" {
				out = append(out, fmt.Sprintf(`    Doc: """%s"""`, firstDocLine(cls.Docstring)))
			}
			if len(cls.Attributes) > 0 {
				out = append(out, "    --- Class Attributes ---")
				for _, attr := range cls.Attributes {
					out = append(out, "    - "+attr.Text())
				}
			}
			if len(cls.Methods) > 0 {
				out = append(out, "    --- Methods ---")
				for _, m := range cls.Methods {
					out = append(out, definitionHeader(m, "      "))
					out = appendDocAndCalls(out, s, m, s.ModuleName+"."+cls.Name+"."+m.Name, "        ")
				}
			}
		}
	}

	if calls := reportableCallees(s.Calls, s.ModuleName); len(calls) > 0 {
		out = append(out, "\n--- Module-Level Calls ---")
		for _, callee := range calls {
			out = append(out, "  - "+callee)
		}
	}

	return strings.Join(out, "\n")
}

// definitionHeader renders a def line at the given indent, preceded by one
// line per decorator. The decorator lines are embedded in the same entry.
func definitionHeader(fn Function, indent string) string {
	var sb strings.Builder
	for _, d := range fn.Decorators {
		sb.WriteString(indent + "@" + d + "\n")
	}
	sb.WriteString(indent + "def " + fn.Name + "(" + strings.Join(fn.Args, ", ") + ")")
	if fn.ReturnAnnotation != "" {
		sb.WriteString(" -> " + fn.ReturnAnnotation)
	}
	return sb.String()
}

func classHeader(cls Class) string {
	var sb strings.Builder
	for _, d := range cls.Decorators {
		sb.WriteString("  @" + d + "\n")
	}
	sb.WriteString("  class " + cls.Name)
	if len(cls.Bases) > 0 {
		sb.WriteString("(" + strings.Join(cls.Bases, ", ") + ")")
	}
	sb.WriteString(":")
	return sb.String()
}

// appendDocAndCalls emits a definition's docstring line and call list.
// The call list is looked up under scopeID; a list emptied by control-flow
// filtering is omitted entirely.
func appendDocAndCalls(out []string, s *Structure, fn Function, scopeID, indent string) []string {
	if fn.Docstring != "" {
		out = append(out, fmt.Sprintf(`%sDoc: """%s"""`, indent, firstDocLine(fn.Docstring)))
	}
	if callees := reportableCallees(s.Calls, scopeID); len(callees) > 0 {
		out = append(out, indent+"Calls:")
		for _, callee := range callees {
			out = append(out, indent+"  - "+callee)
		}
	}
	return out
}

// reportableCallees returns the sorted callee descriptors for a scope with
// synthetic control-flow descriptors filtered out.
func reportableCallees(calls CallMap, scopeID string) []string {
	var out []string
	for _, callee := range calls.Callees(scopeID) {
		if IsControlFlowDescriptor(callee) {
			continue
		}
		out = append(out, callee)
	}
	return out
}

// firstDocLine returns the first line of a docstring after trimming the
// surrounding whitespace.
func firstDocLine(doc string) string {
	doc = strings.TrimSpace(doc)
	if i := strings.IndexByte(doc, '\n'); i >= 0 {
		doc = doc[:i]
	}
	return strings.TrimRight(doc, "\r")
}

// sortedUnique deduplicates and sorts a list of strings. Returns nil for
// an empty input.
func sortedUnique(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}
