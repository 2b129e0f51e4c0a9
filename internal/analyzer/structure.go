package analyzer

import (
	"sort"
	"strings"
)

// Structure is the complete structural model of one Python module. It is
// produced in a single pass over the syntax tree and is safe to share
// read-only across goroutines afterwards.
type Structure struct {
	// ModuleName is the source file's stem (base name without extension).
	ModuleName string

	// GlobalVariables holds module-level assignments in declaration order.
	GlobalVariables []Variable

	// Functions holds module-level function definitions in declaration
	// order. Definitions nested inside other functions land here too.
	Functions []Function

	// Classes holds class definitions in declaration order.
	Classes []Class

	// Imports holds the module's import records.
	Imports Imports

	// Calls maps scope identifiers to the callee descriptors observed in
	// that scope.
	Calls CallMap
}

// Imports separates plain "import x" records from "from x import y" records.
// Both lists keep encounter order; deduplication and sorting happen at
// render time.
type Imports struct {
	Direct []string
	From   []string
}

// Variable is one assignment target. Annotation and ValueText are empty
// when the source carries no annotation or no value.
type Variable struct {
	Name       string
	Annotation string
	ValueText  string
}

// Text renders the variable as "name[: annotation][ = value]".
func (v Variable) Text() string {
	text := v.Name
	if v.Annotation != "" {
		text += ": " + v.Annotation
	}
	if v.ValueText != "" {
		text += " = " + v.ValueText
	}
	return text
}

// Function describes a function or method definition. Args are the rendered
// parameter slots including annotations and defaults. ReturnAnnotation and
// Docstring are empty when absent.
type Function struct {
	Name             string
	Args             []string
	Docstring        string
	ReturnAnnotation string
	Decorators       []string
}

// Class describes a class definition. Bases keeps only superclass
// expressions the resolver can name (identifiers and attribute chains).
type Class struct {
	Name       string
	Bases      []string
	Docstring  string
	Decorators []string
	Attributes []Variable
	Methods    []Function
}

// MethodByName returns the first method with the given name, if any.
func (c *Class) MethodByName(name string) (Function, bool) {
	for _, m := range c.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return Function{}, false
}

// ClassByName returns the first class with the given name, if any. Lookups
// are first-match so duplicate definitions resolve to the earliest one.
func (s *Structure) ClassByName(name string) (*Class, bool) {
	for i := range s.Classes {
		if s.Classes[i].Name == name {
			return &s.Classes[i], true
		}
	}
	return nil, false
}

// FunctionByName returns the first module-level function with the given
// name, if any.
func (s *Structure) FunctionByName(name string) (Function, bool) {
	for _, fn := range s.Functions {
		if fn.Name == name {
			return fn, true
		}
	}
	return Function{}, false
}

// CallMap records, per scope identifier, the set of callee descriptors seen
// in that scope. Descriptors deduplicate per scope; the map carries no
// ordering of its own.
type CallMap map[string]map[string]struct{}

// Add records a callee descriptor under a scope identifier, creating the
// scope's set on first use.
func (m CallMap) Add(scopeID, callee string) {
	set, ok := m[scopeID]
	if !ok {
		set = make(map[string]struct{})
		m[scopeID] = set
	}
	set[callee] = struct{}{}
}

// Callees returns the descriptors recorded under scopeID in lexicographic
// order, or nil when the scope has none.
func (m CallMap) Callees(scopeID string) []string {
	set := m[scopeID]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for callee := range set {
		out = append(out, callee)
	}
	sort.Strings(out)
	return out
}

// ScopeIDs returns all scope identifiers with recorded callees in
// lexicographic order.
func (m CallMap) ScopeIDs() []string {
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Synthetic callee descriptors for control-flow constructs. They live in
// the call map alongside real call targets but are filtered out of the text
// report; only the graph view draws them.
const (
	conditionPrefix = "Condition: "
	forLoopPrefix   = "For Loop: "
	whileLoopPrefix = "While Loop: "
)

// IsControlFlowDescriptor reports whether a callee descriptor is a
// synthetic control-flow label rather than a call target.
func IsControlFlowDescriptor(desc string) bool {
	return strings.HasPrefix(desc, conditionPrefix) ||
		strings.HasPrefix(desc, forLoopPrefix) ||
		strings.HasPrefix(desc, whileLoopPrefix)
}
