package analyzer

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// nodeKind enumerates the syntactic constructs the extractor reacts to.
// The walk dispatches on this closed set; every other construct takes the
// generic descent path.
type nodeKind int

const (
	kindOther nodeKind = iota
	kindClassDef
	kindFunctionDef
	kindDecoratedDef
	kindAssignment
	kindImport
	kindImportFrom
	kindCall
	kindIf
	kindFor
	kindWhile
)

func kindOf(node *sitter.Node) nodeKind {
	switch node.Kind() {
	case "class_definition":
		return kindClassDef
	case "function_definition":
		return kindFunctionDef
	case "decorated_definition":
		return kindDecoratedDef
	case "assignment":
		return kindAssignment
	case "import_statement":
		return kindImport
	case "import_from_statement":
		return kindImportFrom
	case "call":
		return kindCall
	case "if_statement", "elif_clause":
		return kindIf
	case "for_statement":
		return kindFor
	case "while_statement":
		return kindWhile
	default:
		return kindOther
	}
}

// scopeContext tracks the chain of enclosing definition names during
// extraction. Contexts are immutable; push returns a copy, which keeps the
// recursive walk reentrant and every scope identifier stable once formed.
type scopeContext struct {
	module string
	names  []string
}

func newScopeContext(module string) scopeContext {
	return scopeContext{module: module}
}

func (s scopeContext) push(name string) scopeContext {
	names := make([]string, 0, len(s.names)+1)
	names = append(names, s.names...)
	names = append(names, name)
	return scopeContext{module: s.module, names: names}
}

// id is the identifier calls are recorded under. At module level it is the
// module name itself; nested scopes append definition names with dots.
func (s scopeContext) id() string {
	if len(s.names) == 0 {
		return s.module
	}
	return s.module + "." + strings.Join(s.names, ".")
}

// innermost returns the nearest enclosing definition name, or "" at module
// level.
func (s scopeContext) innermost() string {
	if len(s.names) == 0 {
		return ""
	}
	return s.names[len(s.names)-1]
}

func (s scopeContext) atModuleLevel() bool { return len(s.names) == 0 }

// extractor builds a Structure from one syntax tree. It is single-use.
type extractor struct {
	source    []byte
	structure *Structure
}

func newExtractor(moduleName string, source []byte) *extractor {
	return &extractor{
		source: source,
		structure: &Structure{
			ModuleName: moduleName,
			Calls:      make(CallMap),
		},
	}
}

func (e *extractor) extract(root *sitter.Node) *Structure {
	e.walk(root, newScopeContext(e.structure.ModuleName))
	return e.structure
}

func (e *extractor) walk(node *sitter.Node, scope scopeContext) {
	switch kindOf(node) {
	case kindClassDef:
		e.handleClass(node, scope, nil, nil)
	case kindFunctionDef:
		e.handleFunction(node, scope, nil, nil)
	case kindDecoratedDef:
		e.handleDecorated(node, scope)
	case kindAssignment:
		e.handleAssignment(node, scope)
		e.walkChildren(node, scope)
	case kindImport:
		e.handleImport(node)
	case kindImportFrom:
		e.handleImportFrom(node)
	case kindCall:
		e.handleCall(node, scope)
		e.walkChildren(node, scope)
	case kindIf:
		e.handleConditional(node, scope, conditionPrefix)
		e.walkChildren(node, scope)
	case kindFor:
		e.handleFor(node, scope)
		e.walkChildren(node, scope)
	case kindWhile:
		e.handleConditional(node, scope, whileLoopPrefix)
		e.walkChildren(node, scope)
	case kindOther:
		e.walkChildren(node, scope)
	}
}

func (e *extractor) walkChildren(node *sitter.Node, scope scopeContext) {
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(uint(i)); child != nil {
			e.walk(child, scope)
		}
	}
}

// handleDecorated resolves the decorator expressions, then dispatches into
// the wrapped definition. The decorator nodes ride along so their
// expressions are walked inside the definition's scope, where any calls
// they make belong.
func (e *extractor) handleDecorated(node *sitter.Node, scope scopeContext) {
	var names []string
	var decoratorNodes []*sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child == nil || child.Kind() != "decorator" {
			continue
		}
		decoratorNodes = append(decoratorNodes, child)
		if expr := child.NamedChild(0); expr != nil {
			names = append(names, exprText(expr, e.source))
		}
	}

	def := node.ChildByFieldName("definition")
	if def == nil {
		return
	}
	switch def.Kind() {
	case "class_definition":
		e.handleClass(def, scope, names, decoratorNodes)
	case "function_definition":
		e.handleFunction(def, scope, names, decoratorNodes)
	}
}

func (e *extractor) handleClass(node *sitter.Node, scope scopeContext, decorators []string, decoratorNodes []*sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		e.walkChildren(node, scope)
		return
	}
	name := nodeText(nameNode, e.source)

	// Register before descending: member definitions attach by looking the
	// class up by name while its scope is open.
	e.structure.Classes = append(e.structure.Classes, Class{
		Name:       name,
		Bases:      e.classBases(node),
		Docstring:  e.docstring(node),
		Decorators: decorators,
	})

	pushed := scope.push(name)
	for _, d := range decoratorNodes {
		e.walk(d, pushed)
	}
	e.walkChildren(node, pushed)
}

func (e *extractor) handleFunction(node *sitter.Node, scope scopeContext, decorators []string, decoratorNodes []*sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		e.walkChildren(node, scope)
		return
	}
	name := nodeText(nameNode, e.source)

	fn := Function{
		Name:             name,
		Args:             e.functionArgs(node),
		Docstring:        e.docstring(node),
		ReturnAnnotation: e.annotationText(node.ChildByFieldName("return_type")),
		Decorators:       decorators,
	}

	// A definition whose innermost enclosing scope names a known class is
	// that class's method. Everything else, functions nested inside other
	// functions included, lands in the module-level list.
	if idx := e.classIndex(scope.innermost()); !scope.atModuleLevel() && idx >= 0 {
		e.structure.Classes[idx].Methods = append(e.structure.Classes[idx].Methods, fn)
	} else {
		e.structure.Functions = append(e.structure.Functions, fn)
	}

	pushed := scope.push(name)
	for _, d := range decoratorNodes {
		e.walk(d, pushed)
	}
	e.walkChildren(node, pushed)
}

// classIndex returns the index of the first class with the given name, or
// -1 when none matches.
func (e *extractor) classIndex(name string) int {
	for i := range e.structure.Classes {
		if e.structure.Classes[i].Name == name {
			return i
		}
	}
	return -1
}

// classBases keeps only identifier- and attribute-shaped superclass
// expressions, the shapes the resolver can name. Keyword arguments such as
// metaclass= and computed bases are dropped.
func (e *extractor) classBases(node *sitter.Node) []string {
	supers := node.ChildByFieldName("superclasses")
	if supers == nil {
		return nil
	}
	var bases []string
	for i := 0; i < int(supers.NamedChildCount()); i++ {
		child := supers.NamedChild(uint(i))
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "identifier", "attribute":
			bases = append(bases, exprText(child, e.source))
		}
	}
	return bases
}

// paramSlot is one named parameter while defaults are being redistributed.
type paramSlot struct {
	name   string
	ann    string
	def    string
	kwonly bool
}

// functionArgs renders the parameter list. Slots are the named parameters
// only; *args, **kwargs and the bare separators contribute no slot. Default
// values detach from positional slots and re-bind right-aligned over the
// trailing slots of the entire list, so a lone positional default can land
// past the star. Keyword-only defaults stay on their own slots.
func (e *extractor) functionArgs(node *sitter.Node) []string {
	params := node.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}

	var slots []paramSlot
	kwonly := false
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(uint(i))
		if p == nil {
			continue
		}
		switch p.Kind() {
		case "identifier":
			slots = append(slots, paramSlot{name: nodeText(p, e.source), kwonly: kwonly})
		case "typed_parameter":
			inner := p.NamedChild(0)
			if inner == nil {
				continue
			}
			if inner.Kind() != "identifier" {
				// "*args: T" opens the keyword-only section; "**kwargs: T"
				// contributes nothing.
				if inner.Kind() == "list_splat_pattern" {
					kwonly = true
				}
				continue
			}
			slots = append(slots, paramSlot{
				name:   nodeText(inner, e.source),
				ann:    e.annotationText(p.ChildByFieldName("type")),
				kwonly: kwonly,
			})
		case "default_parameter":
			nameNode := p.ChildByFieldName("name")
			if nameNode == nil || nameNode.Kind() != "identifier" {
				continue
			}
			slots = append(slots, paramSlot{
				name:   nodeText(nameNode, e.source),
				def:    exprText(p.ChildByFieldName("value"), e.source),
				kwonly: kwonly,
			})
		case "typed_default_parameter":
			nameNode := p.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			slots = append(slots, paramSlot{
				name:   nodeText(nameNode, e.source),
				ann:    e.annotationText(p.ChildByFieldName("type")),
				def:    exprText(p.ChildByFieldName("value"), e.source),
				kwonly: kwonly,
			})
		case "keyword_separator", "list_splat_pattern":
			kwonly = true
		}
	}

	// Pull positional defaults off their slots.
	var posDefaults []string
	for i := range slots {
		if slots[i].kwonly {
			continue
		}
		if slots[i].def != "" {
			posDefaults = append(posDefaults, slots[i].def)
			slots[i].def = ""
		}
	}

	args := make([]string, len(slots))
	for i, s := range slots {
		args[i] = s.name
		if s.ann != "" {
			args[i] += ": " + s.ann
		}
	}

	// Positional defaults right-align over the whole list, keyword-only slots
	// included; keyword-only defaults then bind each to its own slot.
	offset := len(slots) - len(posDefaults)
	for j, d := range posDefaults {
		args[offset+j] += "=" + d
	}
	for i, s := range slots {
		if s.kwonly && s.def != "" {
			args[i] += "=" + s.def
		}
	}
	return args
}

// annotationText unwraps a type node to its inner expression and resolves
// it. Returns "" when there is no annotation.
func (e *extractor) annotationText(typeNode *sitter.Node) string {
	if typeNode == nil {
		return ""
	}
	inner := typeNode.NamedChild(0)
	if inner == nil {
		return ""
	}
	return exprText(inner, e.source)
}

// docstring returns the content of a definition body's leading string
// literal, or "" when the body starts with anything else. F-strings do not
// count as docstrings.
func (e *extractor) docstring(def *sitter.Node) string {
	body := def.ChildByFieldName("body")
	if body == nil {
		return ""
	}
	first := body.NamedChild(0)
	if first == nil || first.Kind() != "expression_statement" {
		return ""
	}
	str := first.NamedChild(0)
	if str == nil || str.Kind() != "string" || hasChildOfKind(str, "interpolation") {
		return ""
	}
	return stripStringQuotes(nodeText(str, e.source))
}

// stripStringQuotes removes prefix letters (r, b, u, f in any combination)
// and the surrounding quote pair from a string literal's source text.
func stripStringQuotes(text string) string {
	i := 0
	for i < len(text) && text[i] != '"' && text[i] != '\'' {
		i++
	}
	text = text[i:]
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(text) >= 2*len(q) && strings.HasPrefix(text, q) && strings.HasSuffix(text, q) {
			return text[len(q) : len(text)-len(q)]
		}
	}
	return text
}

// handleAssignment records single-identifier assignment targets. Tuple and
// attribute targets are skipped. Module-level targets become global
// variables. Targets in any nested scope attach as attributes of the class
// named by the innermost scope when one exists and are dropped otherwise;
// a function sharing its name with a class therefore leaks its locals into
// that class's attribute list. Kept as-is, see DESIGN.md.
func (e *extractor) handleAssignment(node *sitter.Node, scope scopeContext) {
	left := node.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return
	}

	v := Variable{
		Name:       nodeText(left, e.source),
		Annotation: e.annotationText(node.ChildByFieldName("type")),
	}
	// Chained assignments nest to the right; every target resolves against
	// the final value expression.
	right := node.ChildByFieldName("right")
	for right != nil && right.Kind() == "assignment" {
		right = right.ChildByFieldName("right")
	}
	if right != nil {
		v.ValueText = exprText(right, e.source)
	}

	if scope.atModuleLevel() {
		e.structure.GlobalVariables = append(e.structure.GlobalVariables, v)
		return
	}
	if idx := e.classIndex(scope.innermost()); idx >= 0 {
		e.structure.Classes[idx].Attributes = append(e.structure.Classes[idx].Attributes, v)
	}
}

func (e *extractor) handleImport(node *sitter.Node) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(uint(i))
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			e.structure.Imports.Direct = append(e.structure.Imports.Direct, nodeText(child, e.source))
		case "aliased_import":
			// "import numpy as np" records numpy; the alias is dropped.
			if name := child.ChildByFieldName("name"); name != nil {
				e.structure.Imports.Direct = append(e.structure.Imports.Direct, nodeText(name, e.source))
			}
		}
	}
}

// handleImportFrom records "module.name" per imported name, or the bare
// name for relative imports with no module path ("from . import x").
func (e *extractor) handleImportFrom(node *sitter.Node) {
	moduleNode := node.ChildByFieldName("module_name")
	module := importModuleText(moduleNode, e.source)

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(uint(i))
		if child == nil || (moduleNode != nil && child.StartByte() == moduleNode.StartByte()) {
			continue
		}
		var name string
		switch child.Kind() {
		case "dotted_name":
			name = nodeText(child, e.source)
		case "aliased_import":
			if n := child.ChildByFieldName("name"); n != nil {
				name = nodeText(n, e.source)
			}
		case "wildcard_import":
			name = "*"
		}
		if name == "" {
			continue
		}
		if module != "" {
			name = module + "." + name
		}
		e.structure.Imports.From = append(e.structure.Imports.From, name)
	}
}

// importModuleText extracts the module path of a from-import. Leading dots
// of relative imports are dropped, so "from .pkg import x" records pkg.x.
func importModuleText(moduleNode *sitter.Node, source []byte) string {
	if moduleNode == nil {
		return ""
	}
	switch moduleNode.Kind() {
	case "dotted_name":
		return nodeText(moduleNode, source)
	case "relative_import":
		if dotted := firstChildOfKind(moduleNode, "dotted_name"); dotted != nil {
			return nodeText(dotted, source)
		}
	}
	return ""
}

func (e *extractor) handleCall(node *sitter.Node, scope scopeContext) {
	callee := exprText(node.ChildByFieldName("function"), e.source)
	e.structure.Calls.Add(scope.id(), callee)
}

// handleConditional records a synthetic descriptor for an if, elif or
// while condition.
func (e *extractor) handleConditional(node *sitter.Node, scope scopeContext, prefix string) {
	cond := exprText(node.ChildByFieldName("condition"), e.source)
	e.structure.Calls.Add(scope.id(), prefix+cond)
}

func (e *extractor) handleFor(node *sitter.Node, scope scopeContext) {
	iter := exprText(node.ChildByFieldName("right"), e.source)
	e.structure.Calls.Add(scope.id(), forLoopPrefix+iter)
}
