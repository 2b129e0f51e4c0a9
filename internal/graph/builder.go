package graph

import (
	"strings"

	"github.com/mvp-joe/pyscope/internal/analyzer"
)

// Build constructs the graph model for an analyzed module. Node and edge
// order is deterministic: declared entities in declaration order, then call
// edges by sorted scope and callee, then inheritance edges.
func Build(s *analyzer.Structure) *Model {
	b := &modelBuilder{
		model:     newModel(s.ModuleName),
		structure: s,
		declared:  make(map[string]bool),
		callable:  make(map[string]bool),
		methods:   make(map[string]bool),
	}
	b.addDeclarations()
	b.addCallEdges()
	b.addInheritsEdges()
	return b.model
}

type modelBuilder struct {
	model     *Model
	structure *analyzer.Structure

	declared map[string]bool // every declared node id, for caller lookups
	callable map[string]bool // global function and class ids
	methods  map[string]bool // method ids
	classes  []string        // class names in declaration order
}

// addDeclarations creates one node per declared entity and the containment
// edges between them, grouped into the module cluster and one cluster per
// class.
func (b *modelBuilder) addDeclarations() {
	s := b.structure
	moduleID := s.ModuleName

	moduleCluster := cluster{
		name:  "module_" + s.ModuleName,
		label: "Module: " + s.ModuleName,
		color: "blue",
		fill:  "#E0FFFF",
	}
	b.declare(&moduleCluster, Node{ID: moduleID, Kind: NodeModule, Label: "Module: " + s.ModuleName})

	if len(s.GlobalVariables) > 0 {
		// One summary box for all module-level variables, keyed off the
		// module id so it can never shadow a declared definition.
		globalsID := moduleID + "_globals"
		b.declare(&moduleCluster, Node{ID: globalsID, Kind: NodeGlobals, Label: "Global Variables"})
		b.model.addEdge(moduleID, globalsID, EdgeDefines)
	}

	for _, fn := range s.Functions {
		id := moduleID + "." + fn.Name
		if b.declare(&moduleCluster, Node{ID: id, Kind: NodeFunction, Label: definitionLabel("Function", fn)}) {
			b.callable[id] = true
		}
		b.model.addEdge(moduleID, id, EdgeContains)
	}
	b.model.clusters = append(b.model.clusters, moduleCluster)

	for _, cls := range s.Classes {
		classID := moduleID + "." + cls.Name
		classCluster := cluster{
			name:  "class_" + cls.Name,
			label: decoratorsPrefix(cls.Decorators) + classLabel(cls),
			color: "darkgreen",
			fill:  "#FFFACD",
		}
		if b.declare(&classCluster, Node{ID: classID, Kind: NodeClass, Label: classLabel(cls)}) {
			b.callable[classID] = true
			b.classes = append(b.classes, cls.Name)
		}
		b.model.addEdge(moduleID, classID, EdgeContains)

		for _, attr := range cls.Attributes {
			attrID := classID + "." + attr.Name
			b.declare(&classCluster, Node{ID: attrID, Kind: NodeAttribute, Label: "Attribute: " + attr.Text()})
			b.model.addEdge(classID, attrID, EdgeHasAttribute)
		}
		for _, m := range cls.Methods {
			methodID := classID + "." + m.Name
			if b.declare(&classCluster, Node{ID: methodID, Kind: NodeMethod, Label: definitionLabel("Method", m)}) {
				b.methods[methodID] = true
			}
			b.model.addEdge(classID, methodID, EdgeContainsMethod)
		}
		b.model.clusters = append(b.model.clusters, classCluster)
	}
}

// declare adds a declared node and records it in the cluster and the lookup
// set. Duplicate declarations keep the first node.
func (b *modelBuilder) declare(c *cluster, n Node) bool {
	if !b.model.addNode(n) {
		return false
	}
	c.nodeIDs = append(c.nodeIDs, n.ID)
	b.declared[n.ID] = true
	return true
}

// addCallEdges connects each recorded call source to its resolved target.
// Unresolvable callees become placeholder nodes and unresolvable callers
// become missing-source nodes, so no recorded call is ever dropped.
// Self-calls produce no edge.
func (b *modelBuilder) addCallEdges() {
	for _, scopeID := range b.structure.Calls.ScopeIDs() {
		callerID := b.resolveCaller(scopeID)
		for _, callee := range b.structure.Calls.Callees(scopeID) {
			calleeID := b.resolveCallee(callee)
			if !b.model.HasNode(calleeID) {
				kind := NodeExternal
				if analyzer.IsControlFlowDescriptor(callee) {
					kind = NodeControlFlow
				}
				b.model.addNode(Node{ID: calleeID, Kind: kind, Label: callee})
			}
			b.model.addEdge(callerID, calleeID, EdgeCalls)
		}
	}
}

// resolveCaller maps a call-map scope identifier onto a declared node. The
// module-name scope is the module node itself; the comparison is against
// the whole name, so module stems containing dots stay intact. Identifiers
// that name no declared entity get a dashed missing-source node in their
// place.
func (b *modelBuilder) resolveCaller(scopeID string) string {
	moduleName := b.structure.ModuleName
	if scopeID == moduleName {
		return moduleName
	}

	candidate := scopeID
	if !strings.HasPrefix(scopeID, moduleName+".") {
		candidate = moduleName + "." + scopeID
	}
	if b.declared[candidate] {
		return candidate
	}
	b.model.addNode(Node{ID: candidate, Kind: NodeMissing, Label: scopeID})
	return candidate
}

// resolveCallee maps a callee descriptor onto a node id: first an exact
// match against a global function or class, then against a declared method,
// tried as a whole Class.member descriptor and then as a bare member name
// against each class in declaration order, and otherwise the descriptor
// itself, which becomes a placeholder node id.
func (b *modelBuilder) resolveCallee(desc string) string {
	qualified := b.structure.ModuleName + "." + desc
	if b.callable[qualified] || b.methods[qualified] {
		return qualified
	}
	for _, clsName := range b.classes {
		if id := b.structure.ModuleName + "." + clsName + "." + desc; b.methods[id] {
			return id
		}
	}
	return desc
}

// addInheritsEdges draws base -> class for each recorded superclass. Bases
// not declared in the module get a placeholder node under the module's id
// space.
func (b *modelBuilder) addInheritsEdges() {
	for _, cls := range b.structure.Classes {
		classID := b.structure.ModuleName + "." + cls.Name
		for _, base := range cls.Bases {
			baseID := b.structure.ModuleName + "." + base
			if !b.model.HasNode(baseID) {
				b.model.addNode(Node{ID: baseID, Kind: NodeExternal, Label: base})
			}
			b.model.addEdge(baseID, classID, EdgeInherits)
		}
	}
}

func definitionLabel(role string, fn analyzer.Function) string {
	label := role + ": " + fn.Name + "(\n" + strings.Join(fn.Args, ", ") + ")"
	if fn.ReturnAnnotation != "" {
		label += " -> " + fn.ReturnAnnotation
	}
	return decoratorsPrefix(fn.Decorators) + label
}

func classLabel(cls analyzer.Class) string {
	label := "Class: " + cls.Name
	if len(cls.Bases) > 0 {
		label += "(" + strings.Join(cls.Bases, ", ") + ")"
	}
	return label
}

func decoratorsPrefix(decorators []string) string {
	if len(decorators) == 0 {
		return ""
	}
	return "Decorators: " + strings.Join(decorators, ", ") + "\n"
}
