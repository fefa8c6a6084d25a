package depgraph

import (
	"github.com/ormasoftchile/formengine/pkg/ir"
	"github.com/ormasoftchile/formengine/pkg/registry"
)

// direction says which end of a ChildRef is the dependency when adding
// the graph edge.
type direction int

const (
	childIsDependency direction = iota // operand -> consumer (the common case)
	parentIsDependency                 // parent -> child (structural containment)
)

// edgeSpec classifies one (parentKind, property) pair, matching spec.md
// §4.5's wiring table. Properties not listed fall back to DataFlow,
// childIsDependency, which is safe for any expression operand this table
// does not special-case.
func edgeSpec(parentKind ir.Kind, property string) (EdgeType, direction) {
	switch parentKind {
	case ir.KindJourney:
		switch property {
		case "children", "steps":
			return Structural, parentIsDependency
		case "onLoad", "onAccess":
			return ControlFlow, childIsDependency
		}
	case ir.KindStep:
		switch property {
		case "blocks":
			return Structural, parentIsDependency
		case "onLoad", "onAccess", "onAction", "onSubmission":
			return ControlFlow, childIsDependency
		}
	case ir.KindSubmit:
		return ControlFlow, childIsDependency
	}
	return DataFlow, childIsDependency
}

// WireStatic builds the graph edges that hold for every step artefact:
// structural containment, expression data-flow, and transition control
// flow. It does not include pseudo-node edges, which are step-scope (a
// pseudo-node is only relevant, and only wired, for the steps that
// reference it) — see WireStepScope.
func WireStatic(reg *registry.NodeRegistry) *Graph {
	g := New()
	for _, id := range reg.All() {
		n, ok := reg.Node(id)
		if !ok {
			continue
		}
		g.AddNode(id)
		for _, ref := range ir.Children(n) {
			typ, dir := edgeSpec(n.Kind, ref.Property)
			if dir == parentIsDependency {
				g.AddEdge(n.ID, ref.ID, typ, ref.Property, ref.Index)
			} else {
				g.AddEdge(ref.ID, n.ID, typ, ref.Property, ref.Index)
			}
		}
	}
	return g
}

// WireStepScope adds pseudo-node edges relevant to one compiled step:
// each Reference whose base namespace resolves to a pseudo-node gets a
// DATA_FLOW edge from that pseudo-node to itself. Answers prefer the
// local pseudo-node (the field's own FieldBlock) when the field is part
// of the relevant set for this step; otherwise AnswerRemote is wired.
func WireStepScope(reg *registry.NodeRegistry, g *Graph, relevant map[ir.NodeID]bool) {
	for refID := range relevant {
		ref, ok := reg.Node(refID)
		if !ok || ref.Kind != ir.KindReference || len(ref.RefPath) == 0 {
			continue
		}
		root, ok := ref.RefPath[0].(string)
		if !ok {
			continue
		}
		switch root {
		case "answers":
			if len(ref.RefPath) < 2 {
				continue
			}
			code, ok := ref.RefPath[1].(string)
			if !ok {
				continue
			}
			if localID, ok := reg.ByPseudoKey(ir.KindAnswerLocal, code); ok && relevant[fieldOwnerOf(reg, localID)] {
				g.AddEdge(localID, refID, DataFlow, "answers", -1)
			} else if remoteID, ok := reg.ByPseudoKey(ir.KindAnswerRemote, code); ok {
				g.AddEdge(remoteID, refID, DataFlow, "answers", -1)
			}
		case "query", "params", "data":
			if len(ref.RefPath) < 2 {
				continue
			}
			key, ok := ref.RefPath[1].(string)
			if !ok {
				continue
			}
			var kind ir.Kind
			switch root {
			case "query":
				kind = ir.KindQuery
			case "params":
				kind = ir.KindParams
			case "data":
				kind = ir.KindData
			}
			if id, ok := reg.ByPseudoKey(kind, key); ok {
				g.AddEdge(id, refID, DataFlow, root, -1)
			}
		}
	}
}

// fieldOwnerOf returns the FieldBlock id an AnswerLocal pseudo-node is
// attached to, so WireStepScope can check whether that field is itself
// part of the step's relevant set.
func fieldOwnerOf(reg *registry.NodeRegistry, answerLocalID ir.NodeID) ir.NodeID {
	n, ok := reg.Node(answerLocalID)
	if !ok {
		return ""
	}
	return n.FieldNodeID
}
