// Package normalize implements the two IR rewrite passes that run after
// the NodeFactory and before registration: injecting an implicit
// self-reference into field format pipelines, and resolving Self()
// markers against the nearest enclosing field.
package normalize

import (
	"github.com/ormasoftchile/formengine/pkg/ir"
	"github.com/ormasoftchile/formengine/pkg/traverse"
)

// AddSelfValueToFields walks every FieldBlock (a Block with Code set) and,
// when it carries a FormatPipeline, ensures that pipeline's Input is set.
// If the declarative input left Input empty, this injects a synthetic
// Reference(['@scope','@value']) so the pipeline implicitly operates on
// the field's own in-flight value.
func AddSelfValueToFields(nodes map[ir.NodeID]*ir.Node, ids *ir.IDGenerator) {
	for _, n := range nodes {
		if n.Kind != ir.KindBlock || n.Code == "" || n.FormatPipeline == "" {
			continue
		}
		pipeline, ok := nodes[n.FormatPipeline]
		if !ok || pipeline.Input != "" {
			continue
		}
		refID := ids.NextCompile(ir.KindReference)
		nodes[refID] = &ir.Node{
			ID:      refID,
			Kind:    ir.KindReference,
			RefPath: []any{"@scope", "@value"},
		}
		pipeline.Input = refID
	}
}

// ResolveSelfReferences replaces every KindSelf marker with a Reference
// into the nearest enclosing FieldBlock's own answer, i.e.
// Reference(['answers', field.code]). It walks nodes depth-first from root
// with the structural traverser, keeping a stack of enclosing FieldBlocks,
// so it needs no registry and runs before registry.Build. A Self marker
// with no enclosing FieldBlock is left as KindSelf.
func ResolveSelfReferences(nodes map[ir.NodeID]*ir.Node, root ir.NodeID, ids *ir.IDGenerator) {
	v := &selfResolver{nodes: nodes, ids: ids}
	t := traverse.New(traverse.MapResolver(nodes))
	t.Walk(root, v)
}

type selfResolver struct {
	nodes       map[ir.NodeID]*ir.Node
	ids         *ir.IDGenerator
	fieldStack  []ir.NodeID
}

func (v *selfResolver) EnterNode(n *ir.Node, ctx traverse.Context) traverse.Action {
	if n.Kind == ir.KindBlock && n.Code != "" {
		v.fieldStack = append(v.fieldStack, n.ID)
	}
	if n.Kind == ir.KindSelf && len(v.fieldStack) > 0 {
		owner := v.nodes[v.fieldStack[len(v.fieldStack)-1]]
		n.Kind = ir.KindReference
		n.RefPath = []any{"answers", owner.Code}
		n.RefBase = "answers"
	}
	return traverse.Continue
}

func (v *selfResolver) ExitNode(n *ir.Node, ctx traverse.Context) {
	if n.Kind == ir.KindBlock && n.Code != "" && len(v.fieldStack) > 0 && v.fieldStack[len(v.fieldStack)-1] == n.ID {
		v.fieldStack = v.fieldStack[:len(v.fieldStack)-1]
	}
}
