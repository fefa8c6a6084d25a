package evaluator

import (
	"github.com/ormasoftchile/formengine/pkg/depgraph"
	"github.com/ormasoftchile/formengine/pkg/functions"
	"github.com/ormasoftchile/formengine/pkg/ir"
	"github.com/ormasoftchile/formengine/pkg/normalize"
	"github.com/ormasoftchile/formengine/pkg/projection"
	"github.com/ormasoftchile/formengine/pkg/pseudonode"
	"github.com/ormasoftchile/formengine/pkg/registry"
	"github.com/ormasoftchile/formengine/pkg/thunk"
)

// TransformValue runs the shared NodeFactory over one Iterate template
// element, pre-resolving any `code` field that is itself an expression
// object rather than a literal string — ir.Node.Code is a plain string,
// so a dynamic per-item field code (e.g. Format('item_%1', @scope.id))
// must be reduced to its literal value before CreateNode can stamp the
// FieldBlock. Every other property is left as a declarative expression
// node, resolved normally once the item's scope frame is pushed.
func (e *Evaluator) TransformValue(decl any, scopeValue any, scopeIndex int) (ir.NodeID, error) {
	resolved, err := e.walkResolveCode(decl, scopeValue, scopeIndex)
	if err != nil {
		return "", err
	}
	return e.step.Factory.CreateNode(resolved, "$runtime.iterate")
}

func (e *Evaluator) walkResolveCode(v any, scopeValue any, scopeIndex int) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, vv := range val {
			if k == "code" {
				if obj, ok := vv.(map[string]any); ok {
					if _, hasType := obj["type"]; hasType {
						resolved, err := evalMiniExpr(e.funcs, e.effects, obj, scopeValue, scopeIndex)
						if err != nil {
							return nil, err
						}
						s, _ := resolved.(string)
						out[k] = s
						continue
					}
				}
			}
			rv, err := e.walkResolveCode(vv, scopeValue, scopeIndex)
			if err != nil {
				return nil, err
			}
			out[k] = rv
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, vv := range val {
			rv, err := e.walkResolveCode(vv, scopeValue, scopeIndex)
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil
	default:
		return v, nil
	}
}

// evalMiniExpr evaluates one declarative expression in total isolation
// from the running step's artefact: a throwaway factory/registry/graph
// compiled just for this node, invoked under a single scope frame. This
// is deliberately a full (if tiny) re-run of the compile pipeline rather
// than a bespoke literal-expression evaluator — it guarantees a `code`
// expression behaves exactly as it would if it were an ordinary node,
// including nested Format/Reference/Function composition.
func evalMiniExpr(funcs *functions.Registry, effects thunk.EffectFunctionContext, decl any, scopeValue any, scopeIndex int) (any, error) {
	f := ir.NewFactory()
	rootID, err := f.CreateNode(decl, "$runtime.code")
	if err != nil {
		return nil, err
	}
	normalize.AddSelfValueToFields(f.Nodes, f.IDs)
	normalize.ResolveSelfReferences(f.Nodes, rootID, f.IDs)

	reg := registry.Build(f.Nodes, rootID)
	pseudonode.Scan(reg, f.IDs)
	g := depgraph.WireStatic(reg)

	handlers, err := thunk.Compile(reg, g, funcs)
	if err != nil {
		return nil, err
	}

	mini := New(&CompiledStep{
		Graph: g, Registry: reg, Metadata: registry.NewMetadataRegistry(),
		IDs: f.IDs, Handlers: handlers, Factory: f, JourneyRoot: rootID, StepID: rootID,
	}, funcs, effects)

	ectx := &thunk.EvalContext{
		Scope:   []thunk.ScopeFrame{{Value: scopeValue, Index: scopeIndex}},
		Effects: effects,
	}
	r := mini.Invoke(rootID, ectx)
	if r.Error != nil {
		return nil, r.Error
	}
	return r.Value, nil
}

// RegisterRuntimeNodesBatch merges nodes TransformValue just created into
// the live step artefact: it re-normalizes, attaches each root into the
// shared registry, re-scans for any new pseudo-nodes a runtime Reference
// introduced, marks the new subtree current (an Iterate is only ever
// evaluated as part of rendering the step currently being rendered, so
// its runtime children inherit IsCurrentStep unconditionally), and
// recompiles. Recompiling recomputes the whole graph rather than
// incrementally diffing it — simpler, and cheap enough at the scale one
// Iterate batch adds, but a true incremental wiring pass would avoid
// re-walking nodes that did not change.
func (e *Evaluator) RegisterRuntimeNodesBatch(nodes []ir.NodeID, parent ir.NodeID, property string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	f := e.step.Factory

	normalize.AddSelfValueToFields(f.Nodes, f.IDs)
	for _, rootID := range nodes {
		normalize.ResolveSelfReferences(f.Nodes, rootID, f.IDs)
		registry.Attach(e.step.Registry, f.Nodes, rootID)
	}
	pseudonode.Scan(e.step.Registry, f.IDs)

	for _, rootID := range nodes {
		markCurrentStepSubtree(e.step.Registry, e.step.Metadata, rootID, parent, property)
	}

	g := depgraph.WireStatic(e.step.Registry)
	relevant := projection.Project(e.step.Registry, e.step.JourneyRoot, e.step.StepID)
	depgraph.WireStepScope(e.step.Registry, g, relevant)

	handlers, err := thunk.Compile(e.step.Registry, g, e.funcs)
	if err != nil {
		return err
	}
	e.step.Graph = g
	e.step.Handlers = handlers
	e.cache = map[ir.NodeID]thunk.Result{}

	if e.trace != nil {
		e.trace.EmitRuntimeNodes(parent, property, len(nodes))
	}
	return nil
}

func markCurrentStepSubtree(reg *registry.NodeRegistry, md *registry.MetadataRegistry, id, parent ir.NodeID, property string) {
	n, ok := reg.Node(id)
	if !ok {
		return
	}
	cur := md.Get(id)
	cur.IsCurrentStep = true
	cur.AttachedToParentNode = parent
	cur.AttachedToParentProperty = property
	md.Set(id, cur)
	for _, ref := range ir.Children(n) {
		markCurrentStepSubtree(reg, md, ref.ID, id, ref.Property)
	}
}
