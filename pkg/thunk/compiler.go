package thunk

import (
	"github.com/ormasoftchile/formengine/pkg/depgraph"
	"github.com/ormasoftchile/formengine/pkg/evalerr"
	"github.com/ormasoftchile/formengine/pkg/functions"
	"github.com/ormasoftchile/formengine/pkg/ir"
	"github.com/ormasoftchile/formengine/pkg/registry"
)

// HandlerRegistry is the compiled nodeId → Handler map (spec.md §4.9's
// ThunkHandlerRegistry).
type HandlerRegistry struct {
	handlers map[ir.NodeID]Handler
}

func (r *HandlerRegistry) Get(id ir.NodeID) (Handler, bool) {
	h, ok := r.handlers[id]
	return h, ok
}

func (r *HandlerRegistry) All() map[ir.NodeID]Handler { return r.handlers }

// newHandler dispatches on Kind to build the one concrete Handler type a
// node needs. Pseudo-node kinds and ordinary expression kinds share the
// same construction path. KindSelf has no handler: a Self node that
// normalize.ResolveSelfReferences left in place (no enclosing FieldBlock)
// falls to the default case and gets none.
func newHandler(id ir.NodeID, n *ir.Node) Handler {
	switch n.Kind {
	case ir.KindJourney:
		return newJourneyHandler(id, n)
	case ir.KindStep:
		return newStepHandler(id, n)
	case ir.KindBlock:
		return newBlockHandler(id, n)
	case ir.KindReference:
		return newReferenceHandler(id, n)
	case ir.KindFormat:
		return newFormatHandler(id, n)
	case ir.KindPipeline:
		return newPipelineHandler(id, n)
	case ir.KindIterate:
		return newIterateHandler(id, n)
	case ir.KindValidation:
		return newValidationHandler(id, n)
	case ir.KindNext:
		return newNextHandler(id, n)
	case ir.KindFunction:
		return newFunctionHandler(id, n)
	case ir.KindTest:
		return newTestHandler(id, n)
	case ir.KindAnd:
		return newAndHandler(id, n)
	case ir.KindOr:
		return newOrHandler(id, n)
	case ir.KindXor:
		return newXorHandler(id, n)
	case ir.KindNot:
		return newNotHandler(id, n)
	case ir.KindLoad:
		return newLoadHandler(id, n)
	case ir.KindAccess:
		return newAccessHandler(id, n)
	case ir.KindAction:
		return newActionHandler(id, n)
	case ir.KindSubmit:
		return newSubmitHandler(id, n)
	case ir.KindRedirect:
		return newRedirectHandler(id, n)
	case ir.KindThrowError:
		return newThrowErrorHandler(id, n)
	case ir.KindAnswerLocal:
		return newAnswerLocalHandler(id, n)
	case ir.KindAnswerRemote:
		return newAnswerRemoteHandler(id, n)
	case ir.KindPost:
		return newPostHandler(id, n)
	case ir.KindQuery:
		return newQueryHandler(id, n)
	case ir.KindParams:
		return newParamsHandler(id, n)
	case ir.KindData:
		return newDataHandler(id, n)
	default:
		return nil
	}
}

// Compile builds one handler per registered node and computes isAsync in
// the dependency graph's topological order (P3): a handler is async if it
// intrinsically suspends (a Function node backed by an async registry
// entry) or any node it depends on is itself async. Cyclic graphs are
// rejected before this pass runs — only per-step artefacts need to be
// acyclic, so callers compile once per step.
func Compile(reg *registry.NodeRegistry, g *depgraph.Graph, funcs *functions.Registry) (*HandlerRegistry, error) {
	handlers := make(map[ir.NodeID]Handler, reg.Size())
	for _, id := range reg.All() {
		n, ok := reg.Node(id)
		if !ok {
			continue
		}
		h := newHandler(id, n)
		if h == nil {
			continue
		}
		if fh, ok := h.(*functionHandler); ok {
			if entry, ok := funcs.Lookup(n.FuncName); ok && entry.IsAsync {
				fh.SetIntrinsic(true)
			}
		}
		handlers[id] = h
	}

	sortResult := g.TopologicalSort()
	if sortResult.HasCycles {
		cycle := []ir.NodeID{}
		if len(sortResult.Cycles) > 0 {
			cycle = sortResult.Cycles[0]
		}
		return nil, &evalerr.CircularDependencyError{Cycle: cycle}
	}

	dependenciesOf := map[ir.NodeID][]ir.NodeID{}
	for _, id := range reg.All() {
		for _, e := range g.Edges(id) {
			dependenciesOf[e.To] = append(dependenciesOf[e.To], id)
		}
	}

	for _, id := range sortResult.Sort {
		h, ok := handlers[id]
		if !ok {
			continue
		}
		async := h.Intrinsic()
		for _, dep := range dependenciesOf[id] {
			if dh, ok := handlers[dep]; ok && dh.IsAsync() {
				async = true
				break
			}
		}
		h.SetAsync(async)
	}

	return &HandlerRegistry{handlers: handlers}, nil
}
