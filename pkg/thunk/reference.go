package thunk

import (
	"fmt"

	"github.com/ormasoftchile/formengine/pkg/evalerr"
	"github.com/ormasoftchile/formengine/pkg/ir"
)

// referenceHandler resolves a Reference node: it splits the path by its
// first segment (the namespace), dispatching to a sub-resolver, then
// drills into the remaining segments as ordinary property access.
type referenceHandler struct {
	base
	n *ir.Node
}

func newReferenceHandler(id ir.NodeID, n *ir.Node) *referenceHandler {
	return &referenceHandler{base: base{id: id, kind: n.Kind}, n: n}
}

func (h *referenceHandler) Evaluate(inv Invoker, ectx *EvalContext, hooks RuntimeHooks) Result {
	if len(h.n.RefPath) == 0 {
		return Ok(nil)
	}
	resolved := make([]any, len(h.n.RefPath))
	for i, seg := range h.n.RefPath {
		if nid, ok := seg.(ir.NodeID); ok {
			r := inv.Invoke(nid, ectx)
			if r.Error != nil {
				// dynamic path segment failed to evaluate: the whole
				// reference resolves to undefined, per spec.md §4.7.
				return Ok(nil)
			}
			resolved[i] = r.Value
			continue
		}
		resolved[i] = seg
	}

	namespace, _ := resolved[0].(string)
	rest := resolved[1:]
	switch namespace {
	case "@scope", "scope":
		return h.resolveScope(ectx, rest)
	case "answers":
		return h.resolveAnswers(inv, ectx, rest)
	case "data":
		return h.resolvePseudo(inv, ectx, ir.KindData, rest)
	case "post":
		return h.resolvePseudo(inv, ectx, ir.KindPost, rest)
	case "query":
		return h.resolvePseudo(inv, ectx, ir.KindQuery, rest)
	case "params":
		return h.resolvePseudo(inv, ectx, ir.KindParams, rest)
	default:
		return Ok(nil)
	}
}

func (h *referenceHandler) resolveScope(ectx *EvalContext, rest []any) Result {
	if len(rest) == 0 {
		return Ok(nil)
	}
	top := ectx.Top()
	var base any
	switch rest[0] {
	case "@value", "value":
		base = top.Value
	case "@index", "index":
		base = top.Index
	default:
		return Ok(nil)
	}
	return drill(h.id, base, rest[1:])
}

func (h *referenceHandler) resolveAnswers(inv Invoker, ectx *EvalContext, rest []any) Result {
	if len(rest) == 0 {
		return Ok(nil)
	}
	code, _ := rest[0].(string)
	var value any
	if localID, ok := inv.Registry().ByPseudoKey(ir.KindAnswerLocal, code); ok {
		r := inv.Invoke(localID, ectx)
		if r.Error != nil {
			return r
		}
		value = r.Value
	} else {
		value, _ = ectx.Global.Answers.Current(code)
	}
	return drill(h.id, value, rest[1:])
}

func (h *referenceHandler) resolvePseudo(inv Invoker, ectx *EvalContext, kind ir.Kind, rest []any) Result {
	if len(rest) == 0 {
		return Ok(nil)
	}
	key, _ := rest[0].(string)
	var value any
	if pid, ok := inv.Registry().ByPseudoKey(kind, key); ok {
		r := inv.Invoke(pid, ectx)
		if r.Error != nil {
			return r
		}
		value = r.Value
	}
	return drill(h.id, value, rest[1:])
}

// drill walks further path segments into a resolved base value, enforcing
// the safe-key predicate on every string segment.
func drill(owner ir.NodeID, base any, segs []any) Result {
	cur := base
	for _, seg := range segs {
		switch key := seg.(type) {
		case string:
			if !safeKey(key) {
				return Err(evalerr.New(evalerr.SecurityViolation, owner, fmt.Sprintf("unsafe property key %q", key)))
			}
			m, ok := cur.(map[string]any)
			if !ok {
				return Ok(nil)
			}
			cur = m[key]
		case int:
			arr, ok := cur.([]any)
			if !ok || key < 0 || key >= len(arr) {
				return Ok(nil)
			}
			cur = arr[key]
		default:
			return Ok(nil)
		}
	}
	return Ok(cur)
}
