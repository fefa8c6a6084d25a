package thunk

import (
	"fmt"
	"strings"

	"github.com/ormasoftchile/formengine/pkg/evalerr"
	"github.com/ormasoftchile/formengine/pkg/ir"
)

// rawSlot reads the literal value a transformExprList call left at index i
// of a declarative array field (args, arguments) when that slot is not a
// nested node — ids[i] == "" marks exactly this case.
func rawSlot(raw any, field string, i int) any {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	arr, ok := obj[field].([]any)
	if !ok || i >= len(arr) {
		return nil
	}
	return arr[i]
}

// evalExprList evaluates a mixed node/literal list (Format.args,
// Function.arguments), resolving each entry against ids or falling back to
// the literal stashed in raw[field][i].
func evalExprList(inv Invoker, ectx *EvalContext, raw any, field string, ids []ir.NodeID) ([]any, *Result) {
	values := make([]any, len(ids))
	for i, id := range ids {
		if id == "" {
			values[i] = rawSlot(raw, field, i)
			continue
		}
		r := inv.Invoke(id, ectx)
		if r.Error != nil {
			return nil, &r
		}
		values[i] = r.Value
	}
	return values, nil
}

// formatHandler substitutes each evaluated arg into the template's
// positional markers (%1, %2, …).
type formatHandler struct {
	base
	n *ir.Node
}

func newFormatHandler(id ir.NodeID, n *ir.Node) *formatHandler {
	return &formatHandler{base: base{id: id, kind: n.Kind}, n: n}
}

func (h *formatHandler) Evaluate(inv Invoker, ectx *EvalContext, hooks RuntimeHooks) Result {
	values, errResult := evalExprList(inv, ectx, h.n.Raw, "args", h.n.Args)
	if errResult != nil {
		return *errResult
	}
	out := h.n.Template
	for i, v := range values {
		marker := fmt.Sprintf("%%%d", i+1)
		out = strings.ReplaceAll(out, marker, fmt.Sprint(v))
	}
	return Ok(out)
}

// pipelineHandler threads a value through a chain of steps, pushing
// {@value: current} before each step and stopping at the first error.
type pipelineHandler struct {
	base
	n *ir.Node
}

func newPipelineHandler(id ir.NodeID, n *ir.Node) *pipelineHandler {
	return &pipelineHandler{base: base{id: id, kind: n.Kind}, n: n}
}

func (h *pipelineHandler) Evaluate(inv Invoker, ectx *EvalContext, hooks RuntimeHooks) Result {
	var current any
	if h.n.Input != "" {
		r := inv.Invoke(h.n.Input, ectx)
		if r.Error != nil {
			return r
		}
		current = r.Value
	}
	for _, stepID := range h.n.Steps2 {
		stepCtx := ectx.Push(ScopeFrame{Value: current, Index: -1})
		r := inv.Invoke(stepID, stepCtx)
		if r.Error != nil {
			return r
		}
		current = r.Value
	}
	return Ok(current)
}

// iterateHandler instantiates the template under each collection item's
// isolated scope, creating runtime nodes through hooks before evaluating
// them — the only handler that grows the registry mid-request.
type iterateHandler struct {
	base
	n *ir.Node
}

func newIterateHandler(id ir.NodeID, n *ir.Node) *iterateHandler {
	return &iterateHandler{base: base{id: id, kind: n.Kind}, n: n}
}

func (h *iterateHandler) Evaluate(inv Invoker, ectx *EvalContext, hooks RuntimeHooks) Result {
	if h.n.Collection == "" {
		return Err(evalerr.New(evalerr.TypeMismatch, h.id, "iterate requires a collection"))
	}
	cr := inv.Invoke(h.n.Collection, ectx)
	if cr.Error != nil {
		return cr
	}
	items, ok := cr.Value.([]any)
	if !ok {
		return Err(evalerr.New(evalerr.TypeMismatch, h.id, fmt.Sprintf("collection is %T, not an array", cr.Value)))
	}
	if len(items) == 0 {
		if h.n.Fallback != "" {
			return inv.Invoke(h.n.Fallback, ectx)
		}
		return Ok([]any{})
	}

	var out []any
	for i, item := range items {
		if item == nil {
			continue
		}
		itemIDs := make([]ir.NodeID, 0, len(h.n.Tmpl))
		for _, tmplElem := range h.n.Tmpl {
			rootID, err := hooks.TransformValue(tmplElem, item, i)
			if err != nil {
				return Err(evalerr.Wrap(evalerr.EvaluationFailed, h.id, "instantiating iterate template", err))
			}
			itemIDs = append(itemIDs, rootID)
		}
		if err := hooks.RegisterRuntimeNodesBatch(itemIDs, h.id, "template"); err != nil {
			return Err(evalerr.Wrap(evalerr.EvaluationFailed, h.id, "registering iterate runtime nodes", err))
		}
		itemCtx := ectx.Push(ScopeFrame{Value: item, Index: i})
		for _, id := range itemIDs {
			r := inv.Invoke(id, itemCtx)
			if r.Error != nil {
				return r
			}
			out = append(out, r.Value)
		}
	}
	if out == nil {
		out = []any{}
	}
	return Ok(out)
}
