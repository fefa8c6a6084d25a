package thunk

import "github.com/ormasoftchile/formengine/pkg/ir"

// loadHandler / accessHandler run their effects sequentially, stopping at
// the first error and surfacing it as the transition's own result.
type loadHandler struct {
	base
	n *ir.Node
}

func newLoadHandler(id ir.NodeID, n *ir.Node) *loadHandler {
	return &loadHandler{base: base{id: id, kind: n.Kind}, n: n}
}

func (h *loadHandler) Evaluate(inv Invoker, ectx *EvalContext, hooks RuntimeHooks) Result {
	return runEffects(inv, ectx, h.n.Effects)
}

type accessHandler struct {
	base
	n *ir.Node
}

func newAccessHandler(id ir.NodeID, n *ir.Node) *accessHandler {
	return &accessHandler{base: base{id: id, kind: n.Kind}, n: n}
}

func (h *accessHandler) Evaluate(inv Invoker, ectx *EvalContext, hooks RuntimeHooks) Result {
	return runEffects(inv, ectx, h.n.Effects)
}

// actionHandler gates its effects behind an optional `when`.
type actionHandler struct {
	base
	n *ir.Node
}

func newActionHandler(id ir.NodeID, n *ir.Node) *actionHandler {
	return &actionHandler{base: base{id: id, kind: n.Kind}, n: n}
}

func (h *actionHandler) Evaluate(inv Invoker, ectx *EvalContext, hooks RuntimeHooks) Result {
	if h.n.When != "" {
		wr := inv.Invoke(h.n.When, ectx)
		if wr.Error != nil {
			return wr
		}
		if triggered, _ := wr.Value.(bool); !triggered {
			return Ok(nil)
		}
	}
	return runEffects(inv, ectx, h.n.Effects)
}

func runEffects(inv Invoker, ectx *EvalContext, effects []ir.NodeID) Result {
	for _, eff := range effects {
		r := inv.Invoke(eff, ectx)
		if r.Error != nil {
			return r
		}
	}
	return Ok(nil)
}

// submitHandler validates every relevant FieldBlock belonging to the
// current step (per MetadataRegistry), routes to onValid/onInvalid, runs
// that branch's effects, and resolves `next` into a concrete Redirect or
// ThrowError outcome.
type submitHandler struct {
	base
	n *ir.Node
}

func newSubmitHandler(id ir.NodeID, n *ir.Node) *submitHandler {
	return &submitHandler{base: base{id: id, kind: n.Kind}, n: n}
}

func (h *submitHandler) Evaluate(inv Invoker, ectx *EvalContext, hooks RuntimeHooks) Result {
	if h.n.When != "" {
		wr := inv.Invoke(h.n.When, ectx)
		if wr.Error != nil {
			return wr
		}
		if triggered, _ := wr.Value.(bool); !triggered {
			return Ok(nil)
		}
	}

	var failures []map[string]any
	for _, blockID := range inv.Registry().ByType(ir.KindBlock) {
		if !inv.Metadata().Get(blockID).IsCurrentStep {
			continue
		}
		block, ok := inv.Registry().Node(blockID)
		if !ok || block.Code == "" {
			continue
		}
		for _, valID := range block.Validate {
			r := inv.Invoke(valID, ectx)
			if r.Error != nil {
				continue
			}
			m, ok := r.Value.(map[string]any)
			if !ok {
				continue
			}
			if passed, _ := m["passed"].(bool); !passed {
				failures = append(failures, map[string]any{"code": block.Code, "message": m["message"]})
			}
		}
	}

	valid := len(failures) == 0
	branchID := h.n.OnInvalid
	if valid {
		branchID = h.n.OnValid
	}
	if branchID == "" {
		return Ok(map[string]any{"valid": valid, "failures": failures})
	}

	branch, ok := inv.Registry().Node(branchID)
	if !ok || branch.Branch == nil {
		return Ok(map[string]any{"valid": valid, "failures": failures})
	}

	for _, eff := range branch.Branch.Effects {
		r := inv.Invoke(eff, ectx)
		if r.Error != nil {
			return r
		}
	}
	if branch.Branch.Outcome != "" {
		return inv.Invoke(branch.Branch.Outcome, ectx)
	}
	for _, nextID := range branch.Branch.Next {
		nr := inv.Invoke(nextID, ectx)
		if nr.Error != nil {
			return nr
		}
		if nr.Value != nil {
			return nr
		}
	}
	return Ok(map[string]any{"valid": valid, "failures": failures})
}

// nextHandler resolves to nil (no match, try the next candidate in Submit's
// branch.next list) when `when` is present and false; otherwise it
// resolves `goto` to a concrete outcome, either by invoking a nested
// Redirect/ThrowError node or wrapping a literal path as a redirect.
type nextHandler struct {
	base
	n *ir.Node
}

func newNextHandler(id ir.NodeID, n *ir.Node) *nextHandler {
	return &nextHandler{base: base{id: id, kind: n.Kind}, n: n}
}

func (h *nextHandler) Evaluate(inv Invoker, ectx *EvalContext, hooks RuntimeHooks) Result {
	if h.n.When != "" {
		wr := inv.Invoke(h.n.When, ectx)
		if wr.Error != nil {
			return wr
		}
		if triggered, _ := wr.Value.(bool); !triggered {
			return Ok(nil)
		}
	}
	if h.n.Goto != "" {
		return inv.Invoke(h.n.Goto, ectx)
	}
	if s, ok := literalGoto(h.n.Raw); ok {
		return Ok(map[string]any{"type": "redirect", "goto": s})
	}
	return Ok(nil)
}

type redirectHandler struct {
	base
	n *ir.Node
}

func newRedirectHandler(id ir.NodeID, n *ir.Node) *redirectHandler {
	return &redirectHandler{base: base{id: id, kind: n.Kind}, n: n}
}

func (h *redirectHandler) Evaluate(inv Invoker, ectx *EvalContext, hooks RuntimeHooks) Result {
	if h.n.Goto != "" {
		r := inv.Invoke(h.n.Goto, ectx)
		if r.Error != nil {
			return r
		}
		return Ok(map[string]any{"type": "redirect", "goto": r.Value})
	}
	s, _ := literalGoto(h.n.Raw)
	return Ok(map[string]any{"type": "redirect", "goto": s})
}

func literalGoto(raw any) (string, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return "", false
	}
	s, ok := obj["goto"].(string)
	return s, ok
}

type throwErrorHandler struct {
	base
	n *ir.Node
}

func newThrowErrorHandler(id ir.NodeID, n *ir.Node) *throwErrorHandler {
	return &throwErrorHandler{base: base{id: id, kind: n.Kind}, n: n}
}

func (h *throwErrorHandler) Evaluate(inv Invoker, ectx *EvalContext, hooks RuntimeHooks) Result {
	return Ok(map[string]any{"type": "throwError", "code": h.n.Code2, "message": h.n.ErrMsg})
}
