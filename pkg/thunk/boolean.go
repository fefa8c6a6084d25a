package thunk

import "github.com/ormasoftchile/formengine/pkg/ir"

// andHandler short-circuits on the first false or erroring operand;
// errors propagate (only Test converts an operand error to false).
type andHandler struct {
	base
	n *ir.Node
}

func newAndHandler(id ir.NodeID, n *ir.Node) *andHandler {
	return &andHandler{base: base{id: id, kind: n.Kind}, n: n}
}

func (h *andHandler) Evaluate(inv Invoker, ectx *EvalContext, hooks RuntimeHooks) Result {
	for _, op := range h.n.Operands {
		r := inv.Invoke(op, ectx)
		if r.Error != nil {
			return r
		}
		if b, _ := r.Value.(bool); !b {
			return Ok(false)
		}
	}
	return Ok(true)
}

type orHandler struct {
	base
	n *ir.Node
}

func newOrHandler(id ir.NodeID, n *ir.Node) *orHandler {
	return &orHandler{base: base{id: id, kind: n.Kind}, n: n}
}

func (h *orHandler) Evaluate(inv Invoker, ectx *EvalContext, hooks RuntimeHooks) Result {
	for _, op := range h.n.Operands {
		r := inv.Invoke(op, ectx)
		if r.Error != nil {
			return r
		}
		if b, _ := r.Value.(bool); b {
			return Ok(true)
		}
	}
	return Ok(false)
}

// xorHandler is true iff exactly one operand is true; every operand must
// be evaluated, so it never short-circuits.
type xorHandler struct {
	base
	n *ir.Node
}

func newXorHandler(id ir.NodeID, n *ir.Node) *xorHandler {
	return &xorHandler{base: base{id: id, kind: n.Kind}, n: n}
}

func (h *xorHandler) Evaluate(inv Invoker, ectx *EvalContext, hooks RuntimeHooks) Result {
	trueCount := 0
	for _, op := range h.n.Operands {
		r := inv.Invoke(op, ectx)
		if r.Error != nil {
			return r
		}
		if b, _ := r.Value.(bool); b {
			trueCount++
		}
	}
	return Ok(trueCount == 1)
}

type notHandler struct {
	base
	n *ir.Node
}

func newNotHandler(id ir.NodeID, n *ir.Node) *notHandler {
	return &notHandler{base: base{id: id, kind: n.Kind}, n: n}
}

func (h *notHandler) Evaluate(inv Invoker, ectx *EvalContext, hooks RuntimeHooks) Result {
	if len(h.n.Operands) == 0 {
		return Ok(true)
	}
	r := inv.Invoke(h.n.Operands[0], ectx)
	if r.Error != nil {
		return r
	}
	b, _ := r.Value.(bool)
	return Ok(!b)
}

// testHandler pushes its subject's value as @value while evaluating
// condition; per spec.md §4.7, any failure here — subject or condition —
// resolves the predicate to false rather than propagating.
type testHandler struct {
	base
	n *ir.Node
}

func newTestHandler(id ir.NodeID, n *ir.Node) *testHandler {
	return &testHandler{base: base{id: id, kind: n.Kind}, n: n}
}

func (h *testHandler) Evaluate(inv Invoker, ectx *EvalContext, hooks RuntimeHooks) Result {
	var subject any
	if h.n.Subject != "" {
		sr := inv.Invoke(h.n.Subject, ectx)
		if sr.Error != nil {
			return Ok(false)
		}
		subject = sr.Value
	}
	if len(h.n.Operands) == 0 || h.n.Operands[0] == "" {
		return Ok(false)
	}
	condCtx := ectx.Push(ScopeFrame{Value: subject, Index: -1})
	cr := inv.Invoke(h.n.Operands[0], condCtx)
	if cr.Error != nil {
		return Ok(false)
	}
	b, _ := cr.Value.(bool)
	if h.n.Negate {
		b = !b
	}
	return Ok(b)
}
