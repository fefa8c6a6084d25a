package thunk

import (
	"fmt"
	"sync"

	"github.com/ormasoftchile/formengine/pkg/evalerr"
	"github.com/ormasoftchile/formengine/pkg/ir"
)

// functionHandler looks up FuncName in the FunctionRegistry and invokes
// it. For CONDITION/TRANSFORMER/GENERATOR functions, the first argument is
// the current scope's @value; for EFFECT functions (used by Load/Access/
// Action/Submit transitions) the first argument is instead the
// EffectFunctionContext, giving the effect access to session/data/answers.
type functionHandler struct {
	base
	n *ir.Node
}

func newFunctionHandler(id ir.NodeID, n *ir.Node) *functionHandler {
	return &functionHandler{base: base{id: id, kind: n.Kind}, n: n}
}

func (h *functionHandler) Evaluate(inv Invoker, ectx *EvalContext, hooks RuntimeHooks) Result {
	fn, ok := inv.Functions().Lookup(h.n.FuncName)
	if !ok {
		return Err(evalerr.New(evalerr.LookupFailed, h.id, fmt.Sprintf("unknown function %q", h.n.FuncName)))
	}

	args, errResult := evalArgsParallel(inv, ectx, h.n.Raw, h.n.FuncArgs)
	if errResult != nil {
		return *errResult
	}

	var first any
	if h.n.FuncKind == ir.FunctionEffect {
		first = ectx.Effects
	} else {
		first = ectx.Top().Value
	}

	out, err := fn.Evaluate(first, args...)
	if err != nil {
		return Err(evalerr.Wrap(evalerr.EvaluationFailed, h.id, fmt.Sprintf("function %q", h.n.FuncName), err))
	}
	return Ok(out)
}

// evalArgsParallel evaluates Function.arguments concurrently (spec.md §5:
// "Function evaluates arguments in parallel"), each against its own
// isolated scope, preserving declaration order in the result slice.
func evalArgsParallel(inv Invoker, ectx *EvalContext, raw any, ids []ir.NodeID) ([]any, *Result) {
	values := make([]any, len(ids))
	errs := make([]*Result, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		if id == "" {
			values[i] = rawSlot(raw, "arguments", i)
			continue
		}
		wg.Add(1)
		go func(i int, id ir.NodeID) {
			defer wg.Done()
			r := inv.Invoke(id, ectx.WithIsolatedScope())
			if r.Error != nil {
				errs[i] = &r
				return
			}
			values[i] = r.Value
		}(i, id)
	}
	wg.Wait()
	for _, e := range errs {
		if e != nil {
			return nil, e
		}
	}
	return values, nil
}

// validationHandler yields {passed, message}: passed is true when `when`
// evaluates false (the condition names the failure case, not the success
// case), matching how Submit treats a validation as a problem only when
// passed is false.
type validationHandler struct {
	base
	n *ir.Node
}

func newValidationHandler(id ir.NodeID, n *ir.Node) *validationHandler {
	return &validationHandler{base: base{id: id, kind: n.Kind}, n: n}
}

func (h *validationHandler) Evaluate(inv Invoker, ectx *EvalContext, hooks RuntimeHooks) Result {
	var triggered bool
	if h.n.When != "" {
		r := inv.Invoke(h.n.When, ectx)
		if r.Error != nil {
			return r
		}
		triggered, _ = r.Value.(bool)
	}
	return Ok(map[string]any{"passed": !triggered, "message": h.n.Message})
}
