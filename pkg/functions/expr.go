package functions

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// RegisterExprCondition compiles an expr-lang expression once and
// registers it as a CONDITION function. The compiled program is run with
// `value` bound to the FunctionHandler's first argument (the node's own
// @value, per spec.md §4.7) and `args` bound to the remaining evaluated
// arguments, mirroring how runtime.Engine.evalCondition runs a compiled
// expr.Program against a vars environment.
func RegisterExprCondition(r *Registry, name, exprSrc string) error {
	program, err := expr.Compile(exprSrc, expr.AllowUndefinedVariables())
	if err != nil {
		return fmt.Errorf("compile condition %q: %w", name, err)
	}
	r.Register(&Entry{
		Name:    name,
		Evaluate: exprEvaluator(program),
		IsAsync: false,
	})
	return nil
}

// RegisterExprTransformer is RegisterExprCondition's TRANSFORMER twin; both
// return the expression's result as-is, with no coercion to bool.
func RegisterExprTransformer(r *Registry, name, exprSrc string) error {
	program, err := expr.Compile(exprSrc, expr.AllowUndefinedVariables())
	if err != nil {
		return fmt.Errorf("compile transformer %q: %w", name, err)
	}
	r.Register(&Entry{
		Name:    name,
		Evaluate: exprEvaluator(program),
		IsAsync: false,
	})
	return nil
}

func exprEvaluator(program *vm.Program) func(first any, args ...any) (any, error) {
	return func(first any, args ...any) (any, error) {
		env := map[string]any{"value": first, "args": args}
		out, err := expr.Run(program, env)
		if err != nil {
			return nil, fmt.Errorf("evaluate: %w", err)
		}
		return out, nil
	}
}

// BuiltinConditions registers the stock condition catalogue every form
// can reference without the host wiring anything extra: Equals,
// NotEquals, GreaterThan, LessThan, Contains, Matches — built over
// expr-lang rather than text/template so boolean short-circuiting and
// arithmetic comparisons don't need per-type funcmap entries.
func BuiltinConditions(r *Registry) error {
	specs := map[string]string{
		"Equals":      "value == args[0]",
		"NotEquals":   "value != args[0]",
		"GreaterThan": "value > args[0]",
		"LessThan":    "value < args[0]",
		"Contains":    "value contains args[0]",
		"Matches":     "value matches args[0]",
	}
	for name, src := range specs {
		if err := RegisterExprCondition(r, name, src); err != nil {
			return err
		}
	}
	return nil
}

// BuiltinTransformers registers Trim/ToLower/ToUpper, the three formatters
// the engine's own S1 scenario (spec.md §8) exercises.
func BuiltinTransformers(r *Registry) error {
	r.Register(&Entry{Name: "Trim", Evaluate: func(first any, _ ...any) (any, error) {
		s, _ := first.(string)
		return strings.TrimSpace(s), nil
	}})
	r.Register(&Entry{Name: "ToLower", Evaluate: func(first any, _ ...any) (any, error) {
		s, _ := first.(string)
		return strings.ToLower(s), nil
	}})
	r.Register(&Entry{Name: "ToUpper", Evaluate: func(first any, _ ...any) (any, error) {
		s, _ := first.(string)
		return strings.ToUpper(s), nil
	}})
	return nil
}
