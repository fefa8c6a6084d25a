// Package thunk defines the handler contract — one executor per IR node
// kind — and implements every concrete handler from spec.md §4.7. The
// request-scoped driver that invokes these handlers (caching, dedupe,
// runtime hooks) lives in pkg/evaluator, which depends on this package;
// handlers call back into the running evaluation through the small
// Invoker interface below to avoid an import cycle.
package thunk

import (
	"github.com/ormasoftchile/formengine/pkg/answerhistory"
	"github.com/ormasoftchile/formengine/pkg/evalerr"
	"github.com/ormasoftchile/formengine/pkg/functions"
	"github.com/ormasoftchile/formengine/pkg/ir"
	"github.com/ormasoftchile/formengine/pkg/registry"
)

// Result is the value every handler invocation produces.
type Result struct {
	Value    any
	Error    *evalerr.EvalError
	Metadata map[string]any
}

func Ok(v any) Result { return Result{Value: v} }

func Err(e *evalerr.EvalError) Result { return Result{Error: e} }

func (r Result) Cached() Result {
	md := map[string]any{"cached": true}
	for k, v := range r.Metadata {
		md[k] = v
	}
	return Result{Value: r.Value, Error: r.Error, Metadata: md}
}

// ScopeFrame is one entry of the LIFO scope stack: it exposes @value and
// @index (and, for Pipeline, nothing else) to expressions evaluated
// inside an Iterate item or a Pipeline step.
type ScopeFrame struct {
	Value any
	Index int // -1 when not inside an Iterate item
}

// Request is the per-call HTTP-shaped input a host hands the evaluator:
// the method plus whatever POST body, query string, and route params it
// parsed for this call.
type Request struct {
	Method  string
	Post    map[string]any
	Query   map[string]any
	Params  map[string]any
	Session any
}

// Global holds the two request-scoped mutable maps every handler can
// read and effects can write: context.global.data and context.global.answers.
type Global struct {
	Data    map[string]any
	Answers *answerhistory.History
}

// EffectFunctionContext is handed to every Load/Access/Action/Submit
// effect, per spec.md §6.
type EffectFunctionContext interface {
	GetSession() any
	SetData(key string, value any)
	GetData(key string) (any, bool)
	SetAnswer(code string, value any)
	GetAnswer(code string) (any, bool)
	GetRequestParam(name string) (any, bool)
	GetQueryParam(name string) (any, bool)
	GetState(key string) (any, bool)
}

// RuntimeHooks is passed to handlers (only Iterate uses it today) that
// may instantiate new nodes mid-evaluation.
type RuntimeHooks interface {
	// TransformValue runs the NodeFactory over one declarative template
	// element, pre-resolving any expression found in a `code` field under
	// the given item scope, and returns the new root's runtime id.
	TransformValue(decl any, scopeValue any, scopeIndex int) (ir.NodeID, error)
	// RegisterRuntimeNodesBatch runs the full compile pipeline (normalize,
	// register, metadata, pseudo-nodes, wire, recompile handlers) over
	// nodes newly created by TransformValue, under the given parent node
	// and property name, and flushes them into the live registries.
	RegisterRuntimeNodesBatch(nodes []ir.NodeID, parent ir.NodeID, property string) error
}

// Invoker is the subset of the Evaluator a handler needs: recursive
// invocation of another node (with caching/dedupe already applied) and
// read access to the shared compile-time tables.
type Invoker interface {
	Invoke(id ir.NodeID, ectx *EvalContext) Result
	Registry() *registry.NodeRegistry
	Metadata() *registry.MetadataRegistry
	Functions() *functions.Registry
}

// EvalContext is the ThunkEvaluationContext: the mutable, per-request
// state every handler reads and writes.
type EvalContext struct {
	Request Request
	Global  Global
	Scope   []ScopeFrame
	Effects EffectFunctionContext
}

// Push returns a new context with frame pushed onto the scope stack.
// Scope effects are LIFO by construction: callers push before evaluating
// a child expression and simply discard the returned context's frame
// (the original ctx is untouched) once that child has been evaluated —
// Go's value semantics give every call its own slice header, so there is
// no explicit pop to forget.
func (c *EvalContext) Push(frame ScopeFrame) *EvalContext {
	next := *c
	next.Scope = append(append([]ScopeFrame{}, c.Scope...), frame)
	return &next
}

// Top returns the innermost scope frame, or a frame with a nil Value and
// Index -1 if the stack is empty.
func (c *EvalContext) Top() ScopeFrame {
	if len(c.Scope) == 0 {
		return ScopeFrame{Index: -1}
	}
	return c.Scope[len(c.Scope)-1]
}

// WithIsolatedScope clones the current scope slice so a parallel fan-out
// branch (Block's properties, Function's arguments) cannot observe
// another branch's pushes — required whenever handlers evaluate multiple
// children concurrently.
func (c *EvalContext) WithIsolatedScope() *EvalContext {
	next := *c
	next.Scope = append([]ScopeFrame{}, c.Scope...)
	return &next
}

// Handler is the executor for one node id.
type Handler interface {
	NodeID() ir.NodeID
	Kind() ir.Kind
	IsAsync() bool
	SetAsync(bool)
	// Intrinsic reports whether this handler suspends regardless of its
	// dependencies (only Function handlers backed by an async registry
	// entry do).
	Intrinsic() bool
	Evaluate(inv Invoker, ectx *EvalContext, hooks RuntimeHooks) Result
}

// base is embedded by every concrete handler to provide the id/kind/async
// bookkeeping so each handler's own file only implements Evaluate.
type base struct {
	id        ir.NodeID
	kind      ir.Kind
	isAsync   bool
	intrinsic bool
}

func (b *base) NodeID() ir.NodeID { return b.id }
func (b *base) Kind() ir.Kind     { return b.kind }
func (b *base) IsAsync() bool     { return b.isAsync }
func (b *base) SetAsync(v bool)   { b.isAsync = v }
func (b *base) Intrinsic() bool   { return b.intrinsic }
func (b *base) SetIntrinsic(v bool) { b.intrinsic = v }

// safeKey rejects property-access keys that could reach dangerous
// builtins via a user-controlled string, enforced before every pseudo-node
// property access per spec.md §4.7's last paragraph.
func safeKey(key string) bool {
	switch key {
	case "__proto__", "constructor", "prototype":
		return false
	}
	return key != ""
}
