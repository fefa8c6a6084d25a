package evaluator

import (
	"sync"
	"time"

	"github.com/ormasoftchile/formengine/pkg/answerhistory"
	"github.com/ormasoftchile/formengine/pkg/evalerr"
	"github.com/ormasoftchile/formengine/pkg/functions"
	"github.com/ormasoftchile/formengine/pkg/ir"
	"github.com/ormasoftchile/formengine/pkg/registry"
	"github.com/ormasoftchile/formengine/pkg/telemetry"
	"github.com/ormasoftchile/formengine/pkg/thunk"
)

// inflight is the marker a concurrent second Invoke(id, ...) waits on: P4
// requires every in-progress node, not only pseudo-nodes, to be evaluated
// at most once per wave of concurrent callers.
type inflight struct {
	done   chan struct{}
	result thunk.Result
}

// Evaluator is the request-scoped ThunkEvaluator: it owns the compiled
// step artefact, the in-flight dedupe table (P4, every node id), the
// pseudo-node result cache (P5, only pseudo-node ids — ordinary handlers
// may read mutable scope and must re-run on every call), and the effect
// context every Load/Access/Action/Submit node receives.
type Evaluator struct {
	step    *CompiledStep
	funcs   *functions.Registry
	effects thunk.EffectFunctionContext

	trace *telemetry.Writer

	// mu guards cache/inflight and every read or mutation of e.step's
	// Registry/Graph/Handlers: RegisterRuntimeNodesBatch swaps those in
	// place while Invoke may be reading them from a concurrent Block
	// property fan-out.
	mu       sync.Mutex
	cache    map[ir.NodeID]thunk.Result
	inflight map[ir.NodeID]*inflight

	manifest EvaluationManifest
}

// EvaluationManifest is a debug-only summary of one request's evaluation,
// analogous to the per-run manifest a host might log for diagnostics: it
// is never part of the evaluate-output contract and exists purely for a
// `--trace` flag or test assertion to inspect after the fact.
type EvaluationManifest struct {
	NodesInvoked   int
	CacheHits      int
	AsyncSuspended int
}

// Manifest returns a snapshot of the counters accumulated so far this
// request. Safe to call after Evaluate returns; the Evaluator is
// single-request-scoped so there is no concurrent writer left by then.
func (e *Evaluator) Manifest() EvaluationManifest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.manifest
}

// SetTrace attaches a telemetry.Writer; every subsequent Invoke/Evaluate
// call emits its diagnostics to it. Evaluation works identically with no
// writer attached — telemetry is diagnostic-only, never load-bearing.
func (e *Evaluator) SetTrace(w *telemetry.Writer) { e.trace = w }

// New returns an Evaluator bound to one compiled step and ready to serve
// one request. A fresh Evaluator must be created per request: the
// cache/inflight tables are not safe to reuse across requests, which is
// why they live on the Evaluator rather than on CompiledStep.
func New(step *CompiledStep, funcs *functions.Registry, effects thunk.EffectFunctionContext) *Evaluator {
	return &Evaluator{
		step:     step,
		funcs:    funcs,
		effects:  effects,
		cache:    map[ir.NodeID]thunk.Result{},
		inflight: map[ir.NodeID]*inflight{},
	}
}

func (e *Evaluator) Registry() *registry.NodeRegistry     { return e.step.Registry }
func (e *Evaluator) Metadata() *registry.MetadataRegistry { return e.step.Metadata }
func (e *Evaluator) Functions() *functions.Registry       { return e.funcs }

func isPseudo(k ir.Kind) bool {
	switch k {
	case ir.KindAnswerLocal, ir.KindAnswerRemote, ir.KindPost, ir.KindQuery, ir.KindParams, ir.KindData:
		return true
	}
	return false
}

// Invoke runs one node's handler, applying P4 dedupe (every id, scoped to
// the set of concurrent callers racing to evaluate it) and P5 caching
// (pseudo-node ids only, persisting across the whole request rather than
// just one concurrent wave). An id with no compiled handler is a
// compile-time bug, not an in-band error: Invoke panics with
// *evalerr.HandlerNotFoundError.
func (e *Evaluator) Invoke(id ir.NodeID, ectx *thunk.EvalContext) thunk.Result {
	e.mu.Lock()
	n, ok := e.step.Registry.Node(id)
	e.mu.Unlock()
	if !ok {
		panic(&evalerr.HandlerNotFoundError{NodeID: id})
	}
	pseudo := isPseudo(n.Kind)

	e.mu.Lock()
	if pseudo {
		if r, ok := e.cache[id]; ok {
			e.manifest.CacheHits++
			e.mu.Unlock()
			if e.trace != nil {
				e.trace.EmitNodeCached(id)
			}
			return r.Cached()
		}
	}
	if inf, ok := e.inflight[id]; ok {
		e.mu.Unlock()
		<-inf.done
		if pseudo {
			return inf.result.Cached()
		}
		return inf.result
	}
	inf := &inflight{done: make(chan struct{})}
	e.inflight[id] = inf
	e.mu.Unlock()

	e.mu.Lock()
	h, ok := e.step.Handlers.Get(id)
	e.mu.Unlock()
	if !ok {
		notFound := &evalerr.HandlerNotFoundError{NodeID: id}
		e.finish(id, inf, thunk.Err(evalerr.New(evalerr.LookupFailed, id, notFound.Error())), false)
		panic(notFound)
	}

	e.mu.Lock()
	e.manifest.NodesInvoked++
	if h.IsAsync() {
		e.manifest.AsyncSuspended++
	}
	e.mu.Unlock()

	start := time.Now()
	r := h.Evaluate(e, ectx, e)
	if e.trace != nil {
		e.trace.EmitNodeInvoked(id, n.Kind, time.Since(start))
		if r.Error != nil {
			e.trace.EmitNodeError(id, string(r.Error.Kind), r.Error.Message)
		}
	}
	e.finish(id, inf, r, pseudo)
	return r
}

func (e *Evaluator) finish(id ir.NodeID, inf *inflight, r thunk.Result, pseudo bool) {
	e.mu.Lock()
	inf.result = r
	if pseudo {
		e.cache[id] = r
	}
	delete(e.inflight, id)
	e.mu.Unlock()
	close(inf.done)
}

// CreateContext builds the EvalContext one request starts evaluation
// from: empty scope, the request's transport-shaped inputs, and the
// mutable global data/answers maps effects read and write through e.effects.
func (e *Evaluator) CreateContext(req thunk.Request, data map[string]any, answers *answerhistory.History) *thunk.EvalContext {
	return &thunk.EvalContext{
		Request: req,
		Global:  thunk.Global{Data: data, Answers: answers},
		Effects: e.effects,
	}
}

// Evaluate runs one request end to end: the Journey's onAccess (POST) or
// onLoad (GET) transition, then — on POST — the current step's onAction
// followed directly by its onSubmission outcome (the view model is never
// built for a POST; the caller gets the submission's redirect/throwError
// outcome instead), or — on GET — the step's onLoad transition followed by
// a full render of the Journey root.
func (e *Evaluator) Evaluate(ectx *thunk.EvalContext) (result thunk.Result) {
	start := time.Now()
	if e.trace != nil {
		e.trace.EmitEvaluateStart(e.step.StepID, ectx.Request.Method)
		defer func() {
			errKind := ""
			if result.Error != nil {
				errKind = string(result.Error.Kind)
			}
			e.trace.EmitEvaluateComplete(e.step.StepID, time.Since(start), errKind)
		}()
	}

	journey, ok := e.step.Registry.Node(e.step.JourneyRoot)
	if !ok {
		return thunk.Err(evalerr.New(evalerr.LookupFailed, e.step.JourneyRoot, "journey root not found"))
	}
	step, ok := e.step.Registry.Node(e.step.StepID)
	if !ok {
		return thunk.Err(evalerr.New(evalerr.LookupFailed, e.step.StepID, "current step not found"))
	}

	isPost := ectx.Request.Method == "POST"

	if isPost {
		if journey.OnAccess != "" {
			if r := e.Invoke(journey.OnAccess, ectx); r.Error != nil {
				return r
			}
		}
	} else if journey.OnLoad != "" {
		if r := e.Invoke(journey.OnLoad, ectx); r.Error != nil {
			return r
		}
	}

	if isPost {
		if step.OnAction != "" {
			if r := e.Invoke(step.OnAction, ectx); r.Error != nil {
				return r
			}
		}
		if step.OnSubmission != "" {
			return e.Invoke(step.OnSubmission, ectx)
		}
		return thunk.Ok(nil)
	}

	if step.OnLoad != "" {
		if r := e.Invoke(step.OnLoad, ectx); r.Error != nil {
			return r
		}
	}
	return e.Invoke(e.step.JourneyRoot, ectx)
}
