package thunk

import (
	"fmt"
	"html"
	"strings"

	"github.com/ormasoftchile/formengine/pkg/answerhistory"
	"github.com/ormasoftchile/formengine/pkg/evalerr"
	"github.com/ormasoftchile/formengine/pkg/ir"
)

// answerRemoteHandler returns the current value from context.global.answers
// for a field the current step does not itself own.
type answerRemoteHandler struct {
	base
	n *ir.Node
}

func newAnswerRemoteHandler(id ir.NodeID, n *ir.Node) *answerRemoteHandler {
	return &answerRemoteHandler{base: base{id: id, kind: n.Kind}, n: n}
}

func (h *answerRemoteHandler) Evaluate(inv Invoker, ectx *EvalContext, hooks RuntimeHooks) Result {
	if !safeKey(h.n.BaseFieldCode) {
		return Err(evalerr.New(evalerr.SecurityViolation, h.id, fmt.Sprintf("unsafe field code %q", h.n.BaseFieldCode)))
	}
	v, _ := ectx.Global.Answers.Current(h.n.BaseFieldCode)
	return Ok(v)
}

type dataHandler struct {
	base
	n *ir.Node
}

func newDataHandler(id ir.NodeID, n *ir.Node) *dataHandler {
	return &dataHandler{base: base{id: id, kind: n.Kind}, n: n}
}

func (h *dataHandler) Evaluate(inv Invoker, ectx *EvalContext, hooks RuntimeHooks) Result {
	if !safeKey(h.n.BaseProperty) {
		return Err(evalerr.New(evalerr.SecurityViolation, h.id, fmt.Sprintf("unsafe data key %q", h.n.BaseProperty)))
	}
	return Ok(ectx.Global.Data[h.n.BaseProperty])
}

type queryHandler struct {
	base
	n *ir.Node
}

func newQueryHandler(id ir.NodeID, n *ir.Node) *queryHandler {
	return &queryHandler{base: base{id: id, kind: n.Kind}, n: n}
}

func (h *queryHandler) Evaluate(inv Invoker, ectx *EvalContext, hooks RuntimeHooks) Result {
	if !safeKey(h.n.ParamName) {
		return Err(evalerr.New(evalerr.SecurityViolation, h.id, fmt.Sprintf("unsafe query key %q", h.n.ParamName)))
	}
	return Ok(ectx.Request.Query[h.n.ParamName])
}

type paramsHandler struct {
	base
	n *ir.Node
}

func newParamsHandler(id ir.NodeID, n *ir.Node) *paramsHandler {
	return &paramsHandler{base: base{id: id, kind: n.Kind}, n: n}
}

func (h *paramsHandler) Evaluate(inv Invoker, ectx *EvalContext, hooks RuntimeHooks) Result {
	if !safeKey(h.n.ParamName) {
		return Err(evalerr.New(evalerr.SecurityViolation, h.id, fmt.Sprintf("unsafe params key %q", h.n.ParamName)))
	}
	return Ok(ectx.Request.Params[h.n.ParamName])
}

type postHandler struct {
	base
	n *ir.Node
}

func newPostHandler(id ir.NodeID, n *ir.Node) *postHandler {
	return &postHandler{base: base{id: id, kind: n.Kind}, n: n}
}

func (h *postHandler) Evaluate(inv Invoker, ectx *EvalContext, hooks RuntimeHooks) Result {
	if !safeKey(h.n.BaseFieldCode) {
		return Err(evalerr.New(evalerr.SecurityViolation, h.id, fmt.Sprintf("unsafe field code %q", h.n.BaseFieldCode)))
	}
	return Ok(ectx.Request.Post[h.n.BaseFieldCode])
}

// answerLocalHandler is the AnswerLocal state machine from spec.md §4.7:
// on POST it runs precedence → sanitize → formatPipeline → dependent; on
// GET it returns any already-present answer, else the field's default.
type answerLocalHandler struct {
	base
	n *ir.Node
}

func newAnswerLocalHandler(id ir.NodeID, n *ir.Node) *answerLocalHandler {
	return &answerLocalHandler{base: base{id: id, kind: n.Kind}, n: n}
}

func (h *answerLocalHandler) Evaluate(inv Invoker, ectx *EvalContext, hooks RuntimeHooks) Result {
	code := h.n.BaseFieldCode
	if !safeKey(code) {
		return Err(evalerr.New(evalerr.SecurityViolation, h.id, fmt.Sprintf("unsafe field code %q", code)))
	}
	field, ok := inv.Registry().Node(h.n.FieldNodeID)
	if !ok {
		return Err(evalerr.New(evalerr.LookupFailed, h.id, fmt.Sprintf("missing field node for AnswerLocal %q", code)))
	}
	history := ectx.Global.Answers

	if ectx.Request.Method == "POST" {
		h.processPOST(inv, ectx, field, history, code)
		cur, _ := history.Current(code)
		return Ok(cur)
	}

	if history.Has(code) {
		cur, _ := history.Current(code)
		return Ok(cur)
	}
	if field.DefaultValue != "" {
		dr := inv.Invoke(field.DefaultValue, ectx)
		if dr.Error != nil {
			history.Append(code, nil, ir.SourceDefault)
			return Ok(nil)
		}
		history.Append(code, dr.Value, ir.SourceDefault)
		return Ok(dr.Value)
	}
	history.Append(code, nil, ir.SourceDefault)
	return Ok(nil)
}

func (h *answerLocalHandler) processPOST(inv Invoker, ectx *EvalContext, field *ir.Node, history *answerhistory.History, code string) {
	if history.LatestSource(code) == ir.SourceAction {
		return
	}

	var postVal any
	if postID, ok := inv.Registry().ByPseudoKey(ir.KindPost, code); ok {
		if r := inv.Invoke(postID, ectx); r.Error == nil {
			postVal = r.Value
		}
	}
	history.Append(code, postVal, ir.SourcePost)

	if s, isStr := postVal.(string); isStr && (field.Sanitize == nil || *field.Sanitize) && containsHTMLSensitive(s) {
		history.Append(code, html.EscapeString(s), ir.SourceSanitized)
	}

	if field.FormatPipeline != "" {
		cur, _ := history.Current(code)
		pr := inv.Invoke(field.FormatPipeline, ectx.Push(ScopeFrame{Value: cur, Index: -1}))
		if pr.Error == nil && pr.Value != nil {
			history.Append(code, pr.Value, ir.SourceProcessed)
		}
	}

	if field.Dependent != "" {
		dr := inv.Invoke(field.Dependent, ectx)
		if dr.Error == nil {
			if b, _ := dr.Value.(bool); !b {
				history.Append(code, nil, ir.SourceDependent)
			}
		}
	}
}

func containsHTMLSensitive(s string) bool {
	return strings.ContainsAny(s, "&<>\"'")
}
