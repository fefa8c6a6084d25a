package evaluator

import (
	"testing"

	"github.com/ormasoftchile/formengine/pkg/functions"
	"github.com/ormasoftchile/formengine/pkg/ir"
	"github.com/ormasoftchile/formengine/pkg/thunk"
)

func TestTransformValue_CreatesNodeForLiteralTemplate(t *testing.T) {
	step, funcs := compileGreetingStep(t, newGreetingFuncs(nil))
	ev := New(step, funcs, nil)

	id, err := ev.TransformValue(map[string]any{
		"type": "block", "variant": "field", "code": "item_0",
	}, nil, 0)
	if err != nil {
		t.Fatalf("TransformValue: %v", err)
	}
	n, ok := step.Factory.Nodes[id]
	if !ok {
		t.Fatal("TransformValue did not register the new node on the shared factory")
	}
	if n.Code != "item_0" {
		t.Errorf("Code = %q, want item_0", n.Code)
	}
}

func TestTransformValue_ResolvesExpressionCodeBeforeCreatingNode(t *testing.T) {
	step, funcs := compileGreetingStep(t, newGreetingFuncs(nil))
	funcs.Register(&functions.Entry{Name: "ItemCode", Evaluate: func(_ any, args ...any) (any, error) {
		return "item_7", nil
	}})
	ev := New(step, funcs, nil)

	id, err := ev.TransformValue(map[string]any{
		"type": "block", "variant": "field",
		"code": map[string]any{"type": "function", "kind": "GENERATOR", "name": "ItemCode"},
	}, "row", 7)
	if err != nil {
		t.Fatalf("TransformValue: %v", err)
	}
	n := step.Factory.Nodes[id]
	if n.Code != "item_7" {
		t.Errorf("Code = %q, want the resolved literal item_7, not the expression node", n.Code)
	}
}

func TestRegisterRuntimeNodesBatch_MarksNewSubtreeAsCurrentStep(t *testing.T) {
	step, funcs := compileGreetingStep(t, newGreetingFuncs(nil))
	ev := New(step, funcs, nil)

	newID, err := ev.TransformValue(map[string]any{
		"type": "block", "variant": "field", "code": "item_0",
	}, nil, 0)
	if err != nil {
		t.Fatalf("TransformValue: %v", err)
	}

	if err := ev.RegisterRuntimeNodesBatch([]ir.NodeID{newID}, step.StepID, "items"); err != nil {
		t.Fatalf("RegisterRuntimeNodesBatch: %v", err)
	}

	if _, ok := step.Registry.Node(newID); !ok {
		t.Fatal("the new node was not attached to the live registry")
	}
	md := step.Metadata.Get(newID)
	if !md.IsCurrentStep {
		t.Error("runtime-created node must inherit IsCurrentStep from the step being rendered")
	}
	if md.AttachedToParentNode != step.StepID || md.AttachedToParentProperty != "items" {
		t.Errorf("attachment = (%q, %q), want (%q, items)", md.AttachedToParentNode, md.AttachedToParentProperty, step.StepID)
	}
	if _, ok := step.Handlers.Get(newID); !ok {
		t.Error("recompiling after RegisterRuntimeNodesBatch must produce a handler for the new node")
	}
}

func TestRegisterRuntimeNodesBatch_ClearsPseudoNodeCache(t *testing.T) {
	calls := 0
	step, funcs := compileGreetingStep(t, newGreetingFuncs(func() { calls++ }))
	ev := New(step, funcs, nil)

	localID, ok := step.Registry.ByPseudoKey(ir.KindAnswerLocal, "name")
	if !ok {
		t.Fatal("no AnswerLocal pseudo-node registered for field \"name\"")
	}
	ectx := &thunk.EvalContext{}
	if r := ev.Invoke(localID, ectx); r.Error != nil {
		t.Fatalf("Invoke: %v", r.Error)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 after priming the cache", calls)
	}

	newID, err := ev.TransformValue(map[string]any{
		"type": "block", "variant": "field", "code": "item_0",
	}, nil, 0)
	if err != nil {
		t.Fatalf("TransformValue: %v", err)
	}
	if err := ev.RegisterRuntimeNodesBatch([]ir.NodeID{newID}, step.StepID, "items"); err != nil {
		t.Fatalf("RegisterRuntimeNodesBatch: %v", err)
	}

	if r := ev.Invoke(localID, ectx); r.Error != nil {
		t.Fatalf("Invoke after batch: %v", r.Error)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 — RegisterRuntimeNodesBatch must invalidate the pseudo-node cache", calls)
	}
}
