package evaluator

import (
	"testing"

	"github.com/ormasoftchile/formengine/pkg/answerhistory"
	"github.com/ormasoftchile/formengine/pkg/functions"
	"github.com/ormasoftchile/formengine/pkg/ir"
	"github.com/ormasoftchile/formengine/pkg/thunk"
)

func greetingJourneyDoc() map[string]any {
	return map[string]any{
		"type": "journey",
		"path": "/",
		"steps": []any{
			map[string]any{
				"type":  "step",
				"path":  "/greeting",
				"entry": true,
				"blocks": []any{
					map[string]any{
						"type":    "block",
						"variant": "field",
						"code":    "name",
						"defaultValue": map[string]any{
							"type": "function", "kind": "GENERATOR", "name": "DefaultName",
						},
					},
				},
			},
		},
	}
}

func newGreetingFuncs(onCall func()) *functions.Registry {
	funcs := functions.NewRegistry()
	funcs.Register(&functions.Entry{Name: "DefaultName", Evaluate: func(_ any, _ ...any) (any, error) {
		if onCall != nil {
			onCall()
		}
		return "World", nil
	}})
	return funcs
}

func compileGreetingStep(t *testing.T, funcs *functions.Registry) (*CompiledStep, *functions.Registry) {
	t.Helper()
	f, rootID, err := CompileForm(greetingJourneyDoc())
	if err != nil {
		t.Fatalf("CompileForm: %v", err)
	}

	var stepID ir.NodeID
	for id, n := range f.Nodes {
		if n.Kind == ir.KindStep && n.Path == "/greeting" {
			stepID = id
		}
	}
	if stepID == "" {
		t.Fatal("could not locate the compiled step")
	}

	step, err := CompileStep(f, rootID, stepID, funcs, nil)
	if err != nil {
		t.Fatalf("CompileStep: %v", err)
	}
	return step, funcs
}

func TestCompileForm_AssignsReachableRoot(t *testing.T) {
	f, rootID, err := CompileForm(greetingJourneyDoc())
	if err != nil {
		t.Fatalf("CompileForm: %v", err)
	}
	if _, ok := f.Nodes[rootID]; !ok {
		t.Fatal("root id not present in the factory's node table")
	}
}

func TestEvaluate_GETRendersJourneyWithFieldDefault(t *testing.T) {
	calls := 0
	step, funcs := compileGreetingStep(t, newGreetingFuncs(func() { calls++ }))

	ev := New(step, funcs, nil)
	answers := answerhistory.New()
	ectx := ev.CreateContext(thunk.Request{Method: "GET"}, map[string]any{}, answers)

	result := ev.Evaluate(ectx)
	if result.Error != nil {
		t.Fatalf("Evaluate error: %v", result.Error)
	}
	rendered, ok := result.Value.(map[string]any)
	if !ok {
		t.Fatalf("Value = %#v, want a rendered journey map", result.Value)
	}
	if rendered["type"] != "journey" {
		t.Errorf("type = %v, want journey", rendered["type"])
	}
	if calls == 0 {
		t.Error("expected the default-value generator to run while rendering the field block")
	}
	if got, ok := answers.Current("name"); !ok || got != "World" {
		t.Errorf("answers.Current(name) = (%v, %v), want (World, true) after GET default", got, ok)
	}
}

func TestEvaluate_POSTSkipsRenderAndReturnsOK(t *testing.T) {
	step, funcs := compileGreetingStep(t, newGreetingFuncs(nil))
	ev := New(step, funcs, nil)

	answers := answerhistory.New()
	ectx := ev.CreateContext(thunk.Request{Method: "POST", Post: map[string]any{"name": "Alice"}}, map[string]any{}, answers)

	result := ev.Evaluate(ectx)
	if result.Error != nil {
		t.Fatalf("Evaluate error: %v", result.Error)
	}
	if result.Value != nil {
		t.Errorf("Value = %v, want nil (no onSubmission configured for this step)", result.Value)
	}
}

func TestInvoke_PseudoNodeResultIsCachedWithinOneEvaluate(t *testing.T) {
	calls := 0
	step, funcs := compileGreetingStep(t, newGreetingFuncs(func() { calls++ }))
	ev := New(step, funcs, nil)

	answers := answerhistory.New()
	ectx := ev.CreateContext(thunk.Request{Method: "GET"}, map[string]any{}, answers)

	localID, ok := step.Registry.ByPseudoKey(ir.KindAnswerLocal, "name")
	if !ok {
		t.Fatal("no AnswerLocal pseudo-node registered for field \"name\"")
	}

	first := ev.Invoke(localID, ectx)
	second := ev.Invoke(localID, ectx)
	if first.Error != nil || second.Error != nil {
		t.Fatalf("unexpected errors: %v / %v", first.Error, second.Error)
	}
	if calls != 1 {
		t.Errorf("generator ran %d times, want exactly 1 (P5 pseudo-node caching)", calls)
	}
	if !second.Metadata["cached"].(bool) {
		t.Error("second Invoke of the same pseudo-node should be flagged cached")
	}
	if ev.Manifest().CacheHits == 0 {
		t.Error("expected at least one pseudo-node cache hit in the manifest")
	}
}

func TestEvaluate_UnknownJourneyRootFails(t *testing.T) {
	step, funcs := compileGreetingStep(t, newGreetingFuncs(nil))
	step.JourneyRoot = "does-not-exist"
	ev := New(step, funcs, nil)

	answers := answerhistory.New()
	ectx := ev.CreateContext(thunk.Request{Method: "GET"}, map[string]any{}, answers)

	result := ev.Evaluate(ectx)
	if result.Error == nil {
		t.Fatal("expected an error for an unresolvable journey root")
	}
}

func TestManifest_NodesInvokedGrowsAcrossEvaluate(t *testing.T) {
	step, funcs := compileGreetingStep(t, newGreetingFuncs(nil))
	ev := New(step, funcs, nil)

	answers := answerhistory.New()
	ectx := ev.CreateContext(thunk.Request{Method: "GET"}, map[string]any{}, answers)

	if ev.Manifest().NodesInvoked != 0 {
		t.Fatalf("NodesInvoked before Evaluate = %d, want 0", ev.Manifest().NodesInvoked)
	}
	if result := ev.Evaluate(ectx); result.Error != nil {
		t.Fatalf("Evaluate error: %v", result.Error)
	}
	if ev.Manifest().NodesInvoked == 0 {
		t.Error("expected NodesInvoked to be non-zero after rendering a journey with a field block")
	}
}
