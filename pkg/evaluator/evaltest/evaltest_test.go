package evaltest

import (
	"testing"

	"github.com/ormasoftchile/formengine/pkg/decl"
	"github.com/ormasoftchile/formengine/pkg/evaluator"
	"github.com/ormasoftchile/formengine/pkg/functions"
	"github.com/ormasoftchile/formengine/pkg/ir"
	"github.com/ormasoftchile/formengine/pkg/registry"
)

const journeyYAML = `
type: journey
path: /apply
steps:
  - type: step
    path: /start
    blocks:
      - type: block
        variant: field
        code: greeting
        defaultValue:
          type: function
          kind: GENERATOR
          name: staticGreeting
`

func compileStartStep(t *testing.T) (*evaluator.CompiledStep, *functions.Registry) {
	t.Helper()
	doc, err := decl.Decode([]byte(journeyYAML))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	f, rootID, err := evaluator.CompileForm(doc)
	if err != nil {
		t.Fatalf("compile form: %v", err)
	}
	prelim := registry.Build(f.Nodes, rootID)
	steps := prelim.ByType(ir.KindStep)
	if len(steps) == 0 {
		t.Fatal("expected at least one step")
	}

	base := functions.NewRegistry()
	fake := NewFakeFunctionRegistry(base, map[string]any{"staticGreeting": "hello"})

	step, err := evaluator.CompileStep(f, rootID, steps[0], fake.Registry, nil)
	if err != nil {
		t.Fatalf("compile step: %v", err)
	}
	return step, fake.Registry
}

func TestRunScenario_ReplaysRequestsInOrder(t *testing.T) {
	step, funcs := compileStartStep(t)

	scenario := &Scenario{
		Name: "start step, GET then POST",
		Requests: []ScenarioRequest{
			{Method: "GET"},
			{Method: "POST", Post: map[string]any{"greeting": "override"}},
		},
	}

	results := RunScenario(scenario, step, funcs)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Error != nil {
			t.Errorf("request %d: unexpected error: %v", i, r.Error)
		}
	}
}

func TestFakeFunctionRegistry_StubsOverrideBase(t *testing.T) {
	base := functions.NewRegistry()
	base.Register(&functions.Entry{
		Name:     "staticGreeting",
		Evaluate: func(first any, args ...any) (any, error) { return "real", nil },
	})

	fake := NewFakeFunctionRegistry(base, map[string]any{"staticGreeting": "stubbed"})

	entry, ok := fake.Lookup("staticGreeting")
	if !ok {
		t.Fatal("expected stub to be registered")
	}
	v, err := entry.Evaluate(nil)
	if err != nil {
		t.Fatal(err)
	}
	if v != "stubbed" {
		t.Errorf("Evaluate() = %v, want stubbed", v)
	}
}
