package depgraph

import (
	"testing"

	"github.com/ormasoftchile/formengine/pkg/ir"
	"github.com/ormasoftchile/formengine/pkg/registry"
)

func TestTopologicalSort_OrdersDependenciesBeforeDependents(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", DataFlow, "args", 0)
	g.AddEdge("b", "c", DataFlow, "args", 0)

	res := g.TopologicalSort()
	if res.HasCycles {
		t.Fatalf("unexpected cycle: %v", res.Cycles)
	}
	pos := map[ir.NodeID]int{}
	for i, id := range res.Sort {
		pos[id] = i
	}
	if pos["a"] > pos["b"] || pos["b"] > pos["c"] {
		t.Errorf("sort order = %v, want a before b before c", res.Sort)
	}
}

func TestTopologicalSort_IsDeterministic(t *testing.T) {
	build := func() *Graph {
		g := New()
		g.AddEdge("x", "y", DataFlow, "args", 0)
		g.AddNode("z")
		return g
	}
	first := build().TopologicalSort()
	second := build().TopologicalSort()
	if len(first.Sort) != len(second.Sort) {
		t.Fatalf("sort lengths differ: %v vs %v", first.Sort, second.Sort)
	}
	for i := range first.Sort {
		if first.Sort[i] != second.Sort[i] {
			t.Errorf("sort[%d] = %q, want %q (non-deterministic)", i, second.Sort[i], first.Sort[i])
		}
	}
}

func TestTopologicalSort_DetectsCycle(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", DataFlow, "args", 0)
	g.AddEdge("b", "a", DataFlow, "args", 0)

	res := g.TopologicalSort()
	if !res.HasCycles {
		t.Fatal("expected HasCycles = true for a 2-node cycle")
	}
	if len(res.Cycles) == 0 {
		t.Error("expected at least one reported cycle")
	}
}

func TestDependents(t *testing.T) {
	g := New()
	g.AddEdge("dep", "consumer1", DataFlow, "args", 0)
	g.AddEdge("dep", "consumer2", DataFlow, "args", 1)

	got := g.Dependents("dep")
	if len(got) != 2 {
		t.Fatalf("Dependents(dep) = %v, want 2 entries", got)
	}
}

func TestWireStatic_StepBlocksAreStructuralParentIsDependency(t *testing.T) {
	f := ir.NewFactory()
	stepID, err := f.CreateNode(map[string]any{
		"type": "step", "path": "/s", "entry": true,
		"blocks": []any{map[string]any{"type": "block", "variant": "field", "code": "y"}},
	}, "$")
	if err != nil {
		t.Fatalf("CreateNode(step): %v", err)
	}

	reg := registry.Build(f.Nodes, stepID)
	g := WireStatic(reg)

	// Step -> block is STRUCTURAL with the step as the dependency (so
	// the step sorts before its blocks, not after).
	blocks := reg.ByType(ir.KindBlock)
	if len(blocks) == 0 {
		t.Fatal("expected at least one block in the registry")
	}
	edges := g.Edges(stepID)
	found := false
	for _, e := range edges {
		if e.To == blocks[0] && e.Type == Structural {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a STRUCTURAL edge step -> block, got %+v", edges)
	}
}
