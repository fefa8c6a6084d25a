package traverse

import (
	"testing"

	"github.com/ormasoftchile/formengine/pkg/ir"
)

type recorder struct {
	entered []ir.NodeID
	paths   map[ir.NodeID]string
	stopAt  ir.NodeID
	skipAt  ir.NodeID
}

func (r *recorder) EnterNode(n *ir.Node, ctx Context) Action {
	r.entered = append(r.entered, n.ID)
	if r.paths == nil {
		r.paths = map[ir.NodeID]string{}
	}
	r.paths[n.ID] = ctx.Path
	if n.ID == r.stopAt {
		return Stop
	}
	if n.ID == r.skipAt {
		return Skip
	}
	return Continue
}

func (r *recorder) ExitNode(n *ir.Node, ctx Context) {}

func buildTree() map[ir.NodeID]*ir.Node {
	return map[ir.NodeID]*ir.Node{
		"step#1": {ID: "step#1", Kind: ir.KindStep, Blocks: []ir.NodeID{"block#1", "block#2"}},
		"block#1": {ID: "block#1", Kind: ir.KindBlock, Code: "a"},
		"block#2": {ID: "block#2", Kind: ir.KindBlock, Code: "b", Label: "format#1"},
		"format#1": {ID: "format#1", Kind: ir.KindFormat, Template: "hi"},
	}
}

func TestWalk_VisitsEveryReachableNode(t *testing.T) {
	tr := New(MapResolver(buildTree()))
	rec := &recorder{}
	tr.Walk("step#1", rec)

	want := []ir.NodeID{"step#1", "block#1", "block#2", "format#1"}
	if len(rec.entered) != len(want) {
		t.Fatalf("entered = %v, want %v", rec.entered, want)
	}
	for i, id := range want {
		if rec.entered[i] != id {
			t.Errorf("entered[%d] = %q, want %q", i, rec.entered[i], id)
		}
	}
}

func TestWalk_PathsReflectListIndices(t *testing.T) {
	tr := New(MapResolver(buildTree()))
	rec := &recorder{}
	tr.Walk("step#1", rec)

	if rec.paths["block#1"] != "$.blocks[0]" {
		t.Errorf("block#1 path = %q, want $.blocks[0]", rec.paths["block#1"])
	}
	if rec.paths["block#2"] != "$.blocks[1]" {
		t.Errorf("block#2 path = %q, want $.blocks[1]", rec.paths["block#2"])
	}
	if rec.paths["format#1"] != "$.blocks[1].label" {
		t.Errorf("format#1 path = %q, want $.blocks[1].label", rec.paths["format#1"])
	}
}

func TestWalk_SkipPrunesSubtree(t *testing.T) {
	tr := New(MapResolver(buildTree()))
	rec := &recorder{skipAt: "block#2"}
	tr.Walk("step#1", rec)

	for _, id := range rec.entered {
		if id == "format#1" {
			t.Fatal("format#1 should not be visited when its parent is skipped")
		}
	}
}

func TestWalk_StopAbortsEntireWalk(t *testing.T) {
	tr := New(MapResolver(buildTree()))
	rec := &recorder{stopAt: "block#1"}
	tr.Walk("step#1", rec)

	if len(rec.entered) != 2 {
		t.Fatalf("entered = %v, want exactly [step#1, block#1]", rec.entered)
	}
}

func TestWalk_UnresolvableIDIsSkippedSilently(t *testing.T) {
	nodes := map[ir.NodeID]*ir.Node{
		"step#1": {ID: "step#1", Kind: ir.KindStep, Blocks: []ir.NodeID{"missing#1"}},
	}
	tr := New(MapResolver(nodes))
	rec := &recorder{}
	tr.Walk("step#1", rec)

	if len(rec.entered) != 1 {
		t.Errorf("entered = %v, want only the root to be visited", rec.entered)
	}
}
