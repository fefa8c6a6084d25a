package normalize

import (
	"testing"

	"github.com/ormasoftchile/formengine/pkg/ir"
)

func TestAddSelfValueToFields_InjectsImplicitReferenceWhenInputEmpty(t *testing.T) {
	ids := ir.NewIDGenerator()
	pipelineID := ids.NextCompile(ir.KindPipeline)
	fieldID := ids.NextCompile(ir.KindBlock)
	nodes := map[ir.NodeID]*ir.Node{
		pipelineID: {ID: pipelineID, Kind: ir.KindPipeline},
		fieldID:    {ID: fieldID, Kind: ir.KindBlock, Code: "x", FormatPipeline: pipelineID},
	}

	AddSelfValueToFields(nodes, ids)

	pipeline := nodes[pipelineID]
	if pipeline.Input == "" {
		t.Fatal("expected an implicit Input reference to be injected")
	}
	ref, ok := nodes[pipeline.Input]
	if !ok || ref.Kind != ir.KindReference {
		t.Fatalf("injected Input %q is not a reference node", pipeline.Input)
	}
	if len(ref.RefPath) != 2 || ref.RefPath[0] != "@scope" || ref.RefPath[1] != "@value" {
		t.Errorf("RefPath = %v, want [@scope @value]", ref.RefPath)
	}
}

func TestAddSelfValueToFields_LeavesExplicitInputAlone(t *testing.T) {
	ids := ir.NewIDGenerator()
	pipelineID := ids.NextCompile(ir.KindPipeline)
	fieldID := ids.NextCompile(ir.KindBlock)
	existingInput := ids.NextCompile(ir.KindReference)
	nodes := map[ir.NodeID]*ir.Node{
		pipelineID:     {ID: pipelineID, Kind: ir.KindPipeline, Input: existingInput},
		fieldID:        {ID: fieldID, Kind: ir.KindBlock, Code: "x", FormatPipeline: pipelineID},
		existingInput:  {ID: existingInput, Kind: ir.KindReference, RefPath: []any{"answers", "y"}},
	}

	AddSelfValueToFields(nodes, ids)

	if nodes[pipelineID].Input != existingInput {
		t.Errorf("Input = %q, want untouched %q", nodes[pipelineID].Input, existingInput)
	}
}

func TestAddSelfValueToFields_SkipsBlocksWithoutCodeOrPipeline(t *testing.T) {
	ids := ir.NewIDGenerator()
	basicID := ids.NextCompile(ir.KindBlock)
	nodes := map[ir.NodeID]*ir.Node{
		basicID: {ID: basicID, Kind: ir.KindBlock, Variant: "basic"},
	}

	AddSelfValueToFields(nodes, ids) // must not panic or add nodes

	if len(nodes) != 1 {
		t.Errorf("expected no new nodes for a non-field block, got %d total", len(nodes))
	}
}

func TestResolveSelfReferences_RewritesSelfWithinEnclosingField(t *testing.T) {
	ids := ir.NewIDGenerator()
	fieldID := ids.NextCompile(ir.KindBlock)
	selfID := ids.NextCompile(ir.KindSelf)
	validationID := ids.NextCompile(ir.KindValidation)

	nodes := map[ir.NodeID]*ir.Node{
		fieldID:      {ID: fieldID, Kind: ir.KindBlock, Code: "amount", Validate: []ir.NodeID{validationID}},
		validationID: {ID: validationID, Kind: ir.KindValidation, When: selfID},
		selfID:       {ID: selfID, Kind: ir.KindSelf},
	}

	ResolveSelfReferences(nodes, fieldID, ids)

	self := nodes[selfID]
	if self.Kind != ir.KindReference {
		t.Fatalf("Kind = %q, want %q after resolution", self.Kind, ir.KindReference)
	}
	if len(self.RefPath) != 2 || self.RefPath[0] != "answers" || self.RefPath[1] != "amount" {
		t.Errorf("RefPath = %v, want [answers amount]", self.RefPath)
	}
}

func TestResolveSelfReferences_NoEnclosingFieldLeavesSelfUntouched(t *testing.T) {
	ids := ir.NewIDGenerator()
	selfID := ids.NextCompile(ir.KindSelf)
	nodes := map[ir.NodeID]*ir.Node{
		selfID: {ID: selfID, Kind: ir.KindSelf},
	}

	ResolveSelfReferences(nodes, selfID, ids)

	if nodes[selfID].Kind != ir.KindSelf {
		t.Errorf("Kind = %q, want unchanged %q (no enclosing field)", nodes[selfID].Kind, ir.KindSelf)
	}
}
