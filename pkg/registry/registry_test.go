package registry

import (
	"testing"

	"github.com/ormasoftchile/formengine/pkg/ir"
)

// buildSimpleJourney constructs a one-step, one-field journey through the
// factory, mirroring the shape CompileForm produces from decoded YAML.
func buildSimpleJourney(t *testing.T) (*ir.Factory, ir.NodeID) {
	t.Helper()
	f := ir.NewFactory()
	root, err := f.CreateNode(map[string]any{
		"type": "journey",
		"path": "/",
		"steps": []any{
			map[string]any{
				"type":  "step",
				"path":  "/name",
				"entry": true,
				"blocks": []any{
					map[string]any{
						"type":    "block",
						"variant": "field",
						"code":    "name",
					},
				},
			},
		},
	}, "$")
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	return f, root
}

func TestBuild_RegistersEveryReachableNode(t *testing.T) {
	f, root := buildSimpleJourney(t)
	reg := Build(f.Nodes, root)

	if reg.Size() != len(f.Nodes) {
		t.Errorf("Size() = %d, want %d (every node reachable from root)", reg.Size(), len(f.Nodes))
	}
	if _, ok := reg.Node(root); !ok {
		t.Error("root not found in registry")
	}
	blocks := reg.ByType(ir.KindBlock)
	if len(blocks) != 1 {
		t.Fatalf("ByType(block) = %v, want 1 entry", blocks)
	}
	path, ok := reg.Path(blocks[0])
	if !ok || path == "" {
		t.Errorf("Path(%q) = %q, %v", blocks[0], path, ok)
	}
}

func TestBuild_UnknownID(t *testing.T) {
	f, root := buildSimpleJourney(t)
	reg := Build(f.Nodes, root)
	if _, ok := reg.Node("does-not-exist"); ok {
		t.Error("expected Node to report not-found for an unregistered id")
	}
}

func TestRegisterPseudo_IndexedByKey(t *testing.T) {
	f, root := buildSimpleJourney(t)
	reg := Build(f.Nodes, root)

	pseudo := &ir.Node{ID: "answerLocal#synthetic", Kind: ir.KindAnswerLocal}
	reg.RegisterPseudo(pseudo, "email")

	id, ok := reg.ByPseudoKey(ir.KindAnswerLocal, "email")
	if !ok || id != pseudo.ID {
		t.Fatalf("ByPseudoKey = (%q, %v), want (%q, true)", id, ok, pseudo.ID)
	}
	if _, ok := reg.Node(pseudo.ID); !ok {
		t.Error("pseudo node not retrievable via Node")
	}
}

func TestAttach_MergesIntoExistingRegistry(t *testing.T) {
	f, root := buildSimpleJourney(t)
	reg := Build(f.Nodes, root)
	before := reg.Size()

	rf := ir.NewFactory()
	newRoot, err := rf.CreateNode(map[string]any{
		"type":    "block",
		"variant": "field",
		"code":    "runtimeChild",
	}, "$runtime")
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	Attach(reg, rf.Nodes, newRoot)

	if reg.Size() != before+1 {
		t.Errorf("Size() after Attach = %d, want %d", reg.Size(), before+1)
	}
	if _, ok := reg.Node(newRoot); !ok {
		t.Error("attached node not found after Attach")
	}
}

func TestMetadataRegistry_GetDefaultsToZeroValue(t *testing.T) {
	md := NewMetadataRegistry()
	got := md.Get("missing")
	if got != (Metadata{}) {
		t.Errorf("Get(missing) = %+v, want zero value", got)
	}
}

func TestMetadataRegistry_Clone_IsIndependent(t *testing.T) {
	md := NewMetadataRegistry()
	md.Set("a", Metadata{IsCurrentStep: true})

	clone := md.Clone()
	clone.Set("a", Metadata{IsCurrentStep: false})

	if !md.Get("a").IsCurrentStep {
		t.Error("mutating the clone affected the original registry")
	}
}

func TestSetStepMetadata_MarksCurrentStepSubtree(t *testing.T) {
	f, root := buildSimpleJourney(t)
	reg := Build(f.Nodes, root)
	md := NewMetadataRegistry()

	steps := reg.ByType(ir.KindStep)
	if len(steps) != 1 {
		t.Fatalf("ByType(step) = %v, want 1 entry", steps)
	}
	stepID := steps[0]

	SetStepMetadata(reg, md, stepID)

	if !md.Get(stepID).IsCurrentStep {
		t.Error("step itself not marked IsCurrentStep")
	}
	blocks := reg.ByType(ir.KindBlock)
	if !md.Get(blocks[0]).IsCurrentStep {
		t.Error("block under the step not marked IsCurrentStep")
	}
	if md.Get(blocks[0]).AttachedToParentProperty != "blocks" {
		t.Errorf("AttachedToParentProperty = %q, want %q", md.Get(blocks[0]).AttachedToParentProperty, "blocks")
	}
}
