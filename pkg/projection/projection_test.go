package projection

import (
	"testing"

	"github.com/ormasoftchile/formengine/pkg/ir"
	"github.com/ormasoftchile/formengine/pkg/registry"
)

// buildTwoStepJourney builds a journey with two steps: the current step
// (with one field and an onSubmission transition) and a second step whose
// field carries a validation referencing the current step's field — the
// shape Rule 4 (cross-step validation-only projection) exists for.
func buildTwoStepJourney(t *testing.T) (*registry.NodeRegistry, ir.NodeID, ir.NodeID) {
	t.Helper()
	f := ir.NewFactory()
	journeyID, err := f.CreateNode(map[string]any{
		"type": "journey",
		"path": "/",
		"steps": []any{
			map[string]any{
				"type":  "step",
				"path":  "/current",
				"entry": true,
				"blocks": []any{
					map[string]any{"type": "block", "variant": "field", "code": "amount"},
				},
				"onSubmission": map[string]any{
					"type": "submit",
				},
			},
			map[string]any{
				"type": "step",
				"path": "/other",
				"blocks": []any{
					map[string]any{
						"type":    "block",
						"variant": "field",
						"code":    "confirm",
						"validate": []any{
							map[string]any{
								"type":    "validation",
								"message": "must match",
								"when": map[string]any{
									"type": "reference",
									"base": "answers",
									"path": []any{"answers", "amount"},
								},
							},
						},
					},
				},
			},
		},
	}, "$")
	if err != nil {
		t.Fatalf("CreateNode(journey): %v", err)
	}
	reg := registry.Build(f.Nodes, journeyID)

	var currentStep, otherStep ir.NodeID
	for _, sid := range reg.ByType(ir.KindStep) {
		n, _ := reg.Node(sid)
		if n.Path == "/current" {
			currentStep = sid
		} else {
			otherStep = sid
		}
	}
	if currentStep == "" || otherStep == "" {
		t.Fatal("expected both steps to be registered")
	}
	return reg, journeyID, currentStep
}

func TestProject_CurrentStepFullyIncluded(t *testing.T) {
	reg, journeyID, currentStep := buildTwoStepJourney(t)
	rel := Project(reg, journeyID, currentStep)

	if !rel.Has(currentStep) {
		t.Error("current step itself must be relevant")
	}
	step, _ := reg.Node(currentStep)
	if !rel.Has(step.Blocks[0]) {
		t.Error("current step's block must be relevant (Rule 1: full subtree)")
	}
}

func TestProject_EverySubmissionTransitionIncluded(t *testing.T) {
	reg, journeyID, currentStep := buildTwoStepJourney(t)
	rel := Project(reg, journeyID, currentStep)

	step, _ := reg.Node(currentStep)
	if !rel.Has(step.OnSubmission) {
		t.Error("Rule 3: onSubmission must be relevant even off the hot path check above")
	}
}

func TestProject_OtherStepIsValidationOnly(t *testing.T) {
	reg, journeyID, currentStep := buildTwoStepJourney(t)
	rel := Project(reg, journeyID, currentStep)

	var otherBlock ir.NodeID
	for _, id := range reg.ByType(ir.KindBlock) {
		n, _ := reg.Node(id)
		if n.Code == "confirm" {
			otherBlock = id
		}
	}
	if otherBlock == "" {
		t.Fatal("expected to find the other step's field block")
	}
	if !rel.Has(otherBlock) {
		t.Error("a non-current step's field block with validation must still be relevant (Rule 4)")
	}
	block, _ := reg.Node(otherBlock)
	if !rel.Has(block.Validate[0]) {
		t.Error("the validation subtree of a non-current step's field must be relevant")
	}
}

func TestProject_JourneyRootIsAncestorAndAlwaysIncluded(t *testing.T) {
	reg, journeyID, currentStep := buildTwoStepJourney(t)
	rel := Project(reg, journeyID, currentStep)

	if !rel.Has(journeyID) {
		t.Error("Rule 2: the journey ancestor of the current step must be relevant")
	}
}

func TestProject_IsIdempotentAndDuplicateFree(t *testing.T) {
	reg, journeyID, currentStep := buildTwoStepJourney(t)
	first := Project(reg, journeyID, currentStep)
	second := Project(reg, journeyID, currentStep)

	if len(first) != len(second) {
		t.Fatalf("relevant set sizes differ across calls: %d vs %d", len(first), len(second))
	}
	for id := range first {
		if !second.Has(id) {
			t.Errorf("id %q present in first projection but missing from second", id)
		}
	}
}
