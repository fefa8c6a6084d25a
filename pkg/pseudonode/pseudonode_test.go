package pseudonode

import (
	"testing"

	"github.com/ormasoftchile/formengine/pkg/ir"
	"github.com/ormasoftchile/formengine/pkg/registry"
)

func buildStepWithField(t *testing.T) (*registry.NodeRegistry, *ir.IDGenerator) {
	t.Helper()
	f := ir.NewFactory()
	stepID, err := f.CreateNode(map[string]any{
		"type": "step", "path": "/s", "entry": true,
		"blocks": []any{
			map[string]any{
				"type": "block", "variant": "field", "code": "email",
				"dependent": map[string]any{
					"type": "reference",
					"base": "query",
					"path": []any{"query", "ref"},
				},
			},
		},
	}, "$")
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	reg := registry.Build(f.Nodes, stepID)
	return reg, f.IDs
}

func TestScan_CreatesPostAndAnswerPseudoNodesPerField(t *testing.T) {
	reg, ids := buildStepWithField(t)
	Scan(reg, ids)

	if _, ok := reg.ByPseudoKey(ir.KindPost, "email"); !ok {
		t.Error("expected a Post pseudo-node keyed by \"email\"")
	}
	if _, ok := reg.ByPseudoKey(ir.KindAnswerLocal, "email"); !ok {
		t.Error("expected an AnswerLocal pseudo-node keyed by \"email\"")
	}
	if _, ok := reg.ByPseudoKey(ir.KindAnswerRemote, "email"); !ok {
		t.Error("expected an AnswerRemote pseudo-node keyed by \"email\"")
	}
}

func TestScan_AnswerLocalPointsBackAtItsFieldBlock(t *testing.T) {
	reg, ids := buildStepWithField(t)
	Scan(reg, ids)

	localID, ok := reg.ByPseudoKey(ir.KindAnswerLocal, "email")
	if !ok {
		t.Fatal("expected an AnswerLocal pseudo-node")
	}
	local, _ := reg.Node(localID)
	block, _ := reg.Node(local.FieldNodeID)
	if block == nil || block.Code != "email" {
		t.Errorf("AnswerLocal.FieldNodeID does not point back at the email field, got %+v", block)
	}
}

func TestScan_CreatesQueryPseudoNodeForLiteralKey(t *testing.T) {
	reg, ids := buildStepWithField(t)
	Scan(reg, ids)

	id, ok := reg.ByPseudoKey(ir.KindQuery, "ref")
	if !ok {
		t.Fatal("expected a Query pseudo-node keyed by \"ref\"")
	}
	n, _ := reg.Node(id)
	if n.ParamName != "ref" {
		t.Errorf("ParamName = %q, want \"ref\"", n.ParamName)
	}
}

func TestScan_IsIdempotent(t *testing.T) {
	reg, ids := buildStepWithField(t)
	Scan(reg, ids)
	before := reg.Size()
	Scan(reg, ids)
	if reg.Size() != before {
		t.Errorf("Size() after a second Scan = %d, want %d (no duplicate pseudo-nodes)", reg.Size(), before)
	}
}
