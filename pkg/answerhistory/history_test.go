package answerhistory

import (
	"testing"

	"github.com/ormasoftchile/formengine/pkg/ir"
)

func TestHistory_AppendUpdatesCurrent(t *testing.T) {
	h := New()
	h.Append("email", "a@example.com", ir.SourceDefault)
	h.Append("email", "b@example.com", ir.SourcePost)

	got, ok := h.Current("email")
	if !ok || got != "b@example.com" {
		t.Fatalf("Current(email) = (%v, %v), want (b@example.com, true)", got, ok)
	}
}

func TestHistory_Has(t *testing.T) {
	h := New()
	if h.Has("email") {
		t.Error("Has(email) = true before any mutation")
	}
	h.Append("email", "x", ir.SourceLoad)
	if !h.Has("email") {
		t.Error("Has(email) = false after a mutation")
	}
}

func TestHistory_LatestSource(t *testing.T) {
	h := New()
	if got := h.LatestSource("missing"); got != "" {
		t.Errorf("LatestSource(missing) = %q, want empty", got)
	}
	h.Append("amount", 1, ir.SourceDefault)
	h.Append("amount", 2, ir.SourceAction)
	if got := h.LatestSource("amount"); got != ir.SourceAction {
		t.Errorf("LatestSource(amount) = %q, want %q", got, ir.SourceAction)
	}
}

func TestHistory_MutationsPreservesOrder(t *testing.T) {
	h := New()
	h.Append("amount", 1, ir.SourceDefault)
	h.Append("amount", 2, ir.SourceProcessed)
	h.Append("amount", 3, ir.SourceSanitized)

	muts := h.Mutations("amount")
	if len(muts) != 3 {
		t.Fatalf("len(Mutations) = %d, want 3", len(muts))
	}
	wantSources := []ir.AnswerSource{ir.SourceDefault, ir.SourceProcessed, ir.SourceSanitized}
	for i, m := range muts {
		if m.Source != wantSources[i] {
			t.Errorf("Mutations[%d].Source = %q, want %q", i, m.Source, wantSources[i])
		}
	}
}

func TestHistory_Codes(t *testing.T) {
	h := New()
	h.Append("a", 1, ir.SourceLoad)
	h.Append("b", 2, ir.SourceLoad)

	codes := h.Codes()
	if len(codes) != 2 {
		t.Fatalf("Codes() = %v, want 2 entries", codes)
	}
}

func TestHistory_CurrentOnUnknownField(t *testing.T) {
	h := New()
	if _, ok := h.Current("nope"); ok {
		t.Error("Current(nope) reported ok=true for a field with no mutations")
	}
}
