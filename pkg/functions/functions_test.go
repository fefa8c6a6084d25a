package functions

import "testing"

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	r.Register(&Entry{Name: "Double", Evaluate: func(first any, _ ...any) (any, error) {
		return first.(int) * 2, nil
	}})

	entry, ok := r.Lookup("Double")
	if !ok {
		t.Fatal("Lookup(Double) = not found")
	}
	got, err := entry.Evaluate(21)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got != 42 {
		t.Errorf("Evaluate(21) = %v, want 42", got)
	}
}

func TestRegistry_LookupMissing(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Lookup("Nope"); ok {
		t.Error("Lookup(Nope) = found, want not found")
	}
}

func TestNewBuilder_EmitsDeclarativeShape(t *testing.T) {
	build := NewBuilder("Equals")
	got := build("answers.amount", 100)

	if got["type"] != "function" || got["kind"] != "CONDITION" || got["name"] != "Equals" {
		t.Fatalf("unexpected declarative shape: %#v", got)
	}
	args, ok := got["arguments"].([]any)
	if !ok || len(args) != 2 {
		t.Fatalf("arguments = %#v, want 2 entries", got["arguments"])
	}
}

func TestRegisterWithDeps_ClosesOverInjectedDependency(t *testing.T) {
	r := NewRegistry()
	type clock struct{ now string }
	wd := WithDeps{
		Name: "Now",
		Construct: func(deps any) *Entry {
			c := deps.(*clock)
			return &Entry{Name: "Now", Evaluate: func(_ any, _ ...any) (any, error) {
				return c.now, nil
			}}
		},
	}
	RegisterWithDeps(r, wd, &clock{now: "2026-07-30"})

	entry, ok := r.Lookup("Now")
	if !ok {
		t.Fatal("Lookup(Now) = not found")
	}
	got, _ := entry.Evaluate(nil)
	if got != "2026-07-30" {
		t.Errorf("Evaluate() = %v, want 2026-07-30", got)
	}
}

func TestBuiltinConditions_Equals(t *testing.T) {
	r := NewRegistry()
	if err := BuiltinConditions(r); err != nil {
		t.Fatalf("BuiltinConditions: %v", err)
	}
	entry, ok := r.Lookup("Equals")
	if !ok {
		t.Fatal("Lookup(Equals) = not found")
	}
	got, err := entry.Evaluate("x", "x")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got != true {
		t.Errorf("Equals(x, x) = %v, want true", got)
	}
}

func TestBuiltinConditions_GreaterThan(t *testing.T) {
	r := NewRegistry()
	if err := BuiltinConditions(r); err != nil {
		t.Fatalf("BuiltinConditions: %v", err)
	}
	entry, _ := r.Lookup("GreaterThan")
	got, err := entry.Evaluate(10, 5)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got != true {
		t.Errorf("GreaterThan(10, 5) = %v, want true", got)
	}
}

func TestBuiltinTransformers_Trim(t *testing.T) {
	r := NewRegistry()
	if err := BuiltinTransformers(r); err != nil {
		t.Fatalf("BuiltinTransformers: %v", err)
	}
	entry, ok := r.Lookup("Trim")
	if !ok {
		t.Fatal("Lookup(Trim) = not found")
	}
	got, err := entry.Evaluate("  hi  ")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got != "hi" {
		t.Errorf("Trim(\"  hi  \") = %q, want \"hi\"", got)
	}
}

func TestBuiltinTransformers_ToUpper(t *testing.T) {
	r := NewRegistry()
	if err := BuiltinTransformers(r); err != nil {
		t.Fatalf("BuiltinTransformers: %v", err)
	}
	entry, _ := r.Lookup("ToUpper")
	got, _ := entry.Evaluate("hi")
	if got != "HI" {
		t.Errorf("ToUpper(hi) = %q, want HI", got)
	}
}

func TestRegisterExprCondition_InvalidExpressionFails(t *testing.T) {
	r := NewRegistry()
	err := RegisterExprCondition(r, "Broken", "value ==")
	if err == nil {
		t.Fatal("expected a compile error for a malformed expression")
	}
}
