package evalerr

import (
	"errors"
	"testing"

	"github.com/ormasoftchile/formengine/pkg/ir"
)

func TestEvalError_ErrorStringWithoutCause(t *testing.T) {
	e := New(LookupFailed, ir.NodeID("reference#1"), "answer not found")
	want := "LOOKUP_FAILED at reference#1: answer not found"
	if got := e.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestEvalError_ErrorStringWithCause(t *testing.T) {
	cause := errors.New("boom")
	e := Wrap(EvaluationFailed, ir.NodeID("function#2"), "function panicked", cause)
	want := "EVALUATION_FAILED at function#2: function panicked: boom"
	if got := e.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestEvalError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	e := Wrap(TypeMismatch, "n1", "bad type", cause)
	if !errors.Is(e, cause) {
		t.Error("errors.Is(e, cause) = false, want true (Unwrap must expose the cause)")
	}
}

func TestEvalError_UnwrapNilCause(t *testing.T) {
	e := New(SecurityViolation, "n1", "blocked")
	if e.Unwrap() != nil {
		t.Error("Unwrap() on an error with no cause should return nil")
	}
}

func TestUnknownNodeTypeError(t *testing.T) {
	e := &UnknownNodeTypeError{Type: "bogus", Path: "$.blocks[0]"}
	want := `unknown node type "bogus" at $.blocks[0]`
	if got := e.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestInvalidNodeError(t *testing.T) {
	e := &InvalidNodeError{Reason: "missing code", Path: "$.blocks[1]"}
	want := "invalid node at $.blocks[1]: missing code"
	if got := e.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestHandlerNotFoundError(t *testing.T) {
	e := &HandlerNotFoundError{NodeID: "block#3"}
	want := "handler not found for node block#3"
	if got := e.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestCircularDependencyError(t *testing.T) {
	e := &CircularDependencyError{Step: "/checkout", Cycle: []ir.NodeID{"a", "b", "a"}}
	got := e.Error()
	if got == "" {
		t.Fatal("Error() returned an empty string")
	}
}
