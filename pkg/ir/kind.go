// Package ir defines the intermediate representation the form engine
// compiles declarative journeys into: a closed tagged union of node kinds,
// each dispatched by Kind, plus the id generator that stamps every node
// with a unique, cloneable identity.
package ir

// Kind discriminates the tagged union of IR node types. Every Node carries
// exactly one Kind and only the fields that kind defines are meaningful.
type Kind string

const (
	// Structural
	KindJourney Kind = "journey"
	KindStep    Kind = "step"
	KindBlock   Kind = "block" // Basic or Field, distinguished by Variant/Code

	// Expressions
	KindReference  Kind = "reference"
	KindFormat     Kind = "format"
	KindPipeline   Kind = "pipeline"
	KindIterate    Kind = "iterate"
	KindValidation Kind = "validation"
	KindNext       Kind = "next"
	KindFunction   Kind = "function"

	// Predicates
	KindTest Kind = "test"
	KindAnd  Kind = "and"
	KindOr   Kind = "or"
	KindXor  Kind = "xor"
	KindNot  Kind = "not"

	// Transitions
	KindLoad   Kind = "load"
	KindAccess Kind = "access"
	KindAction Kind = "action"
	KindSubmit Kind = "submit"

	// Outcomes
	KindRedirect   Kind = "redirect"
	KindThrowError Kind = "throwError"

	// Pseudo-nodes (engine-synthesized)
	KindAnswerLocal  Kind = "answerLocal"
	KindAnswerRemote Kind = "answerRemote"
	KindPost         Kind = "post"
	KindQuery        Kind = "query"
	KindParams       Kind = "params"
	KindData         Kind = "data"

	// KindSelf is a transient marker left by the NodeFactory for a
	// declarative `Self()` reference; ResolveSelfReferences rewrites every
	// KindSelf node inside a FieldBlock into a KindReference before
	// compilation continues. No handler exists for KindSelf, so one left
	// outside any FieldBlock has none.
	KindSelf Kind = "self"
)

// IsPseudo reports whether k is one of the engine-synthesized pseudo-node
// kinds, never authored directly in declarative input.
func (k Kind) IsPseudo() bool {
	switch k {
	case KindAnswerLocal, KindAnswerRemote, KindPost, KindQuery, KindParams, KindData:
		return true
	default:
		return false
	}
}

// FunctionKind discriminates a Function node's role.
type FunctionKind string

const (
	FunctionCondition  FunctionKind = "CONDITION"
	FunctionTransform  FunctionKind = "TRANSFORMER"
	FunctionGenerator  FunctionKind = "GENERATOR"
	FunctionEffect     FunctionKind = "EFFECT"
)

// AnswerSource tags the origin of a single AnswerHistory mutation.
type AnswerSource string

const (
	SourceLoad      AnswerSource = "load"
	SourceAction    AnswerSource = "action"
	SourcePost      AnswerSource = "post"
	SourceDefault   AnswerSource = "default"
	SourceSanitized AnswerSource = "sanitized"
	SourceProcessed AnswerSource = "processed"
	SourceDependent AnswerSource = "dependent"
)
