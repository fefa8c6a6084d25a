package ir

import "fmt"

// NodeID identifies a single IR node uniquely within a compiled form.
type NodeID string

// IDCategory distinguishes ids stamped at compile time (stable, safe to
// clone across step artefacts) from ids stamped at evaluation time (scoped
// to one request, e.g. Iterate's runtime-created children).
type IDCategory string

const (
	CategoryCompileAST IDCategory = "COMPILE_AST"
	CategoryRuntimeAST IDCategory = "RUNTIME_AST"
)

// IDGenerator hands out unique NodeIDs, tagging each with its category so
// callers can tell a stable compiled id from a per-request runtime one
// without consulting the registry.
type IDGenerator struct {
	compileSeq int
	runtimeSeq int
}

// NewIDGenerator returns a generator starting from zero.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// NextCompile returns the next COMPILE_AST id, prefixed by kind for
// readability in traces and error messages (e.g. "block#3").
func (g *IDGenerator) NextCompile(k Kind) NodeID {
	g.compileSeq++
	return NodeID(fmt.Sprintf("%s#%d", k, g.compileSeq))
}

// NextRuntime returns the next RUNTIME_AST id, scoped under the parent
// Iterate node id that spawned it so ids stay distinct across concurrent
// requests evaluating the same compiled form.
func (g *IDGenerator) NextRuntime(parent NodeID, k Kind) NodeID {
	g.runtimeSeq++
	return NodeID(fmt.Sprintf("%s/%s#%d", parent, k, g.runtimeSeq))
}

// Category reports which category an id belongs to, recognizing the
// "/" runtime-scoping separator NextRuntime introduces.
func Category(id NodeID) IDCategory {
	for _, r := range id {
		if r == '/' {
			return CategoryRuntimeAST
		}
	}
	return CategoryCompileAST
}

// Node is the closed tagged union every IR value belongs to. Only the
// fields relevant to Kind are populated; the rest are zero. This mirrors
// a flat discriminated record rather than an interface hierarchy — there
// is no open polymorphism over node kinds, only a dispatch on Kind.
type Node struct {
	ID   NodeID
	Kind Kind
	Raw  any // original declarative value, preserved for diagnostics

	// --- Structural ---
	Path     string
	Children []NodeID // Journey: sub-journeys; Step: n/a
	Steps    []NodeID // Journey.steps
	View     string
	Title    string
	Blocks   []NodeID // Step.blocks
	Entry    bool
	IsEntryPoint bool

	// Block (Basic or Field; Code != "" marks a FieldBlock)
	Variant        string
	BlockType      string
	Code           string
	Label          NodeID
	Validate       []NodeID
	Dependent      NodeID
	Formatters     []NodeID
	FormatPipeline NodeID // Pipeline node id; AddSelfValueToFields fills its Input when empty
	DefaultValue   NodeID
	Sanitize       *bool
	Properties     map[string]NodeID // freeform block properties (items, hint, ...)

	// Transitions present on Journey/Step
	OnLoad       NodeID
	OnAccess     NodeID
	OnAction     NodeID
	OnSubmission NodeID

	// --- Expressions ---
	RefPath []any    // Reference.path: string or NodeID (dynamic segment)
	RefBase string   // Reference.base as declared ("" when absent); resolution dispatches on RefPath[0]
	Template string  // Format.template
	Args     []NodeID // Format.args

	Input NodeID   // Pipeline.input
	Steps2 []NodeID // Pipeline.steps (named distinctly to avoid clashing with Journey.Steps)

	Collection NodeID // Iterate.collection
	Tmpl       []any  // Iterate.template, raw declarative sub-tree(s)
	Fallback   NodeID // Iterate.fallback

	When    NodeID // Validation.when, Next.when, Action/Submit.when
	Message string // Validation.message

	Goto NodeID // Next.goto, Redirect.goto

	FuncKind FunctionKind
	FuncName string
	FuncArgs []NodeID

	// --- Predicates ---
	Subject  NodeID // Test.subject
	Negate   bool   // Test.negate
	Operands []NodeID

	// --- Transitions ---
	Effects []NodeID // Load/Access/Action.effects
	OnValid   NodeID // Submit.onValid (branch, represented via SubmitBranch below)
	OnInvalid NodeID // Submit.onInvalid

	Branch *SubmitBranch // populated for Submit's onValid/onInvalid targets

	// --- Outcomes ---
	Code2   string // ThrowError.code
	ErrMsg  string // ThrowError.message

	// --- Pseudo-nodes ---
	BaseFieldCode string
	FieldNodeID   NodeID
	ParamName     string
	BaseProperty  string
}

// SubmitBranch is the shape of Submit.onValid / Submit.onInvalid, the
// success/failure arms: an optional effect list followed by either a list
// of Next candidates or a terminal outcome node id.
type SubmitBranch struct {
	Effects []NodeID
	Next    []NodeID // Next nodes, evaluated in order; first match wins
	Outcome NodeID   // set when the branch is a direct Redirect/ThrowError
}
