// Package decl describes the shape of declarative compile input — the
// YAML/JSON trees a host authors journeys in before the NodeFactory turns
// them into IR. The types here exist to generate and validate a JSON
// Schema for that input; the factory itself walks the decoded
// map[string]any tree directly; it does not unmarshal into these structs.
package decl

// Journey is the root of a declarative form. Every object below a Journey
// is discriminated by its "type" field.
type Journey struct {
	Type     string     `yaml:"type" json:"type" jsonschema:"required,const=journey"`
	Path     string     `yaml:"path" json:"path" jsonschema:"required"`
	Children []Journey  `yaml:"children,omitempty" json:"children,omitempty"`
	Steps    []Step     `yaml:"steps,omitempty" json:"steps,omitempty"`
	View     string     `yaml:"view,omitempty" json:"view,omitempty"`
	OnLoad   *Transition `yaml:"onLoad,omitempty" json:"onLoad,omitempty"`
	OnAccess *Transition `yaml:"onAccess,omitempty" json:"onAccess,omitempty"`
}

// Step is a single page of a Journey.
type Step struct {
	Type         string      `yaml:"type" json:"type" jsonschema:"required,const=step"`
	Path         string      `yaml:"path" json:"path" jsonschema:"required"`
	Title        string      `yaml:"title,omitempty" json:"title,omitempty"`
	Blocks       []Block     `yaml:"blocks,omitempty" json:"blocks,omitempty"`
	View         string      `yaml:"view,omitempty" json:"view,omitempty"`
	OnLoad       *Transition `yaml:"onLoad,omitempty" json:"onLoad,omitempty"`
	OnAccess     *Transition `yaml:"onAccess,omitempty" json:"onAccess,omitempty"`
	OnAction     *Transition `yaml:"onAction,omitempty" json:"onAction,omitempty"`
	OnSubmission *Transition `yaml:"onSubmission,omitempty" json:"onSubmission,omitempty"`
	Entry        bool        `yaml:"entry,omitempty" json:"entry,omitempty"`
	IsEntryPoint bool        `yaml:"isEntryPoint,omitempty" json:"isEntryPoint,omitempty"`
}

// Block is either a BasicBlock (freeform, no `code`) or a FieldBlock
// (carries `code` and answer-related properties). The "type" discriminator
// is always "block"; Code's presence distinguishes the two sub-shapes, per
// spec.md §4.1's InvalidNode rule (field blocks without `code` are invalid
// only when Variant implies a field — enforced by the factory, not here).
type Block struct {
	Type           string         `yaml:"type" json:"type" jsonschema:"required,const=block"`
	Variant        string         `yaml:"variant" json:"variant" jsonschema:"required"`
	BlockType      string         `yaml:"blockType,omitempty" json:"blockType,omitempty"`
	Code           string         `yaml:"code,omitempty" json:"code,omitempty"`
	Label          any            `yaml:"label,omitempty" json:"label,omitempty"`
	Validate       []any          `yaml:"validate,omitempty" json:"validate,omitempty"`
	Dependent      any            `yaml:"dependent,omitempty" json:"dependent,omitempty"`
	Formatters     []any          `yaml:"formatters,omitempty" json:"formatters,omitempty"`
	FormatPipeline any            `yaml:"formatPipeline,omitempty" json:"formatPipeline,omitempty"`
	DefaultValue   any            `yaml:"defaultValue,omitempty" json:"defaultValue,omitempty"`
	Sanitize       *bool          `yaml:"sanitize,omitempty" json:"sanitize,omitempty"`
	Properties     map[string]any `yaml:"-" json:"-"`
}

// Reference is a navigable path expression, e.g. {path:["answers","email"]}.
type Reference struct {
	Type string `yaml:"type" json:"type" jsonschema:"required,const=reference"`
	Path []any  `yaml:"path" json:"path" jsonschema:"required,minItems=1"`
	Base string `yaml:"base,omitempty" json:"base,omitempty"`
}

// Format substitutes evaluated args into a %1..%n positional template.
type Format struct {
	Type     string `yaml:"type" json:"type" jsonschema:"required,const=format"`
	Template string `yaml:"template" json:"template" jsonschema:"required"`
	Args     []any  `yaml:"args,omitempty" json:"args,omitempty"`
}

// Pipeline threads a value through a sequence of steps, each seeing the
// prior step's result as @scope.@value.
type Pipeline struct {
	Type  string `yaml:"type" json:"type" jsonschema:"required,const=pipeline"`
	Input any    `yaml:"input" json:"input" jsonschema:"required"`
	Steps []any  `yaml:"steps" json:"steps" jsonschema:"required"`
}

// Iterate expands a template once per item of an evaluated collection.
type Iterate struct {
	Type       string `yaml:"type" json:"type" jsonschema:"required,const=iterate"`
	Collection any    `yaml:"collection" json:"collection" jsonschema:"required"`
	Template   []any  `yaml:"template" json:"template" jsonschema:"required"`
	Fallback   any    `yaml:"fallback,omitempty" json:"fallback,omitempty"`
}

// Validation yields a pass/fail verdict with a user-facing message.
type Validation struct {
	Type    string `yaml:"type" json:"type" jsonschema:"required,const=validation"`
	When    any    `yaml:"when" json:"when" jsonschema:"required"`
	Message string `yaml:"message" json:"message" jsonschema:"required"`
}

// Next is one candidate destination of a Submit branch.
type Next struct {
	Type string `yaml:"type" json:"type" jsonschema:"required,const=next"`
	When any    `yaml:"when,omitempty" json:"when,omitempty"`
	Goto any    `yaml:"goto" json:"goto" jsonschema:"required"`
}

// Function invokes a registered condition/transformer/generator/effect.
type Function struct {
	Type      string `yaml:"type" json:"type" jsonschema:"required,const=function"`
	Kind      string `yaml:"kind" json:"kind" jsonschema:"required,enum=CONDITION,enum=TRANSFORMER,enum=GENERATOR,enum=EFFECT"`
	Name      string `yaml:"name" json:"name" jsonschema:"required"`
	Arguments []any  `yaml:"arguments,omitempty" json:"arguments,omitempty"`
}

// Test evaluates a condition against a subject value.
type Test struct {
	Type      string `yaml:"type" json:"type" jsonschema:"required,const=test"`
	Subject   any    `yaml:"subject" json:"subject" jsonschema:"required"`
	Condition any    `yaml:"condition" json:"condition" jsonschema:"required"`
	Negate    bool   `yaml:"negate,omitempty" json:"negate,omitempty"`
}

// BooleanOp is the shared shape of And/Or/Xor (operands) and Not (single
// operand stored as Operands[0]).
type BooleanOp struct {
	Type     string `yaml:"type" json:"type" jsonschema:"required,enum=and,enum=or,enum=xor,enum=not"`
	Operands []any  `yaml:"operands" json:"operands" jsonschema:"required,minItems=1"`
}

// Transition is the shared shape of onLoad/onAccess/onAction and Submit;
// Validate/OnValid/OnInvalid are optional fields of this same struct that
// only Submit uses.
type Transition struct {
	Type    string `yaml:"type" json:"type" jsonschema:"required,enum=load,enum=access,enum=action,enum=submit"`
	When    any    `yaml:"when,omitempty" json:"when,omitempty"`
	Effects []any  `yaml:"effects,omitempty" json:"effects,omitempty"`

	Validate  *bool   `yaml:"validate,omitempty" json:"validate,omitempty"`
	OnValid   *Branch `yaml:"onValid,omitempty" json:"onValid,omitempty"`
	OnInvalid *Branch `yaml:"onInvalid,omitempty" json:"onInvalid,omitempty"`
}

// Branch is Submit's onValid/onInvalid arm.
type Branch struct {
	Effects []any `yaml:"effects,omitempty" json:"effects,omitempty"`
	Next    []any `yaml:"next,omitempty" json:"next,omitempty"`
	Outcome any   `yaml:"outcome,omitempty" json:"outcome,omitempty"`
}

// Redirect and ThrowError are the two terminal outcome shapes a Submit
// branch's Next list (or Outcome field) resolves to.
type Redirect struct {
	Type string `yaml:"type" json:"type" jsonschema:"required,const=redirect"`
	Goto any    `yaml:"goto" json:"goto" jsonschema:"required"`
}

type ThrowError struct {
	Type    string `yaml:"type" json:"type" jsonschema:"required,const=throwError"`
	Code    string `yaml:"code" json:"code" jsonschema:"required"`
	Message string `yaml:"message,omitempty" json:"message,omitempty"`
}
