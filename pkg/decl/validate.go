package decl

import (
	"encoding/json"
	"fmt"
	"strings"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// ValidationError is a single structural-validation failure with enough
// location context to point an author at the offending node.
type ValidationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Decode parses a YAML document into the generic map/slice shape the
// NodeFactory walks (map[string]any / []any / primitives), the same loose
// representation `yaml.v3` produces for `any`.
func Decode(raw []byte) (any, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode declarative document: %w", err)
	}
	return normalizeYAML(doc), nil
}

// normalizeYAML rewrites yaml.v3's map[string]interface{} output (already
// string-keyed for mapping nodes) recursively so nested maps/slices match
// what encoding/json would have produced, which is what the generated
// schema (and jsonschema/v6, which validates via encoding/json semantics)
// expects.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, vv := range val {
			out[k] = normalizeYAML(vv)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, vv := range val {
			out[i] = normalizeYAML(vv)
		}
		return out
	default:
		return v
	}
}

// Validate checks a decoded declarative document against the generated
// Journey JSON Schema — a structural pre-check layered in front of the
// NodeFactory's own per-node discriminator checks (UnknownNodeType,
// InvalidNode). It does not replace those checks; it catches malformed
// documents earlier, with JSON-pointer-precise error locations.
func Validate(doc any) []*ValidationError {
	schemaJSON, err := GenerateJSONSchema()
	if err != nil {
		return []*ValidationError{{Message: fmt.Sprintf("generate schema: %v", err)}}
	}

	var schemaDoc any
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return []*ValidationError{{Message: fmt.Sprintf("unmarshal schema: %v", err)}}
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource("journey-v1.json", schemaDoc); err != nil {
		return []*ValidationError{{Message: fmt.Sprintf("add schema resource: %v", err)}}
	}
	sch, err := c.Compile("journey-v1.json")
	if err != nil {
		return []*ValidationError{{Message: fmt.Sprintf("compile schema: %v", err)}}
	}

	// Round-trip through JSON so map[string]any values decoded from YAML
	// (which may carry non-JSON types like map[any]any for nested blocks)
	// match what the schema validator expects.
	data, err := json.Marshal(doc)
	if err != nil {
		return []*ValidationError{{Message: fmt.Sprintf("marshal document: %v", err)}}
	}
	var jdoc any
	if err := json.Unmarshal(data, &jdoc); err != nil {
		return []*ValidationError{{Message: fmt.Sprintf("unmarshal document: %v", err)}}
	}

	if err := sch.Validate(jdoc); err != nil {
		if ve, ok := err.(*sjsonschema.ValidationError); ok {
			var errs []*ValidationError
			for _, cause := range flatten(ve) {
				errs = append(errs, &ValidationError{
					Path:    strings.Join(cause.InstanceLocation, "/"),
					Message: fmt.Sprintf("%v", cause.ErrorKind),
				})
			}
			return errs
		}
		return []*ValidationError{{Message: err.Error()}}
	}
	return nil
}

func flatten(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var out []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		out = append(out, flatten(cause)...)
	}
	return out
}
