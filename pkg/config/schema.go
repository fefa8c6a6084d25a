package config

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// GenerateJSONSchema produces a JSON Schema Draft 2020-12 document from
// the EngineConfig struct using invopop/jsonschema.
func GenerateJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false

	s := r.Reflect(&EngineConfig{})
	s.ID = "https://github.com/ormasoftchile/formengine/schemas/engine-config-v0.json"
	s.Title = "formengine EngineConfig v0"
	s.Description = "Schema for formengine.yaml host configuration documents"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal engine config schema: %w", err)
	}
	return data, nil
}

// ValidationError is one schema-validation failure, located by its
// instance path within the document.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate checks a decoded EngineConfig against the schema generated
// from its own Go struct, the same two-step (generate, then compile and
// validate) approach used throughout this codebase's document schemas.
func Validate(cfg *EngineConfig) []*ValidationError {
	data, err := json.Marshal(cfg)
	if err != nil {
		return []*ValidationError{{Message: fmt.Sprintf("marshal config: %v", err)}}
	}
	schemaJSON, err := GenerateJSONSchema()
	if err != nil {
		return []*ValidationError{{Message: fmt.Sprintf("generate schema: %v", err)}}
	}

	var schemaDoc any
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return []*ValidationError{{Message: fmt.Sprintf("unmarshal schema: %v", err)}}
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource("engine-config-v0.json", schemaDoc); err != nil {
		return []*ValidationError{{Message: fmt.Sprintf("add schema resource: %v", err)}}
	}
	sch, err := c.Compile("engine-config-v0.json")
	if err != nil {
		return []*ValidationError{{Message: fmt.Sprintf("compile schema: %v", err)}}
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return []*ValidationError{{Message: fmt.Sprintf("unmarshal document: %v", err)}}
	}

	if err := sch.Validate(doc); err != nil {
		if ve, ok := err.(*sjsonschema.ValidationError); ok {
			var errs []*ValidationError
			for _, cause := range flatten(ve) {
				errs = append(errs, &ValidationError{Path: cause.path, Message: cause.msg})
			}
			return errs
		}
		return []*ValidationError{{Message: err.Error()}}
	}
	return nil
}

type flatCause struct {
	path string
	msg  string
}

// flatten walks a jsonschema.ValidationError tree into its leaf causes,
// flattening each santhosh-tekuri ValidationError into a single message.
func flatten(ve *sjsonschema.ValidationError) []flatCause {
	if len(ve.Causes) == 0 {
		return []flatCause{{path: joinPath(ve.InstanceLocation), msg: fmt.Sprintf("%v", ve.ErrorKind)}}
	}
	var out []flatCause
	for _, c := range ve.Causes {
		out = append(out, flatten(c)...)
	}
	return out
}

func joinPath(segs []string) string {
	out := ""
	for i, s := range segs {
		if i > 0 {
			out += "/"
		}
		out += s
	}
	return out
}
