package decl

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// GenerateJSONSchema produces a JSON Schema Draft 2020-12 document from the
// Go Journey struct using invopop/jsonschema, describing the shape every
// declarative compile input must satisfy.
func GenerateJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false
	r.ExpandedStruct = true

	s := r.Reflect(&Journey{})
	s.ID = "https://github.com/ormasoftchile/formengine/schemas/journey-v1.json"
	s.Title = "Form Engine Journey"
	s.Description = "Schema for declarative journey/step/block YAML documents"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal journey schema: %w", err)
	}
	return data, nil
}
