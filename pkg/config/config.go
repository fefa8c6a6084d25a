// Package config defines EngineConfig, the one host-facing configuration
// document this engine reads: which function-registry modules to load,
// the default sanitize locale, and where to write tracing output. It is
// parsed and validated with the same strict-decode discipline as every
// strict YAML decode, then JSON Schema validation against a schema
// generated from the struct itself.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// EngineConfig is the formengine.yaml document.
type EngineConfig struct {
	APIVersion string         `yaml:"apiVersion" json:"apiVersion" jsonschema:"required,enum=formengine/v0"`
	Functions  FunctionConfig `yaml:"functions"  json:"functions"`
	Sanitize   SanitizeConfig `yaml:"sanitize,omitempty" json:"sanitize,omitempty"`
	Trace      TraceConfig    `yaml:"trace,omitempty"    json:"trace,omitempty"`
}

// FunctionConfig names the condition/transformer/effect modules the host
// registers into the functions.Registry before compiling any form. Module
// names are resolved by the host's own wiring code, not by this package —
// EngineConfig only records the intent.
type FunctionConfig struct {
	Modules []string `yaml:"modules,omitempty" json:"modules,omitempty"`
}

// SanitizeConfig controls AnswerLocal's default HTML-escaping behavior
// (spec.md §4.7's sanitize step) when a FieldBlock does not set its own
// `sanitize` flag.
type SanitizeConfig struct {
	Locale  string `yaml:"locale,omitempty"  json:"locale,omitempty"`
	Default bool   `yaml:"default,omitempty" json:"default,omitempty"`
}

// TraceConfig points pkg/telemetry at an output sink.
type TraceConfig struct {
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`
	Enabled bool   `yaml:"enabled,omitempty" json:"enabled,omitempty"`
}

// LoadFile reads and strictly parses an EngineConfig document, rejecting
// unknown fields.
func LoadFile(path string) (*EngineConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open engine config: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses an EngineConfig from an io.Reader with strict unknown-field
// rejection.
func Load(r io.Reader) (*EngineConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read engine config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg EngineConfig
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode engine config: %w", err)
	}
	return &cfg, nil
}
