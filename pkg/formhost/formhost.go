// Package formhost is the thin host-wiring layer every front end of this
// engine shares: the cobra CLI (cmd/formengine), the MCP server
// (pkg/ecosystem/mcp), and the TUI (cmd/formengine-tui) all decode,
// validate, and compile a journey document the same way, so that logic
// lives here once rather than being copied into each entry point.
package formhost

import (
	"fmt"
	"os"
	"strings"

	"github.com/ormasoftchile/formengine/pkg/decl"
	"github.com/ormasoftchile/formengine/pkg/evaluator"
	"github.com/ormasoftchile/formengine/pkg/functions"
	"github.com/ormasoftchile/formengine/pkg/ir"
	"github.com/ormasoftchile/formengine/pkg/registry"
)

// LoadDoc reads and decodes one declarative journey document from disk.
func LoadDoc(path string) (any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := decl.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, nil
}

// CountSteps walks a decoded document counting nested "step" nodes
// without a full IR compile, so validate can report a step count even
// when the document would later fail the factory's own checks.
func CountSteps(doc any) int {
	count := 0
	var walk func(v any)
	walk = func(v any) {
		switch val := v.(type) {
		case map[string]any:
			if t, _ := val["type"].(string); t == "step" {
				count++
			}
			for _, vv := range val {
				walk(vv)
			}
		case []any:
			for _, vv := range val {
				walk(vv)
			}
		}
	}
	walk(doc)
	return count
}

// StepPaths walks a decoded document collecting every step's path, in
// document order, for front ends (like the TUI) that need the full list
// up front rather than resolving one step at a time.
func StepPaths(doc any) []string {
	var paths []string
	var walk func(v any)
	walk = func(v any) {
		switch val := v.(type) {
		case map[string]any:
			if t, _ := val["type"].(string); t == "step" {
				if p, ok := val["path"].(string); ok && p != "" {
					paths = append(paths, p)
				}
			}
			for _, vv := range val {
				walk(vv)
			}
		case []any:
			for _, vv := range val {
				walk(vv)
			}
		}
	}
	walk(doc)
	return paths
}

// ResolveStep finds the step node matching path, or the journey's first
// step (in registration order) when path is empty.
func ResolveStep(reg *registry.NodeRegistry, path string) (ir.NodeID, string, error) {
	steps := reg.ByType(ir.KindStep)
	if len(steps) == 0 {
		return "", "", fmt.Errorf("journey has no steps")
	}
	if path == "" {
		p, _ := reg.Path(steps[0])
		return steps[0], p, nil
	}
	for _, id := range steps {
		if p, ok := reg.Path(id); ok && p == path {
			return id, p, nil
		}
	}
	return "", "", fmt.Errorf("no step at path %q", path)
}

// ParseKV parses a list of "key=value" strings into a map, the shape
// every transport-facing input (POST body, query string, route params)
// takes once decoded.
func ParseKV(pairs []string) (map[string]any, error) {
	out := map[string]any{}
	for _, p := range pairs {
		parts := strings.SplitN(p, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid %q: expected key=value", p)
		}
		out[parts[0]] = parts[1]
	}
	return out, nil
}

// BuiltinFunctions returns a FunctionRegistry seeded with the engine's
// stock condition/transformer catalogue. A host with its own function
// modules (per EngineConfig.Functions) registers them alongside these.
func BuiltinFunctions() (*functions.Registry, error) {
	r := functions.NewRegistry()
	if err := functions.BuiltinConditions(r); err != nil {
		return nil, fmt.Errorf("register builtin conditions: %w", err)
	}
	if err := functions.BuiltinTransformers(r); err != nil {
		return nil, fmt.Errorf("register builtin transformers: %w", err)
	}
	return r, nil
}

// CompileJourneyStep runs the full compile pipeline — decode, validate,
// CompileForm, resolve the target step, CompileStep — for a journey file
// on disk. This is the one call every front end (CLI, MCP, TUI) makes to
// get from a path on disk to a ready-to-evaluate CompiledStep.
func CompileJourneyStep(path, stepPath string) (*evaluator.CompiledStep, *functions.Registry, string, error) {
	doc, err := LoadDoc(path)
	if err != nil {
		return nil, nil, "", err
	}
	if errs := decl.Validate(doc); len(errs) > 0 {
		return nil, nil, "", fmt.Errorf("journey failed schema validation: %d error(s)", len(errs))
	}

	f, rootID, err := evaluator.CompileForm(doc)
	if err != nil {
		return nil, nil, "", fmt.Errorf("compile form: %w", err)
	}

	prelim := registry.Build(f.Nodes, rootID)
	stepID, resolvedPath, err := ResolveStep(prelim, stepPath)
	if err != nil {
		return nil, nil, "", err
	}

	funcs, err := BuiltinFunctions()
	if err != nil {
		return nil, nil, "", err
	}

	step, err := evaluator.CompileStep(f, rootID, stepID, funcs, nil)
	if err != nil {
		return nil, nil, "", fmt.Errorf("compile step %q: %w", resolvedPath, err)
	}
	return step, funcs, resolvedPath, nil
}
