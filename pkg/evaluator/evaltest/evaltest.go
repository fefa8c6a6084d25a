// Package evaltest provides replay fixtures for exercising a compiled
// step deterministically in tests: a FakeFunctionRegistry that swaps in
// canned function outputs instead of the host's real implementations, and
// a ScenarioRequest YAML fixture format for driving a request through the
// compiled pipeline and asserting on its result, without needing a real
// function registry or live request wired up.
package evaltest

import (
	"fmt"
	"os"

	"github.com/ormasoftchile/formengine/pkg/answerhistory"
	"github.com/ormasoftchile/formengine/pkg/evaluator"
	"github.com/ormasoftchile/formengine/pkg/functions"
	"github.com/ormasoftchile/formengine/pkg/thunk"
	"gopkg.in/yaml.v3"
)

// FakeFunctionRegistry wraps a real functions.Registry, substituting a
// canned response for any name in its stubs map and falling back to the
// wrapped registry for everything else — so a test only needs to stub
// the handful of functions its scenario actually reaches.
type FakeFunctionRegistry struct {
	*functions.Registry
	stubs map[string]any
}

// NewFakeFunctionRegistry wraps base, stubbing each name in responses to
// return that canned value instead of invoking the real entry. The stubs
// are registered into base itself, replacing any entry of the same name.
func NewFakeFunctionRegistry(base *functions.Registry, responses map[string]any) *FakeFunctionRegistry {
	f := &FakeFunctionRegistry{Registry: base, stubs: responses}
	for name, value := range responses {
		value := value
		f.Register(&functions.Entry{
			Name:     name,
			Evaluate: func(first any, args ...any) (any, error) { return value, nil },
		})
	}
	return f
}

// ScenarioRequest is one pre-recorded request to replay against a
// compiled step.
type ScenarioRequest struct {
	Method string         `yaml:"method"`
	Post   map[string]any `yaml:"post,omitempty"`
	Query  map[string]any `yaml:"query,omitempty"`
	Params map[string]any `yaml:"params,omitempty"`
	Want   ScenarioWant   `yaml:"want"`
}

// ScenarioWant is what a ScenarioRequest expects the evaluation to
// produce: either a value (deep-compared after JSON round-trip by the
// caller) or an error kind.
type ScenarioWant struct {
	Value     any    `yaml:"value,omitempty"`
	ErrorKind string `yaml:"errorKind,omitempty"`
}

// Scenario is a named list of requests replayed in order against the same
// compiled step, sharing one answer history across requests — the shape
// a multi-request journey walkthrough takes in a test fixture.
type Scenario struct {
	Name     string            `yaml:"name"`
	Requests []ScenarioRequest `yaml:"requests"`
}

// LoadScenario reads and parses a scenario fixture file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return &s, nil
}

// RunScenario replays every request in s against step using funcs as the
// function registry (typically a FakeFunctionRegistry), returning one
// Result per request in order. Each request gets a fresh Evaluator; the
// session and answer history are shared across requests.
func RunScenario(s *Scenario, step *evaluator.CompiledStep, funcs *functions.Registry) []thunk.Result {
	answers := answerhistory.New()
	session := evaluator.NewSession(nil, answers, map[string]any{}, map[string]any{})

	results := make([]thunk.Result, 0, len(s.Requests))
	for _, req := range s.Requests {
		ev := evaluator.New(step, funcs, session)
		ectx := ev.CreateContext(thunk.Request{
			Method: req.Method,
			Post:   req.Post,
			Query:  req.Query,
			Params: req.Params,
		}, map[string]any{}, answers)
		results = append(results, ev.Evaluate(ectx))
	}
	return results
}
