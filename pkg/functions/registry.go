// Package functions implements the FunctionRegistry: the catalogue of
// condition/transformer/generator/effect functions a Function node's
// FunctionHandler looks up by name. The registry is populated by the host
// application; the engine only specifies the contract.
package functions

import "sync"

// Entry is what the registry stores per registered function.
type Entry struct {
	Name     string
	Evaluate func(first any, args ...any) (any, error)
	IsAsync  bool
}

// Registry is name → Entry. Safe for concurrent reads once built; writes
// (Register) are expected to happen once, at application wiring time,
// before any request is evaluated.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: map[string]*Entry{}}
}

func (r *Registry) Register(e *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.Name] = e
}

func (r *Registry) Lookup(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// Builder emits a declarative Function object for use when a journey is
// authored programmatically in Go instead of YAML.
type Builder func(kind, args ...any) map[string]any

// NewBuilder returns the builder half of a registered function: a closure
// that emits the declarative shape FunctionHandler's node factory expects.
func NewBuilder(name string) func(args ...any) map[string]any {
	return func(args ...any) map[string]any {
		return map[string]any{
			"type":      "function",
			"kind":      "CONDITION",
			"name":      name,
			"arguments": args,
		}
	}
}

// WithDeps separates constructing a function's runtime Entry from
// registering it, so dependencies (a clock, a repository, an HTTP client)
// can be injected at application wiring time rather than at package
// init. Construct(deps) returns the Entry to register.
type WithDeps struct {
	Name        string
	Construct   func(deps any) *Entry
}

// RegisterWithDeps builds and registers an Entry whose behavior closes
// over deps.
func RegisterWithDeps(r *Registry, wd WithDeps, deps any) {
	r.Register(wd.Construct(deps))
}
