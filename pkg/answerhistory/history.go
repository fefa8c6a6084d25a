// Package answerhistory implements the append-only mutation log behind
// every field's answer: AnswerLocal consults it before falling back to
// context.global.answers, and the precedence rules in spec.md §4.7 are
// enforced entirely by what gets appended and in what order.
package answerhistory

import (
	"sync"

	"github.com/ormasoftchile/formengine/pkg/ir"
)

// Mutation is one entry in a field's append-only history.
type Mutation struct {
	Value  any
	Source ir.AnswerSource
}

// FieldHistory is one field code's full mutation trail plus its cached
// current value (the last mutation's value).
type FieldHistory struct {
	Current   any
	Mutations []Mutation
}

// History owns one request's worth of per-field-code mutation logs. Its
// methods are called from the concurrent Block/Function fan-out (block.go's
// per-property goroutines, function.go's evalArgsParallel), so fields is
// guarded by mu rather than left to the caller.
type History struct {
	mu     sync.Mutex
	fields map[string]*FieldHistory
}

func New() *History {
	return &History{fields: map[string]*FieldHistory{}}
}

// Append adds a mutation and updates Current. Never removes or rewrites a
// prior mutation — callers needing "current" precedence must consult
// LatestSource before deciding whether to append at all (see P6).
func (h *History) Append(code string, value any, source ir.AnswerSource) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fh, ok := h.fields[code]
	if !ok {
		fh = &FieldHistory{}
		h.fields[code] = fh
	}
	fh.Mutations = append(fh.Mutations, Mutation{Value: value, Source: source})
	fh.Current = value
}

// Has reports whether code has any recorded mutation.
func (h *History) Has(code string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.fields[code]
	return ok
}

// Current returns the field's latest value and whether it has one.
func (h *History) Current(code string) (any, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fh, ok := h.fields[code]
	if !ok {
		return nil, false
	}
	return fh.Current, true
}

// LatestSource returns the source of the most recent mutation, or "" if
// the field has none.
func (h *History) LatestSource(code string) ir.AnswerSource {
	h.mu.Lock()
	defer h.mu.Unlock()
	fh, ok := h.fields[code]
	if !ok || len(fh.Mutations) == 0 {
		return ""
	}
	return fh.Mutations[len(fh.Mutations)-1].Source
}

// Mutations returns the full trail for a field code, oldest first. The
// returned slice is the live backing array; callers must treat it as
// read-only since it is not copied under the lock.
func (h *History) Mutations(code string) []Mutation {
	h.mu.Lock()
	defer h.mu.Unlock()
	fh, ok := h.fields[code]
	if !ok {
		return nil
	}
	return fh.Mutations
}

// Codes returns every field code with at least one mutation.
func (h *History) Codes() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.fields))
	for c := range h.fields {
		out = append(out, c)
	}
	return out
}
