package answerhistory

import (
	"fmt"
	"path/filepath"
)

// Policy flags field codes as sensitive by glob pattern (e.g. "ssn",
// "payment.*") so a host can redact them before writing a field's
// mutation trail to a trace sink. Patterns are matched with
// filepath.Match semantics, one field code at a time.
type Policy struct {
	patterns []string
}

// NewPolicy compiles a policy from a set of glob patterns.
func NewPolicy(patterns ...string) (*Policy, error) {
	for _, p := range patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
	}
	return &Policy{patterns: patterns}, nil
}

// Sensitive reports whether code matches any of the policy's patterns.
func (p *Policy) Sensitive(code string) bool {
	if p == nil {
		return false
	}
	for _, pat := range p.patterns {
		if ok, _ := filepath.Match(pat, code); ok {
			return true
		}
	}
	return false
}

// Redact replaces value with a placeholder when code is sensitive under
// the policy, otherwise returns it unchanged. Intended for a trace sink
// to call on every mutation it's about to emit, never to gate what
// Append records — the history itself always keeps the real value.
func (p *Policy) Redact(code string, value any) any {
	if p.Sensitive(code) {
		return "[REDACTED]"
	}
	return value
}
