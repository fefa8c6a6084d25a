package evaluator

import (
	"sync"

	"github.com/ormasoftchile/formengine/pkg/answerhistory"
	"github.com/ormasoftchile/formengine/pkg/ir"
)

// Session is the in-memory thunk.EffectFunctionContext every host wires in
// by default: one mutex-guarded set of request-scoped maps (data, answers,
// params, query), one lock rather than one per map.
type Session struct {
	mu      sync.Mutex
	session any
	data    map[string]any
	answers *answerhistory.History
	params  map[string]any
	query   map[string]any
}

// NewSession returns a Session seeded from one request's transport inputs.
func NewSession(session any, answers *answerhistory.History, params, query map[string]any) *Session {
	return &Session{
		session: session,
		data:    map[string]any{},
		answers: answers,
		params:  params,
		query:   query,
	}
}

func (s *Session) GetSession() any { return s.session }

func (s *Session) SetData(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

func (s *Session) GetData(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *Session) SetAnswer(code string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers.Append(code, value, ir.SourceAction)
}

func (s *Session) GetAnswer(code string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Current(code)
}

func (s *Session) GetRequestParam(name string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.params[name]
	return v, ok
}

func (s *Session) GetQueryParam(name string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.query[name]
	return v, ok
}

// GetState is the generic lookup FunctionHandler's EFFECT kind uses for
// anything that isn't a named data/answer/param/query slot; Session
// serves it out of the same data map SetData/GetData use.
func (s *Session) GetState(key string) (any, bool) {
	return s.GetData(key)
}

// Answers exposes the History the Session was constructed with, so a
// caller can inspect mutations after evaluation completes.
func (s *Session) Answers() *answerhistory.History { return s.answers }
