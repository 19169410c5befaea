package pipeline

import "sync/atomic"

// Session holds the most recent run result for the CLI and HTTP views.
// Each Store replaces the previous result wholesale.
type Session struct {
	latest atomic.Pointer[Result]
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{}
}

// Store makes r the latest result.
func (s *Session) Store(r *Result) {
	s.latest.Store(r)
}

// Latest returns the most recent result, if any.
func (s *Session) Latest() (*Result, bool) {
	r := s.latest.Load()
	return r, r != nil
}
