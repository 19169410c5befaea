package ingest

import "sync"

// Seen is a set of dedup hashes of signals already accepted in a run. A
// repeated hash is skipped, not rejected.
type Seen struct {
	mu     sync.Mutex
	hashes map[string]struct{}
}

// NewSeen creates an empty set.
func NewSeen() *Seen {
	return &Seen{hashes: make(map[string]struct{})}
}

// Add records hash and reports whether it was new.
func (s *Seen) Add(hash string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hashes[hash]; ok {
		return false
	}
	s.hashes[hash] = struct{}{}
	return true
}

// Len returns the number of recorded hashes.
func (s *Seen) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hashes)
}
