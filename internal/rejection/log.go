package rejection

import "sync"

// Log is an append-only audit list of rejections. It is safe for concurrent
// use. Entries cannot be updated or removed.
type Log struct {
	mu      sync.RWMutex
	entries []Rejection
}

// NewLog returns an empty audit log.
func NewLog() *Log {
	return &Log{}
}

// Append records rejections in order.
func (l *Log) Append(rs ...Rejection) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, rs...)
}

// All returns a copy of every recorded rejection in append order.
func (l *Log) All() []Rejection {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Rejection, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of recorded rejections.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// CountByRule tallies rejections per rule.
func (l *Log) CountByRule() map[Rule]int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Count(l.entries)
}

// Count tallies rs per rule.
func Count(rs []Rejection) map[Rule]int {
	counts := make(map[Rule]int)
	for _, r := range rs {
		counts[r.rule]++
	}
	return counts
}
