package modelcall

import (
	"sync"
)

// DefaultMaxEntries bounds the store when no limit is configured.
const DefaultMaxEntries = 1000

// Store keeps recent calls in memory, newest last, evicting the oldest once
// the bound is reached. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	calls []*Call
	max   int
}

// NewStore creates a store bounded to max entries (<=0 uses the default).
func NewStore(max int) *Store {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &Store{max: max}
}

// Record appends a call, evicting the oldest entry when full.
func (s *Store) Record(c *Call) {
	if c == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, c)
	if len(s.calls) > s.max {
		s.calls = s.calls[len(s.calls)-s.max:]
	}
}

// List returns up to limit calls, newest first. limit <= 0 returns all.
func (s *Store) List(limit int) []*Call {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.calls)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*Call, 0, n)
	for i := len(s.calls) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.calls[i])
	}
	return out
}

// Get returns the call with the given ID, or nil.
func (s *Store) Get(id string) *Call {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.calls {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// CountByRunner returns call counts grouped by runner name.
func (s *Store) CountByRunner() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, c := range s.calls {
		counts[c.Runner]++
	}
	return counts
}
