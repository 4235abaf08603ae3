package monitor

import (
	"sort"
	"sync"
	"time"
)

// RunStore is a thread-safe in-memory registry of compiler passes with TTL eviction.
type RunStore struct {
	mu   sync.Mutex
	runs map[string]*Run
	ttl  time.Duration
}

func NewRunStore(ttl time.Duration) *RunStore {
	return &RunStore{
		runs: make(map[string]*Run),
		ttl:  ttl,
	}
}

func (s *RunStore) Put(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
}

func (s *RunStore) Get(id string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}

// List returns snapshots of all runs, oldest first.
func (s *RunStore) List() []RunSnapshot {
	s.mu.Lock()
	runs := make([]*Run, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, r)
	}
	s.mu.Unlock()

	out := make([]RunSnapshot, 0, len(runs))
	for _, r := range runs {
		out = append(out, r.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].Pass < out[j].Pass
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// Cleanup removes runs not updated within the TTL.
func (s *RunStore) Cleanup() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.runs {
		if now.Sub(r.Snapshot().UpdatedAt) > s.ttl {
			delete(s.runs, id)
		}
	}
}
