package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/codeready-toolchain/searchctl/pkg/scenario"
)

// DefaultMemoryCapacity bounds the number of runs a Memory store keeps.
const DefaultMemoryCapacity = 200

// Memory is an in-process Store. The oldest runs are evicted once capacity is reached.
type Memory struct {
	mu       sync.RWMutex
	runs     map[string]*scenario.Run
	capacity int
}

// NewMemory creates a Memory store. A non-positive capacity selects DefaultMemoryCapacity.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{runs: make(map[string]*scenario.Run), capacity: capacity}
}

// SaveRun implements Store.
func (m *Memory) SaveRun(_ context.Context, run *scenario.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run.Clone()
	for len(m.runs) > m.capacity {
		m.evictOldest()
	}
	return nil
}

func (m *Memory) evictOldest() {
	var oldest *scenario.Run
	for _, r := range m.runs {
		if oldest == nil || r.StartedAt.Before(oldest.StartedAt) {
			oldest = r
		}
	}
	delete(m.runs, oldest.ID)
}

// GetRun implements Store.
func (m *Memory) GetRun(_ context.Context, id string) (*scenario.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run.Clone(), nil
}

// ListRuns implements Store.
func (m *Memory) ListRuns(_ context.Context, limit int) ([]*scenario.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*scenario.Run, 0, len(m.runs))
	for _, r := range m.runs {
		summary := *r
		summary.Steps = nil
		out = append(out, &summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit = normalizeLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteRunsBefore implements Pruner.
func (m *Memory) DeleteRunsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, r := range m.runs {
		if r.Status != scenario.StatusRunning && r.StartedAt.Before(cutoff) {
			delete(m.runs, id)
			n++
		}
	}
	return n, nil
}
