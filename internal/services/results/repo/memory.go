package repo

import (
	"context"
	"sync"

	"moderato/internal/core/moderation"
)

// Memory keeps terminal results in process memory; the fallback sink when
// clickhouse is not configured, and the sink tests inspect
type Memory struct {
	mu   sync.Mutex
	runs []moderation.PipelineResult
}

// NewMemory constructs an empty in-memory sink
func NewMemory() *Memory { return &Memory{} }

// Write appends res
func (m *Memory) Write(_ context.Context, res moderation.PipelineResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, res)
	return nil
}

// Runs returns a copy of everything written so far
func (m *Memory) Runs() []moderation.PipelineResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]moderation.PipelineResult, len(m.runs))
	copy(out, m.runs)
	return out
}
