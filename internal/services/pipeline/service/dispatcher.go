package service

import (
	"context"
	"sync"

	"moderato/internal/core/moderation"
	"moderato/internal/services/pipeline/domain"
)

// Dispatcher serializes runs per thread so history reads and writes within
// one conversation never race. Different threads run concurrently
type Dispatcher struct {
	runner domain.RunnerPort

	mu    sync.Mutex
	locks map[string]*threadLock
}

type threadLock struct {
	mu   sync.Mutex
	refs int
}

// NewDispatcher wraps runner with per-thread serialization
func NewDispatcher(runner domain.RunnerPort) *Dispatcher {
	if runner == nil {
		panic("pipeline: nil runner")
	}
	return &Dispatcher{runner: runner, locks: make(map[string]*threadLock)}
}

// Run executes the pipeline, holding the utterance's thread lock for the
// duration. Utterances without a thread run unserialized
func (d *Dispatcher) Run(ctx context.Context, u moderation.Utterance) moderation.PipelineResult {
	if u.ThreadID == "" {
		return d.runner.Run(ctx, u)
	}

	tl := d.acquire(u.ThreadID)
	tl.mu.Lock()
	defer func() {
		tl.mu.Unlock()
		d.release(u.ThreadID)
	}()
	return d.runner.Run(ctx, u)
}

func (d *Dispatcher) acquire(threadID string) *threadLock {
	d.mu.Lock()
	defer d.mu.Unlock()
	tl, ok := d.locks[threadID]
	if !ok {
		tl = &threadLock{}
		d.locks[threadID] = tl
	}
	tl.refs++
	return tl
}

func (d *Dispatcher) release(threadID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	tl, ok := d.locks[threadID]
	if !ok {
		return
	}
	tl.refs--
	if tl.refs <= 0 {
		delete(d.locks, threadID)
	}
}
