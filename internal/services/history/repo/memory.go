package repo

import (
	"context"
	"sync"

	"moderato/internal/core/moderation"
	"moderato/internal/services/history/domain"
)

// Memory implements domain.Repo in process memory. It backs single-node
// deployments without postgres and keeps service tests hermetic
type Memory struct {
	mu            sync.RWMutex
	interventions []domain.InterventionRecord
	byUtterance   map[string]struct{}
	optouts       map[string]struct{}
}

// NewMemory constructs an empty in-memory history
func NewMemory() *Memory {
	return &Memory{
		byUtterance: make(map[string]struct{}),
		optouts:     make(map[string]struct{}),
	}
}

// Context counts prior warnings and interventions for author in threadID
func (m *Memory) Context(_ context.Context, author, threadID string) (moderation.DecisionContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var dc moderation.DecisionContext
	for _, rec := range m.interventions {
		if rec.Author != author || rec.ThreadID != threadID {
			continue
		}
		dc.PriorInterventions++
		if rec.Strategy == moderation.StrategyWarnUser {
			dc.PriorWarnings++
		}
	}
	return dc, nil
}

// OptedOut checks the opt-out set
func (m *Memory) OptedOut(_ context.Context, author string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.optouts[author]
	return ok, nil
}

// AlreadyModerated checks the per-utterance dedup set
func (m *Memory) AlreadyModerated(_ context.Context, utteranceID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byUtterance[utteranceID]
	return ok, nil
}

// RecordIntervention appends a record, ignoring duplicates per utterance
func (m *Memory) RecordIntervention(_ context.Context, rec domain.InterventionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.byUtterance[rec.UtteranceID]; dup {
		return nil
	}
	m.byUtterance[rec.UtteranceID] = struct{}{}
	m.interventions = append(m.interventions, rec)
	return nil
}

// OptOut adds author to the opt-out set
func (m *Memory) OptOut(_ context.Context, author string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.optouts[author] = struct{}{}
	return nil
}
