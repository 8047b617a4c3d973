// Package domain defines the moderation history contracts.
// History backs the escalation rule, the opt-out registry, and the
// already-moderated dedup check
package domain

import (
	"context"
	"time"

	"moderato/internal/core/moderation"
)

// InterventionRecord is one finalized intervention written to history
type InterventionRecord struct {
	RunID       string
	UtteranceID string
	Author      string
	ThreadID    string
	Strategy    moderation.StrategyName
	Escalated   bool
	Responded   bool
	CreatedAt   time.Time
}

// ReaderPort answers the pipeline's pre-flight and decision-context reads
type ReaderPort interface {
	// Context returns the author's prior moderation history within a thread
	Context(ctx context.Context, author, threadID string) (moderation.DecisionContext, error)

	// OptedOut reports whether the author asked to be left alone
	OptedOut(ctx context.Context, author string) (bool, error)

	// AlreadyModerated reports whether an intervention was already recorded
	// for the utterance
	AlreadyModerated(ctx context.Context, utteranceID string) (bool, error)
}

// WriterPort records pipeline outcomes
type WriterPort interface {
	RecordIntervention(ctx context.Context, rec InterventionRecord) error
	OptOut(ctx context.Context, author string) error
}

// Repo is the storage surface the service binds to
type Repo interface {
	ReaderPort
	WriterPort
}
