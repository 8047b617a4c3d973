// Package domain defines the response composer contract
package domain

import (
	"context"

	"moderato/internal/core/moderation"
)

// Composition is the composer output: the response plus the stage status it
// was produced under. A no-response with StatusOK is the normal outcome for
// a "none" decision; a no-response with StatusDegraded means generation was
// attempted and suppressed
type Composition struct {
	Response moderation.ModerationResponse
	Status   moderation.StageStatus
}

// ComposerPort turns a strategy decision into a candidate moderation
// message, or signals that no message should be produced. It never returns
// an error: silence is the safe default for a failed or unsafe generation
type ComposerPort interface {
	Compose(ctx context.Context, d moderation.StrategyDecision, u moderation.Utterance) Composition
}
