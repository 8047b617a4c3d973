// Package domain defines the normalizer contract
package domain

import (
	"context"

	"moderato/internal/core/moderation"
)

// NormalizerPort converts an utterance into its canonical-language form.
// When the source language already matches the canonical language the stage
// must pass through without any capability call
type NormalizerPort interface {
	Normalize(ctx context.Context, u moderation.Utterance) (moderation.NormalizedUtterance, error)
}
