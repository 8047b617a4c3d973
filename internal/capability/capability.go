// Package capability defines the contracts for the external model providers
// the pipeline consumes. Implementations live in subpackages; the decision
// core only ever sees these interfaces, so tests swap in deterministic stubs
package capability

import (
	"context"

	"moderato/internal/core/moderation"
)

// Translation is one translate call result
type Translation struct {
	Text       string
	Confidence float64
}

// Translator converts text into the target language
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (Translation, error)
}

// Classifier scores text for a set of trigger kinds. A classifier may cover
// one kind or many; the detector merges outputs across classifiers
type Classifier interface {
	Name() string
	Classify(ctx context.Context, text string) (map[moderation.TriggerKind]float64, error)
}

// GenerationRequest carries the strategy and supporting context handed to
// the generator as generation constraints
type GenerationRequest struct {
	Strategy  moderation.StrategyName
	Kinds     []moderation.TriggerKind
	Rationale string
	Author    string
	Lang      string
}

// Generator produces a candidate moderation message
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}
