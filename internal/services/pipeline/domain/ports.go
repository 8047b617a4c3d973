// Package domain defines the pipeline orchestration contract
package domain

import (
	"context"

	"moderato/internal/core/moderation"
)

// RunnerPort drives one utterance through the full pipeline and always
// returns a terminal result. Failures surface as Aborted results with a
// note, never as an error: every ingested utterance gets a record
type RunnerPort interface {
	Run(ctx context.Context, u moderation.Utterance) moderation.PipelineResult
}
