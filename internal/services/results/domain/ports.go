// Package domain defines the run-result sink contract
package domain

import (
	"context"

	"moderato/internal/core/moderation"
)

// WriterPort records terminal pipeline results for analytics. Writes are
// best-effort from the pipeline's point of view: a failed write is logged,
// never propagated into the run outcome
type WriterPort interface {
	Write(ctx context.Context, res moderation.PipelineResult) error
}
