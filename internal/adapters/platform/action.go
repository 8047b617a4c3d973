package platform

import (
	"context"

	"moderato/internal/core/moderation"
	"moderato/internal/platform/logger"
	pstrings "moderato/internal/platform/strings"
)

// Action is the outbound collaborator: it delivers a finalized result to
// the platform (posting the message, flagging for a human, and so on)
type Action interface {
	Act(ctx context.Context, res moderation.PipelineResult) error
}

// LogAction is an Action that only logs what would happen. It is the
// default sink for dry runs and for deployments without posting rights
type LogAction struct {
	// DryRun marks entries so passive output is distinguishable in logs
	DryRun bool

	log logger.Logger
}

var _ Action = (*LogAction)(nil)

// NewLogAction constructs a logging action sink
func NewLogAction(dryRun bool) *LogAction {
	return &LogAction{DryRun: dryRun, log: *logger.Named("action")}
}

// Act logs the outcome of a finalized run
func (a *LogAction) Act(_ context.Context, res moderation.PipelineResult) error {
	ev := a.log.Info().
		Bool("dry_run", a.DryRun).
		Str("run_id", res.RunID).
		Str("utterance", res.Utterance.ID).
		Str("thread", res.Utterance.ThreadID).
		Str("state", string(res.State))

	if res.Decision != nil {
		ev = ev.Str("strategy", string(res.Decision.Strategy)).
			Str("rationale", res.Decision.Rationale)
	}

	if res.HasResponse() {
		ev.Str("lang", res.Response.Lang).
			Str("text", pstrings.Truncate(res.Response.Text, 256)).
			Msg("would post moderation message")
		return nil
	}
	ev.Msg("no action")
	return nil
}
