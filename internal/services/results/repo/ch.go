// Package repo provides run-result sinks
package repo

import (
	"context"

	"moderato/internal/core/moderation"
	perr "moderato/internal/platform/errors"
	"moderato/internal/platform/store"
)

// resultCols is the moderation_runs column order used for inserts
var resultCols = []string{
	"run_id",
	"utterance_id",
	"author",
	"thread_id",
	"lang",
	"state",
	"strategy",
	"escalated",
	"responded",
	"trigger_kinds",
	"max_score",
	"normalize_status",
	"detect_status",
	"select_status",
	"compose_status",
	"normalization_degraded",
	"note",
	"started_at",
	"finished_at",
}

// CH writes terminal results to clickhouse
type CH struct {
	ch    store.Clickhouse
	table string
}

// NewCH constructs a clickhouse result sink
func NewCH(ch store.Clickhouse) *CH {
	if ch == nil {
		panic("results: nil clickhouse")
	}
	return &CH{ch: ch, table: "moderation_runs"}
}

// Write inserts one terminal result row
func (r *CH) Write(ctx context.Context, res moderation.PipelineResult) error {
	strategy := ""
	escalated := false
	if res.Decision != nil {
		strategy = string(res.Decision.Strategy)
		escalated = res.Decision.Escalated
	}

	var maxScore float64
	if dom, ok := res.Triggers.Max(); ok {
		maxScore = dom.Score
	}
	kinds := res.Triggers.Kinds()
	kindStrs := make([]string, len(kinds))
	for i, k := range kinds {
		kindStrs[i] = string(k)
	}

	row := []any{
		res.RunID,
		res.Utterance.ID,
		res.Utterance.Author,
		res.Utterance.ThreadID,
		res.Utterance.Lang,
		string(res.State),
		strategy,
		escalated,
		res.HasResponse(),
		kindStrs,
		maxScore,
		string(res.StageStatusOf(moderation.StageNormalize)),
		string(res.StageStatusOf(moderation.StageDetect)),
		string(res.StageStatusOf(moderation.StageSelect)),
		string(res.StageStatusOf(moderation.StageCompose)),
		res.NormalizationDegraded,
		res.Note,
		res.StartedAt,
		res.FinishedAt,
	}

	if err := r.ch.Insert(ctx, r.table, resultCols, [][]any{row}); err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "results write")
	}
	return nil
}
