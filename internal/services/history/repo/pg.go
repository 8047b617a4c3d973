// Package repo provides history storage implementations
package repo

import (
	"context"
	"time"

	"moderato/internal/core/moderation"
	"moderato/internal/modkit/repokit"
	perr "moderato/internal/platform/errors"
	"moderato/internal/services/history/domain"
)

// PG implements domain.Repo over postgres
type PG struct {
	q repokit.Queryer
}

// NewPG binds a postgres-backed history repo
func NewPG() repokit.Binder[domain.Repo] {
	return repokit.BindFunc[domain.Repo](func(q repokit.Queryer) domain.Repo {
		return &PG{q: q}
	})
}

// Context counts the author's prior warnings and interventions in a thread
func (r *PG) Context(ctx context.Context, author, threadID string) (moderation.DecisionContext, error) {
	const q = `
		SELECT
			COUNT(*) FILTER (WHERE strategy = $3),
			COUNT(*)
		FROM moderation_interventions
		WHERE author = $1 AND thread_id = $2`

	var dc moderation.DecisionContext
	row := r.q.QueryRow(ctx, q, author, threadID, string(moderation.StrategyWarnUser))
	if err := row.Scan(&dc.PriorWarnings, &dc.PriorInterventions); err != nil {
		return moderation.DecisionContext{}, perr.Wrap(err, perr.ErrorCodeDB, "history context")
	}
	return dc, nil
}

// OptedOut checks the opt-out registry
func (r *PG) OptedOut(ctx context.Context, author string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM moderation_optouts WHERE author = $1)`

	var out bool
	if err := r.q.QueryRow(ctx, q, author).Scan(&out); err != nil {
		return false, perr.Wrap(err, perr.ErrorCodeDB, "history optout lookup")
	}
	return out, nil
}

// AlreadyModerated checks whether the utterance was handled before
func (r *PG) AlreadyModerated(ctx context.Context, utteranceID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM moderation_interventions WHERE utterance_id = $1)`

	var out bool
	if err := r.q.QueryRow(ctx, q, utteranceID).Scan(&out); err != nil {
		return false, perr.Wrap(err, perr.ErrorCodeDB, "history dedup lookup")
	}
	return out, nil
}

// RecordIntervention appends one finalized intervention
func (r *PG) RecordIntervention(ctx context.Context, rec domain.InterventionRecord) error {
	const q = `
		INSERT INTO moderation_interventions
			(run_id, utterance_id, author, thread_id, strategy, escalated, responded, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (utterance_id) DO NOTHING`

	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.q.Exec(ctx, q,
		rec.RunID, rec.UtteranceID, rec.Author, rec.ThreadID,
		string(rec.Strategy), rec.Escalated, rec.Responded, created,
	)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "history record intervention")
	}
	return nil
}

// OptOut registers the author in the opt-out registry
func (r *PG) OptOut(ctx context.Context, author string) error {
	const q = `
		INSERT INTO moderation_optouts (author, created_at)
		VALUES ($1, $2)
		ON CONFLICT (author) DO NOTHING`

	if _, err := r.q.Exec(ctx, q, author, time.Now().UTC()); err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "history optout")
	}
	return nil
}
