// Package service implements pipeline orchestration: the per-run state
// machine, per-stage budgets, degradation policy, and terminal bookkeeping
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"moderato/internal/core/catalog"
	"moderato/internal/core/moderation"
	"moderato/internal/platform/logger"
	composerdom "moderato/internal/services/composer/domain"
	detectordom "moderato/internal/services/detector/domain"
	historydom "moderato/internal/services/history/domain"
	normalizerdom "moderato/internal/services/normalizer/domain"
	resultsdom "moderato/internal/services/results/domain"
	selectordom "moderato/internal/services/selector/domain"
)

// Stages is the full set of stage ports the orchestrator drives
type Stages struct {
	Normalizer normalizerdom.NormalizerPort
	Detector   detectordom.DetectorPort
	Selector   selectordom.SelectorPort
	Composer   composerdom.ComposerPort
}

// Config holds the orchestrator knobs outside the catalog
type Config struct {
	// DryRun runs the full pipeline but records nothing to history; results
	// are still written so passive runs stay observable
	DryRun bool
}

// Orchestrator implements domain.RunnerPort. One call to Run owns one
// utterance from ingestion to a terminal state; it never returns early and
// never panics outward
type Orchestrator struct {
	stages  Stages
	history historydom.ReaderPort
	writer  historydom.WriterPort
	results resultsdom.WriterPort
	cat     catalog.Catalog
	cfg     Config
	log     logger.Logger
}

// New constructs an orchestrator; all ports are required except results,
// which may be nil when no sink is configured
func New(stages Stages, hr historydom.ReaderPort, hw historydom.WriterPort,
	rw resultsdom.WriterPort, cat catalog.Catalog, cfg Config,
) *Orchestrator {
	switch {
	case stages.Normalizer == nil:
		panic("pipeline: nil normalizer")
	case stages.Detector == nil:
		panic("pipeline: nil detector")
	case stages.Selector == nil:
		panic("pipeline: nil selector")
	case stages.Composer == nil:
		panic("pipeline: nil composer")
	case hr == nil || hw == nil:
		panic("pipeline: nil history")
	}
	return &Orchestrator{
		stages:  stages,
		history: hr,
		writer:  hw,
		results: rw,
		cat:     cat,
		cfg:     cfg,
		log:     *logger.Named("pipeline"),
	}
}

// Run drives u through ingest -> normalize -> detect -> select -> compose ->
// finalize. Any stage failure lands in a terminal state per policy; the
// returned result is always terminal
func (o *Orchestrator) Run(ctx context.Context, u moderation.Utterance) moderation.PipelineResult {
	res := moderation.PipelineResult{
		RunID:     uuid.NewString(),
		Utterance: u,
		State:     moderation.StateIngested,
		StartedAt: time.Now().UTC(),
	}
	ctx = logger.WithRun(ctx, res.RunID, u.ThreadID)
	log := logger.C(ctx)

	if skip, note := o.preflight(ctx, u); skip {
		res.Note = note
		log.Info().Str("utterance", u.ID).Str("note", note).Msg("run short-circuited")
		return o.finalize(ctx, res)
	}

	// cancellation is honored up to the decision; once decided the run is
	// carried to a terminal state regardless
	if ctx.Err() != nil {
		return o.abort(ctx, res, "run cancelled")
	}

	// normalize
	norm, err := o.normalize(ctx, u)
	switch {
	case err == nil:
		res.Normalized = &norm
		res.SetStage(moderation.StageNormalize, moderation.StatusOK)
	case o.cat.Degradation == catalog.FailClosed:
		res.SetStage(moderation.StageNormalize, moderation.StatusFailed)
		log.Warn().Err(err).Str("utterance", u.ID).Msg("normalization failed; policy is fail-closed")
		return o.abort(ctx, res, "normalization failed")
	default:
		// fail-open: continue on the original text, flagged degraded
		res.SetStage(moderation.StageNormalize, moderation.StatusDegraded)
		res.NormalizationDegraded = true
		norm = moderation.NormalizedUtterance{
			UtteranceID: u.ID,
			Text:        u.Text,
			SourceLang:  u.Lang,
		}
		res.Normalized = &norm
		log.Warn().Err(err).Str("utterance", u.ID).Msg("normalization failed; proceeding fail-open")
	}
	res.State = moderation.StateNormalized

	// detect; total classifier failure always aborts regardless of policy
	det, err := o.detect(ctx, norm)
	if err != nil {
		res.SetStage(moderation.StageDetect, moderation.StatusFailed)
		log.Warn().Err(err).Str("utterance", u.ID).Msg("all classifiers failed")
		return o.abort(ctx, res, "detection failed")
	}
	res.Triggers = det.Triggers
	res.SetStage(moderation.StageDetect, det.Status)
	res.State = moderation.StateDetected

	// decision context; a read failure degrades to empty history rather
	// than blocking the run
	dc, err := o.history.Context(ctx, u.Author, u.ThreadID)
	if err != nil {
		log.Warn().Err(err).Str("author", u.Author).Msg("history read failed; selecting without context")
		dc = moderation.DecisionContext{}
	}

	if ctx.Err() != nil {
		return o.abort(ctx, res, "run cancelled")
	}

	// select (pure, no budget)
	dec := o.stages.Selector.Select(det.Triggers, dc)
	res.Decision = &dec
	res.SetStage(moderation.StageSelect, moderation.StatusOK)
	res.State = moderation.StateDecided

	// compose; the composer degrades to silence internally, so a bad
	// generation still finalizes
	comp := o.compose(ctx, dec, u)
	res.Response = &comp.Response
	res.SetStage(moderation.StageCompose, comp.Status)
	res.State = moderation.StateComposed

	log.Info().
		Str("utterance", u.ID).
		Str("strategy", string(dec.Strategy)).
		Bool("responded", res.HasResponse()).
		Msg("run decided")
	return o.finalize(ctx, res)
}

// preflight applies the opt-out registry and the already-moderated dedup;
// read failures fail open so a flaky store cannot silence the pipeline
func (o *Orchestrator) preflight(ctx context.Context, u moderation.Utterance) (bool, string) {
	if out, err := o.history.OptedOut(ctx, u.Author); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("optout lookup failed; proceeding")
	} else if out {
		return true, "author opted out"
	}
	if done, err := o.history.AlreadyModerated(ctx, u.ID); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("dedup lookup failed; proceeding")
	} else if done {
		return true, "utterance already moderated"
	}
	return false, ""
}

func (o *Orchestrator) normalize(ctx context.Context, u moderation.Utterance) (moderation.NormalizedUtterance, error) {
	ctx, cancel := o.stageCtx(ctx, moderation.StageNormalize)
	defer cancel()
	return o.stages.Normalizer.Normalize(ctx, u)
}

func (o *Orchestrator) detect(ctx context.Context, n moderation.NormalizedUtterance) (detectordom.Detection, error) {
	ctx, cancel := o.stageCtx(ctx, moderation.StageDetect)
	defer cancel()
	return o.stages.Detector.Detect(ctx, n)
}

func (o *Orchestrator) compose(ctx context.Context, d moderation.StrategyDecision, u moderation.Utterance) composerdom.Composition {
	ctx, cancel := o.stageCtx(ctx, moderation.StageCompose)
	defer cancel()
	return o.stages.Composer.Compose(ctx, d, u)
}

func (o *Orchestrator) stageCtx(ctx context.Context, stage moderation.Stage) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.cat.BudgetFor(stage).Timeout)
}

// finalize stamps the terminal state, records the intervention when one was
// decided, and writes the result sink. Sink and history write failures are
// logged, never propagated
func (o *Orchestrator) finalize(ctx context.Context, res moderation.PipelineResult) moderation.PipelineResult {
	res.State = moderation.StateFinalized
	res.FinishedAt = time.Now().UTC()

	if res.Decision != nil && !res.Decision.None() {
		if o.cfg.DryRun {
			logger.C(ctx).Info().Str("strategy", string(res.Decision.Strategy)).
				Msg("dry-run: intervention not recorded")
		} else if err := o.writer.RecordIntervention(ctx, historydom.InterventionRecord{
			RunID:       res.RunID,
			UtteranceID: res.Utterance.ID,
			Author:      res.Utterance.Author,
			ThreadID:    res.Utterance.ThreadID,
			Strategy:    res.Decision.Strategy,
			Escalated:   res.Decision.Escalated,
			Responded:   res.HasResponse(),
			CreatedAt:   res.FinishedAt,
		}); err != nil {
			logger.C(ctx).Error().Err(err).Msg("intervention record failed")
		}
	}

	o.sink(ctx, res)
	return res
}

// abort stamps the terminal aborted state and writes the result sink
func (o *Orchestrator) abort(ctx context.Context, res moderation.PipelineResult, note string) moderation.PipelineResult {
	res.State = moderation.StateAborted
	res.Note = note
	res.FinishedAt = time.Now().UTC()
	o.sink(ctx, res)
	return res
}

func (o *Orchestrator) sink(ctx context.Context, res moderation.PipelineResult) {
	if o.results == nil {
		return
	}
	// terminal bookkeeping outlives run cancellation
	ctx = context.WithoutCancel(ctx)
	if err := o.results.Write(ctx, res); err != nil {
		logger.C(ctx).Error().Err(err).Str("run", res.RunID).Msg("result sink write failed")
	}
}
