// Package service implements the trigger detection stage
package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"moderato/internal/capability"
	"moderato/internal/core/moderation"
	perr "moderato/internal/platform/errors"
	"moderato/internal/platform/logger"
	"moderato/internal/services/detector/domain"
)

// Config for the detector service
type Config struct {
	Retries int
	Backoff time.Duration
}

// Service implements domain.DetectorPort over a set of classifier
// capabilities. Classifiers run concurrently; one classifier failing must
// not abort detection for the others
type Service struct {
	classifiers []capability.Classifier
	cfg         Config
	log         logger.Logger
}

// New constructs a detector; at least one classifier is required
func New(classifiers []capability.Classifier, cfg Config) *Service {
	if len(classifiers) == 0 {
		panic("detector: no classifiers configured")
	}
	return &Service{
		classifiers: classifiers,
		cfg:         cfg,
		log:         *logger.Named("detector"),
	}
}

// Detect fans out to every classifier and merges partial results.
// Status is ok when all succeed, degraded when some fail, failed when all
// fail; only the all-fail case carries an error
func (s *Service) Detect(ctx context.Context, n moderation.NormalizedUtterance) (domain.Detection, error) {
	type outcome struct {
		scores map[moderation.TriggerKind]float64
		err    error
	}
	outs := make([]outcome, len(s.classifiers))

	var wg sync.WaitGroup
	for i, cl := range s.classifiers {
		wg.Add(1)
		go func(i int, cl capability.Classifier) {
			defer wg.Done()
			var scores map[moderation.TriggerKind]float64
			err := capability.Retry(ctx, s.cfg.Retries, s.cfg.Backoff, func(ctx context.Context) error {
				var callErr error
				scores, callErr = cl.Classify(ctx, n.Text)
				return callErr
			})
			outs[i] = outcome{scores: scores, err: err}
		}(i, cl)
	}
	wg.Wait()

	set := moderation.NewTriggerSet()
	failures := 0
	var lastErr error
	for i, out := range outs {
		if out.err != nil {
			failures++
			lastErr = out.err
			s.log.Warn().Err(out.err).Str("classifier", s.classifiers[i].Name()).
				Str("utterance", n.UtteranceID).Msg("classifier failed")
			continue
		}
		// sort kinds so merge order (and thus set order) is reproducible
		kinds := make([]string, 0, len(out.scores))
		for kind := range out.scores {
			kinds = append(kinds, string(kind))
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			k := moderation.TriggerKind(kind)
			set.Add(moderation.Trigger{Kind: k, Score: out.scores[k]})
		}
	}

	switch {
	case failures == 0:
		return domain.Detection{Triggers: set, Status: moderation.StatusOK}, nil
	case failures < len(s.classifiers):
		return domain.Detection{Triggers: set, Status: moderation.StatusDegraded}, nil
	default:
		return domain.Detection{Status: moderation.StatusFailed},
			perr.Wrap(lastErr, perr.ErrorCodeUnavailable, "all classifiers failed")
	}
}
