// Package service implements the normalizer stage
package service

import (
	"context"
	"time"

	"moderato/internal/capability"
	"moderato/internal/core/moderation"
	perr "moderato/internal/platform/errors"
	"moderato/internal/platform/logger"

	"golang.org/x/text/language"
)

// Config for the normalizer service
type Config struct {
	CanonicalLang string
	Retries       int
	Backoff       time.Duration
}

// Service implements domain.NormalizerPort
type Service struct {
	translator capability.Translator
	canonical  language.Tag
	cfg        Config
	log        logger.Logger
}

// New constructs a normalizer over the given translation capability.
// Panics on an unparseable canonical language tag; that is configuration,
// not runtime input
func New(tr capability.Translator, cfg Config) *Service {
	tag, err := language.Parse(cfg.CanonicalLang)
	if err != nil {
		panic("normalizer: bad canonical language tag " + cfg.CanonicalLang)
	}
	return &Service{
		translator: tr,
		canonical:  tag,
		cfg:        cfg,
		log:        *logger.Named("normalizer"),
	}
}

// Normalize returns the canonical-language form of u.
// Same-language input short-circuits with confidence 1.0 and no capability
// call. A failed or timed-out translation surfaces as a capability error for
// the orchestrator's degradation policy to resolve
func (s *Service) Normalize(ctx context.Context, u moderation.Utterance) (moderation.NormalizedUtterance, error) {
	if s.sameAsCanonical(u.Lang) {
		return moderation.NormalizedUtterance{
			UtteranceID: u.ID,
			Text:        u.Text,
			SourceLang:  u.Lang,
			Confidence:  1.0,
			Translated:  false,
		}, nil
	}

	var tr capability.Translation
	err := capability.Retry(ctx, s.cfg.Retries, s.cfg.Backoff, func(ctx context.Context) error {
		var callErr error
		tr, callErr = s.translator.Translate(ctx, u.Text, s.canonical.String())
		return callErr
	})
	if err != nil {
		return moderation.NormalizedUtterance{}, perr.WithOp(err, "normalizer.normalize")
	}

	s.log.Debug().Str("utterance", u.ID).Str("from", u.Lang).Float64("confidence", tr.Confidence).
		Msg("translated to canonical language")

	return moderation.NormalizedUtterance{
		UtteranceID: u.ID,
		Text:        tr.Text,
		SourceLang:  u.Lang,
		Confidence:  tr.Confidence,
		Translated:  true,
	}, nil
}

// sameAsCanonical compares declared base languages; an empty or garbled tag
// means unknown, which always goes through translation
func (s *Service) sameAsCanonical(lang string) bool {
	if lang == "" {
		return false
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return false
	}
	want, _ := s.canonical.Base()
	got, _ := tag.Base()
	return want == got
}
