// Package service implements the response composition stage
package service

import (
	"context"
	"strings"
	"time"

	"moderato/internal/capability"
	"moderato/internal/core/moderation"
	"moderato/internal/platform/logger"
	"moderato/internal/services/composer/domain"

	"golang.org/x/text/language"
)

// Config for the composer service
type Config struct {
	CanonicalLang     string
	MaxResponseLen    int
	ReplyInSourceLang bool
	Retries           int
	Backoff           time.Duration
}

// Service implements domain.ComposerPort over the generation capability.
// The translator is optional and only used for back-translation of the
// composed message into the author's language
type Service struct {
	generator  capability.Generator
	translator capability.Translator
	cfg        Config
	log        logger.Logger
}

// New constructs a composer
func New(gen capability.Generator, tr capability.Translator, cfg Config) *Service {
	if cfg.MaxResponseLen <= 0 {
		cfg.MaxResponseLen = 2000
	}
	return &Service{
		generator:  gen,
		translator: tr,
		cfg:        cfg,
		log:        *logger.Named("composer"),
	}
}

// Compose produces the moderation message for d. A "none" decision returns
// no-response immediately without touching the generation capability; a
// failed generation or one that fails the safety check degrades to silence
func (s *Service) Compose(ctx context.Context, d moderation.StrategyDecision, u moderation.Utterance) domain.Composition {
	if d.None() {
		return domain.Composition{
			Response: moderation.ModerationResponse{NoResponse: true},
			Status:   moderation.StatusOK,
		}
	}

	// the generator always writes in the canonical language; that is what
	// the prompt and the model are tuned for. Source-language replies are
	// produced by back-translating afterwards
	replyLang := s.cfg.CanonicalLang

	var text string
	err := capability.Retry(ctx, s.cfg.Retries, s.cfg.Backoff, func(ctx context.Context) error {
		var callErr error
		text, callErr = s.generator.Generate(ctx, capability.GenerationRequest{
			Strategy:  d.Strategy,
			Kinds:     d.Triggers.Kinds(),
			Rationale: d.Rationale,
			Author:    u.Author,
			Lang:      replyLang,
		})
		return callErr
	})
	if err != nil {
		s.log.Warn().Err(err).Str("utterance", u.ID).Str("strategy", string(d.Strategy)).
			Msg("generation failed; suppressing response")
		return domain.Composition{
			Response: moderation.ModerationResponse{NoResponse: true},
			Status:   moderation.StatusDegraded,
		}
	}

	if !s.safe(text) {
		s.log.Warn().Str("utterance", u.ID).Int("len", len(text)).
			Msg("generated text failed safety check; suppressing response")
		return domain.Composition{
			Response: moderation.ModerationResponse{NoResponse: true},
			Status:   moderation.StatusDegraded,
		}
	}

	out := moderation.ModerationResponse{Text: text, Lang: replyLang, Confidence: 1.0}

	// back-translate when the generator was asked for the canonical language
	// but the author speaks another; a failed back-translation keeps the
	// canonical text rather than losing the message
	if s.cfg.ReplyInSourceLang && s.translator != nil && s.foreign(u.Lang) {
		if tr, terr := s.translator.Translate(ctx, text, u.Lang); terr == nil && tr.Text != "" {
			out.Text = tr.Text
			out.Lang = u.Lang
			out.Confidence = tr.Confidence
		} else {
			s.log.Warn().Err(terr).Str("utterance", u.ID).Msg("back-translation failed; keeping canonical text")
			return domain.Composition{Response: out, Status: moderation.StatusDegraded}
		}
	}

	return domain.Composition{Response: out, Status: moderation.StatusOK}
}

// foreign reports whether sourceLang is a usable tag with a different base
// language than the canonical one
func (s *Service) foreign(sourceLang string) bool {
	if sourceLang == "" {
		return false
	}
	src, err := language.Parse(sourceLang)
	if err != nil {
		return false
	}
	canon, err := language.Parse(s.cfg.CanonicalLang)
	if err != nil {
		return false
	}
	sb, _ := src.Base()
	cb, _ := canon.Base()
	return sb != cb
}

// safe is the minimal safety/format gate: non-empty after trimming and
// within the configured length bound
func (s *Service) safe(text string) bool {
	t := strings.TrimSpace(text)
	return t != "" && len(t) <= s.cfg.MaxResponseLen
}
