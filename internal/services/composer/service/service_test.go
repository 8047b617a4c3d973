package service

import (
	"context"
	"strings"
	"testing"

	"moderato/internal/capability"
	"moderato/internal/core/moderation"
	perr "moderato/internal/platform/errors"
)

type stubGenerator struct {
	calls int
	text  string
	err   error
	last  capability.GenerationRequest
}

func (s *stubGenerator) Generate(_ context.Context, req capability.GenerationRequest) (string, error) {
	s.calls++
	s.last = req
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

type stubTranslator struct {
	calls int
	text  string
	conf  float64
	err   error
}

func (s *stubTranslator) Translate(_ context.Context, _, _ string) (capability.Translation, error) {
	s.calls++
	if s.err != nil {
		return capability.Translation{}, s.err
	}
	return capability.Translation{Text: s.text, Confidence: s.conf}, nil
}

func warnDecision() moderation.StrategyDecision {
	return moderation.StrategyDecision{
		Strategy: moderation.StrategyWarnUser,
		Triggers: moderation.NewTriggerSet(
			moderation.Trigger{Kind: moderation.KindProfanity, Score: 0.9},
		),
		Rationale: "matched kinds [profanity]",
	}
}

func TestComposeNoneNeverCallsGenerator(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{text: "should not appear"}
	s := New(gen, nil, Config{CanonicalLang: "en"})

	got := s.Compose(context.Background(), moderation.StrategyDecision{
		Strategy: moderation.StrategyNone,
	}, moderation.Utterance{ID: "u1"})

	if gen.calls != 0 {
		t.Fatalf("generator called %d times for none decision, want 0", gen.calls)
	}
	if !got.Response.NoResponse || got.Status != moderation.StatusOK {
		t.Fatalf("got %+v", got)
	}
}

func TestComposeProducesResponse(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{text: "Please keep things civil."}
	s := New(gen, nil, Config{CanonicalLang: "en", MaxResponseLen: 200})

	got := s.Compose(context.Background(), warnDecision(), moderation.Utterance{
		ID: "u2", Author: "alice", Lang: "en",
	})
	if got.Response.NoResponse || got.Status != moderation.StatusOK {
		t.Fatalf("got %+v", got)
	}
	if got.Response.Text != "Please keep things civil." || got.Response.Lang != "en" {
		t.Fatalf("response = %+v", got.Response)
	}
	if gen.last.Strategy != moderation.StrategyWarnUser || gen.last.Author != "alice" {
		t.Fatalf("request = %+v", gen.last)
	}
}

func TestComposeGenerationFailureSuppressesResponse(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{err: perr.New(perr.ErrorCodeUnavailable, "llm down")}
	s := New(gen, nil, Config{CanonicalLang: "en", Retries: 1})

	got := s.Compose(context.Background(), warnDecision(), moderation.Utterance{ID: "u3"})
	if !got.Response.NoResponse {
		t.Fatalf("failed generation must stay silent, got %+v", got.Response)
	}
	if got.Status != moderation.StatusDegraded {
		t.Fatalf("status = %s, want degraded", got.Status)
	}
	if gen.calls != 2 {
		t.Fatalf("calls = %d, want 2 (1 + 1 retry)", gen.calls)
	}
}

func TestComposeSafetyCheckRejectsBadOutput(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"empty":      "",
		"whitespace": "   \n\t ",
		"too long":   strings.Repeat("x", 51),
	}
	for name, text := range cases {
		text := text
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			gen := &stubGenerator{text: text}
			s := New(gen, nil, Config{CanonicalLang: "en", MaxResponseLen: 50})

			got := s.Compose(context.Background(), warnDecision(), moderation.Utterance{ID: "u4"})
			if !got.Response.NoResponse || got.Status != moderation.StatusDegraded {
				t.Fatalf("got %+v", got)
			}
		})
	}
}

func TestComposeBackTranslatesToSourceLanguage(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{text: "Please keep things civil."}
	tr := &stubTranslator{text: "Merci de rester courtois.", conf: 0.85}
	s := New(gen, tr, Config{CanonicalLang: "en", ReplyInSourceLang: true})

	got := s.Compose(context.Background(), warnDecision(), moderation.Utterance{ID: "u5", Lang: "fr"})
	if tr.calls != 1 {
		t.Fatalf("translator called %d times, want 1", tr.calls)
	}
	if got.Response.Text != "Merci de rester courtois." || got.Response.Lang != "fr" {
		t.Fatalf("response = %+v", got.Response)
	}
	if got.Status != moderation.StatusOK {
		t.Fatalf("status = %s", got.Status)
	}
}

func TestComposeBackTranslationFailureKeepsCanonicalText(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{text: "Please keep things civil."}
	tr := &stubTranslator{err: perr.New(perr.ErrorCodeUnavailable, "rtg down")}
	s := New(gen, tr, Config{CanonicalLang: "en", ReplyInSourceLang: true})

	got := s.Compose(context.Background(), warnDecision(), moderation.Utterance{ID: "u6", Lang: "it"})
	if got.Response.NoResponse {
		t.Fatal("canonical text must survive a failed back-translation")
	}
	if got.Response.Text != "Please keep things civil." || got.Response.Lang != "en" {
		t.Fatalf("response = %+v", got.Response)
	}
	if got.Status != moderation.StatusDegraded {
		t.Fatalf("status = %s, want degraded", got.Status)
	}
}

func TestComposeSkipsBackTranslationForCanonicalSource(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{text: "Please keep things civil."}
	tr := &stubTranslator{text: "unused"}
	s := New(gen, tr, Config{CanonicalLang: "en", ReplyInSourceLang: true})

	s.Compose(context.Background(), warnDecision(), moderation.Utterance{ID: "u7", Lang: "en-GB"})
	if tr.calls != 0 {
		t.Fatalf("translator called %d times for canonical source, want 0", tr.calls)
	}
}
