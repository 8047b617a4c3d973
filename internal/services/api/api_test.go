package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"moderato/internal/core/moderation"
)

type stubRunner struct {
	last moderation.Utterance
}

func (s *stubRunner) Run(_ context.Context, u moderation.Utterance) moderation.PipelineResult {
	s.last = u
	res := moderation.PipelineResult{
		RunID:     "r1",
		Utterance: u,
		State:     moderation.StateFinalized,
		Decision: &moderation.StrategyDecision{
			Strategy:  moderation.StrategyWarnUser,
			Rationale: "matched kinds [profanity]",
		},
		Response: &moderation.ModerationResponse{Text: "please be civil", Lang: "en", Confidence: 1.0},
	}
	res.SetStage(moderation.StageNormalize, moderation.StatusOK)
	res.SetStage(moderation.StageDetect, moderation.StatusOK)
	res.SetStage(moderation.StageSelect, moderation.StatusOK)
	res.SetStage(moderation.StageCompose, moderation.StatusOK)
	return res
}

func newRouter(runner *stubRunner) *chi.Mux {
	r := chi.NewRouter()
	Mount(r, Options{Runner: runner})
	return r
}

func TestModerateEndpoint(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{}
	r := newRouter(runner)

	body := `{"id": "u1", "text": "some text", "lang": "en", "author": "bob", "thread_id": "t1"}`
	req := httptest.NewRequest(http.MethodPost, "/moderations", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if runner.last.ID != "u1" || runner.last.ThreadID != "t1" {
		t.Fatalf("runner got %+v", runner.last)
	}

	var env struct {
		Data struct {
			RunID    string            `json:"run_id"`
			State    string            `json:"state"`
			Stages   map[string]string `json:"stages"`
			Decision struct {
				Strategy string `json:"strategy"`
			} `json:"decision"`
			Response struct {
				Text string `json:"text"`
			} `json:"response"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.RunID != "r1" || env.Data.State != "finalized" {
		t.Fatalf("data = %+v", env.Data)
	}
	if env.Data.Decision.Strategy != "warn-user" || env.Data.Response.Text != "please be civil" {
		t.Fatalf("data = %+v", env.Data)
	}
	if env.Data.Stages["detect"] != "ok" {
		t.Fatalf("stages = %+v", env.Data.Stages)
	}
}

func TestModerateRejectsMissingFields(t *testing.T) {
	t.Parallel()

	r := newRouter(&stubRunner{})
	req := httptest.NewRequest(http.MethodPost, "/moderations", strings.NewReader(`{"id": "u1"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity && rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 4xx validation failure", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	r := newRouter(&stubRunner{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
