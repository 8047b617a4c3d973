// Package api mounts the HTTP surface: submit an utterance for moderation,
// manage opt-outs, and report liveness
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"moderato/internal/core/moderation"
	perr "moderato/internal/platform/errors"
	"moderato/internal/platform/httpx"
	historydom "moderato/internal/services/history/domain"
	pipelinedom "moderato/internal/services/pipeline/domain"
)

// Options carries everything Mount needs
type Options struct {
	Runner  pipelinedom.RunnerPort
	History historydom.WriterPort
}

// Mount attaches the moderation routes to r
func Mount(r *chi.Mux, opts Options) {
	if opts.Runner == nil {
		panic("api: nil runner")
	}
	h := &handlers{runner: opts.Runner, history: opts.History}

	r.Get("/healthz", h.healthz)
	r.Post("/moderations", h.moderate)
	r.Post("/optouts", h.optOut)
}

type handlers struct {
	runner  pipelinedom.RunnerPort
	history historydom.WriterPort
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	httpx.RespondOK(w, r, map[string]string{"status": "ok"})
}

type moderateRequest struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Lang      string    `json:"lang"`
	Author    string    `json:"author"`
	ThreadID  string    `json:"thread_id"`
	CreatedAt time.Time `json:"created_at"`
	Ordinal   int       `json:"ordinal"`
}

func (h *handlers) moderate(w http.ResponseWriter, r *http.Request) {
	var req moderateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, r, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "decode request"))
		return
	}
	if req.ID == "" || req.Text == "" {
		httpx.RespondError(w, r, perr.New(perr.ErrorCodeValidation, "id and text are required"))
		return
	}

	res := h.runner.Run(r.Context(), moderation.Utterance{
		ID:        req.ID,
		Text:      req.Text,
		Lang:      req.Lang,
		Author:    req.Author,
		ThreadID:  req.ThreadID,
		CreatedAt: req.CreatedAt,
		Ordinal:   req.Ordinal,
	})
	httpx.RespondOK(w, r, resultView(res))
}

type optOutRequest struct {
	Author string `json:"author"`
}

func (h *handlers) optOut(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		httpx.RespondError(w, r, perr.New(perr.ErrorCodeUnavailable, "opt-out registry not configured"))
		return
	}
	var req optOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, r, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "decode request"))
		return
	}
	if req.Author == "" {
		httpx.RespondError(w, r, perr.New(perr.ErrorCodeValidation, "author is required"))
		return
	}
	if err := h.history.OptOut(r.Context(), req.Author); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.RespondAccepted(w, r, map[string]string{"author": req.Author})
}
