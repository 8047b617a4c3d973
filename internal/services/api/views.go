package api

import (
	"time"

	"moderato/internal/core/moderation"
	"moderato/internal/platform/times"
)

// wire views keep the domain types off the HTTP surface

type triggerView struct {
	Kind  string  `json:"kind"`
	Score float64 `json:"score"`
}

type decisionView struct {
	Strategy  string `json:"strategy"`
	Rationale string `json:"rationale"`
	Escalated bool   `json:"escalated"`
}

type responseView struct {
	Text       string  `json:"text,omitempty"`
	NoResponse bool    `json:"no_response"`
	Lang       string  `json:"lang,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

type runView struct {
	RunID                 string            `json:"run_id"`
	UtteranceID           string            `json:"utterance_id"`
	State                 string            `json:"state"`
	Stages                map[string]string `json:"stages"`
	Triggers              []triggerView     `json:"triggers,omitempty"`
	Decision              *decisionView     `json:"decision,omitempty"`
	Response              *responseView     `json:"response,omitempty"`
	NormalizationDegraded bool              `json:"normalization_degraded,omitempty"`
	Note                  string            `json:"note,omitempty"`
	StartedAt             *time.Time        `json:"started_at,omitempty"`
	FinishedAt            *time.Time        `json:"finished_at,omitempty"`
}

func resultView(res moderation.PipelineResult) runView {
	v := runView{
		RunID:                 res.RunID,
		UtteranceID:           res.Utterance.ID,
		State:                 string(res.State),
		Stages:                map[string]string{},
		NormalizationDegraded: res.NormalizationDegraded,
		Note:                  res.Note,
		StartedAt:             times.Ptr(res.StartedAt),
		FinishedAt:            times.Ptr(res.FinishedAt),
	}
	for _, st := range []moderation.Stage{
		moderation.StageNormalize, moderation.StageDetect,
		moderation.StageSelect, moderation.StageCompose,
	} {
		v.Stages[string(st)] = string(res.StageStatusOf(st))
	}
	for _, tr := range res.Triggers.Triggers() {
		v.Triggers = append(v.Triggers, triggerView{Kind: string(tr.Kind), Score: tr.Score})
	}
	if res.Decision != nil {
		v.Decision = &decisionView{
			Strategy:  string(res.Decision.Strategy),
			Rationale: res.Decision.Rationale,
			Escalated: res.Decision.Escalated,
		}
	}
	if res.Response != nil {
		v.Response = &responseView{
			Text:       res.Response.Text,
			NoResponse: res.Response.NoResponse,
			Lang:       res.Response.Lang,
			Confidence: res.Response.Confidence,
		}
	}
	return v
}
