package catalog

import (
	"time"

	"moderato/internal/core/moderation"
)

// Default returns an illustrative deployment configuration. Every value here
// is an operator decision, not a rule of the pipeline; deployments override
// via FromConfig or by constructing their own Catalog
func Default() Catalog {
	return Catalog{
		CanonicalLang: "en",

		Kinds: []moderation.TriggerKind{
			moderation.KindHarassment,
			moderation.KindHateSpeech,
			moderation.KindThreat,
			moderation.KindInsult,
			moderation.KindProfanity,
			moderation.KindSpam,
			moderation.KindOffTopic,
		},

		Thresholds: map[moderation.TriggerKind]float64{
			moderation.KindHarassment: 0.5,
			moderation.KindHateSpeech: 0.5,
			moderation.KindThreat:     0.5,
			moderation.KindInsult:     0.6,
			moderation.KindProfanity:  0.7,
			moderation.KindSpam:       0.8,
			moderation.KindOffTopic:   0.8,
		},
		DefaultThreshold: 0.5,

		// Slice order is the canonical catalog order used as the final
		// tie-break, so keep it stable across releases
		Strategies: []moderation.Strategy{
			{
				Name:     moderation.StrategyWarnUser,
				Priority: 10,
				Requires: []moderation.TriggerKind{moderation.KindProfanity},
			},
			{
				Name:     moderation.StrategySoftIntervention,
				Priority: 20,
				Requires: []moderation.TriggerKind{moderation.KindHarassment},
			},
			{
				Name:     moderation.StrategyEscalate,
				Priority: 40,
				Requires: []moderation.TriggerKind{moderation.KindThreat},
			},
			{
				Name:     moderation.StrategyRemoveNotify,
				Priority: 50,
				Requires: []moderation.TriggerKind{moderation.KindThreat, moderation.KindHateSpeech},
			},
		},

		Escalation:  EscalationRule{AfterWarnings: 2},
		Degradation: FailOpen,

		Budgets: map[moderation.Stage]StageBudget{
			moderation.StageNormalize: {Timeout: 5 * time.Second, Retries: 2, Backoff: 200 * time.Millisecond},
			moderation.StageDetect:    {Timeout: 5 * time.Second, Retries: 2, Backoff: 200 * time.Millisecond},
			moderation.StageSelect:    {Timeout: time.Second, Retries: 0, Backoff: 0},
			moderation.StageCompose:   {Timeout: 15 * time.Second, Retries: 1, Backoff: 500 * time.Millisecond},
		},

		MaxResponseLen:    2000,
		ReplyInSourceLang: true,
	}
}
