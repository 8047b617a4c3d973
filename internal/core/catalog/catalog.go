// Package catalog holds the deployment configuration the decision core runs
// against: trigger kinds, thresholds, the strategy catalog, escalation and
// degradation policy, and per-stage budgets. Loaded once at startup into an
// immutable value and passed explicitly into the orchestrator
package catalog

import (
	"sort"
	"time"

	"moderato/internal/core/moderation"
	"moderato/internal/platform/config"
)

// DegradationPolicy selects the normalizer failure behavior
type DegradationPolicy string

// Fail-open proceeds with original-language text and a degraded flag;
// fail-closed aborts the run
const (
	FailOpen   DegradationPolicy = "fail-open"
	FailClosed DegradationPolicy = "fail-closed"
)

// EscalationRule upgrades the chosen strategy by one priority tier once an
// author has been warned enough times in the same thread. Zero disables it
type EscalationRule struct {
	AfterWarnings int `validate:"gte=0"`
}

// StageBudget bounds one external-capability stage
type StageBudget struct {
	Timeout time.Duration `validate:"gt=0"`
	Retries int           `validate:"gte=0,lte=10"`
	Backoff time.Duration `validate:"gte=0"`
}

// Catalog is the full immutable configuration surface of the pipeline core
type Catalog struct {
	CanonicalLang string `validate:"required,bcp47_language_tag"`

	Kinds            []moderation.TriggerKind             `validate:"min=1,dive,required"`
	Thresholds       map[moderation.TriggerKind]float64   `validate:"dive,gte=0,lte=1"`
	DefaultThreshold float64                              `validate:"gte=0,lte=1"`
	Strategies       []moderation.Strategy                `validate:"min=1"`
	Escalation       EscalationRule                       `validate:"required"`
	Degradation      DegradationPolicy                    `validate:"oneof=fail-open fail-closed"`
	Budgets          map[moderation.Stage]StageBudget     `validate:"min=1"`

	// MaxResponseLen bounds composed text; longer output fails the safety check
	MaxResponseLen int `validate:"gt=0"`

	// ReplyInSourceLang back-translates the composed message into the
	// utterance's source language when it differs from the canonical one
	ReplyInSourceLang bool
}

// KnownKind reports whether k is in the configured kind enumeration
func (c Catalog) KnownKind(k moderation.TriggerKind) bool {
	for _, kk := range c.Kinds {
		if kk == k {
			return true
		}
	}
	return false
}

// ThresholdFor returns the per-kind threshold or the default
func (c Catalog) ThresholdFor(k moderation.TriggerKind) float64 {
	if v, ok := c.Thresholds[k]; ok {
		return v
	}
	return c.DefaultThreshold
}

// BudgetFor returns the stage budget, falling back to a safe bound
func (c Catalog) BudgetFor(stage moderation.Stage) StageBudget {
	if b, ok := c.Budgets[stage]; ok {
		return b
	}
	return StageBudget{Timeout: 5 * time.Second, Retries: 0, Backoff: 0}
}

// NextTier returns the strategy one priority rank above name, if any.
// Used by the escalation rule; ties in priority resolve to catalog order
func (c Catalog) NextTier(name moderation.StrategyName) (moderation.Strategy, bool) {
	cur, ok := c.strategyByName(name)
	if !ok {
		return moderation.Strategy{}, false
	}
	ordered := make([]moderation.Strategy, len(c.Strategies))
	copy(ordered, c.Strategies)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority < ordered[j].Priority })
	for _, s := range ordered {
		if s.Priority > cur.Priority {
			return s, true
		}
	}
	return moderation.Strategy{}, false
}

func (c Catalog) strategyByName(name moderation.StrategyName) (moderation.Strategy, bool) {
	for _, s := range c.Strategies {
		if s.Name == name {
			return s, true
		}
	}
	return moderation.Strategy{}, false
}

// FromConfig applies env overrides on top of the defaults.
// Structured parts (strategy catalog, per-kind thresholds) stay code-defined
// defaults for now; scalar knobs come from the PIPELINE_ scope
func FromConfig(cfg config.Conf) Catalog {
	pc := cfg.Prefix("PIPELINE_")
	cat := Default()
	cat.CanonicalLang = pc.MayString("CANONICAL_LANG", cat.CanonicalLang)
	cat.DefaultThreshold = pc.MayFloat64("DEFAULT_THRESHOLD", cat.DefaultThreshold)
	cat.Degradation = DegradationPolicy(pc.MayEnum("DEGRADATION", string(cat.Degradation),
		string(FailOpen), string(FailClosed)))
	cat.Escalation.AfterWarnings = pc.MayInt("ESCALATE_AFTER_WARNINGS", cat.Escalation.AfterWarnings)
	cat.MaxResponseLen = pc.MayInt("MAX_RESPONSE_LEN", cat.MaxResponseLen)
	cat.ReplyInSourceLang = pc.MayBool("REPLY_IN_SOURCE_LANG", cat.ReplyInSourceLang)

	for _, st := range []moderation.Stage{
		moderation.StageNormalize, moderation.StageDetect,
		moderation.StageSelect, moderation.StageCompose,
	} {
		b := cat.Budgets[st]
		sc := pc.Prefix("STAGE_" + envName(st) + "_")
		b.Timeout = sc.MayDuration("TIMEOUT", b.Timeout)
		b.Retries = sc.MayInt("RETRIES", b.Retries)
		b.Backoff = sc.MayDuration("BACKOFF", b.Backoff)
		cat.Budgets[st] = b
	}
	return cat
}

func envName(s moderation.Stage) string {
	switch s {
	case moderation.StageNormalize:
		return "NORMALIZE"
	case moderation.StageDetect:
		return "DETECT"
	case moderation.StageSelect:
		return "SELECT"
	case moderation.StageCompose:
		return "COMPOSE"
	default:
		return "UNKNOWN"
	}
}
