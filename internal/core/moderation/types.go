// Package moderation holds the pure domain types of the decision pipeline.
// Everything here is plain data; no I/O, no model calls
package moderation

import "time"

// Utterance is one incoming piece of conversational content.
// Immutable after ingestion; owned by the orchestrator for one run
type Utterance struct {
	ID        string
	Text      string
	Lang      string // BCP 47 tag as declared by the platform; "" when unknown
	Author    string
	ThreadID  string
	CreatedAt time.Time
	Ordinal   int // position in thread, 0-based
}

// NormalizedUtterance is the canonical-language form of an Utterance
type NormalizedUtterance struct {
	UtteranceID string
	Text        string
	SourceLang  string
	Confidence  float64
	Translated  bool // false when the same-language short-circuit applied
}

// TriggerKind names a detectable moderation concern
type TriggerKind string

// Trigger kinds the default deployment knows about. The catalog may extend
// this set; nothing below is hard-coded into the selection algorithm
const (
	KindHarassment TriggerKind = "harassment"
	KindHateSpeech TriggerKind = "hate-speech"
	KindThreat     TriggerKind = "threat"
	KindInsult     TriggerKind = "insult"
	KindProfanity  TriggerKind = "profanity"
	KindSpam       TriggerKind = "spam"
	KindOffTopic   TriggerKind = "off-topic-escalation"
)

// Span is a byte range into normalized text backing a trigger
type Span struct {
	Start int
	End   int
}

// Trigger is one detected signal: kind plus confidence, with optional evidence
type Trigger struct {
	Kind  TriggerKind
	Score float64 // [0,1]
	Span  *Span
}

// StrategyName identifies an intervention strategy in the catalog
type StrategyName string

// The fixed strategy vocabulary. "none" is the explicit no-action decision
const (
	StrategyNone             StrategyName = "none"
	StrategyWarnUser         StrategyName = "warn-user"
	StrategySoftIntervention StrategyName = "soft-intervention-message"
	StrategyEscalate         StrategyName = "escalate-to-human-moderator"
	StrategyRemoveNotify     StrategyName = "remove-content-and-notify"
)

// Strategy is a catalog entry: what evidence it needs and how it ranks
type Strategy struct {
	Name     StrategyName
	Priority int // higher wins
	Requires []TriggerKind
}

// StrategyDecision is the selector output; immutable once produced
type StrategyDecision struct {
	Strategy  StrategyName
	Triggers  TriggerSet // the filtered set that drove the decision
	Rationale string
	Escalated bool // true when history upgraded the strategy one tier
}

// None reports whether the decision is the explicit no-action decision
func (d StrategyDecision) None() bool { return d.Strategy == StrategyNone || d.Strategy == "" }

// DecisionContext carries the only history that may influence selection
type DecisionContext struct {
	PriorWarnings      int // times this author was warned in this thread
	PriorInterventions int // total interventions in this thread
}

// ModerationResponse is the composer output
type ModerationResponse struct {
	Text       string
	NoResponse bool
	Lang       string // language the text is written in
	Confidence float64
}
