// Package domain defines the strategy selector contract
package domain

import "moderato/internal/core/moderation"

// SelectorPort chooses zero or one intervention strategy for a trigger set.
// It is a pure function of its inputs: no I/O, fully deterministic, so two
// calls with identical arguments always yield the identical decision
type SelectorPort interface {
	Select(ts moderation.TriggerSet, dc moderation.DecisionContext) moderation.StrategyDecision
}
