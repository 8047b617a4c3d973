// Package service implements strategy selection.
// Selection is pure decision logic: threshold filtering, subset matching
// against the catalog, deterministic tie-breaking, and the single
// history-driven escalation upgrade
package service

import (
	"fmt"
	"strings"

	"moderato/internal/core/catalog"
	"moderato/internal/core/moderation"
)

// Service implements domain.SelectorPort against an immutable catalog
type Service struct {
	cat catalog.Catalog
}

// New constructs a selector; the catalog must already be validated
func New(cat catalog.Catalog) *Service {
	return &Service{cat: cat}
}

// tie-break rule labels recorded in the rationale for auditability
const (
	byPriority    = "priority"
	bySpecificity = "specificity"
	byCatalogOrd  = "catalog-order"
)

// Select filters ts by the per-kind thresholds and picks the winning
// strategy. Ties resolve by (1) higher priority, (2) larger required kind
// set, (3) earlier canonical catalog position, in that order
func (s *Service) Select(ts moderation.TriggerSet, dc moderation.DecisionContext) moderation.StrategyDecision {
	filtered := ts.Filter(s.cat.Thresholds, s.cat.DefaultThreshold)
	if filtered.Empty() {
		return moderation.StrategyDecision{
			Strategy:  moderation.StrategyNone,
			Triggers:  filtered,
			Rationale: "no trigger above threshold",
		}
	}

	winnerIdx := -1
	tieBreak := byPriority
	for i, cand := range s.cat.Strategies {
		if !requiresSatisfied(cand, filtered) {
			continue
		}
		if winnerIdx < 0 {
			winnerIdx = i
			continue
		}
		cur := s.cat.Strategies[winnerIdx]
		switch {
		case cand.Priority > cur.Priority:
			winnerIdx, tieBreak = i, byPriority
		case cand.Priority == cur.Priority && len(cand.Requires) > len(cur.Requires):
			winnerIdx, tieBreak = i, bySpecificity
		case cand.Priority == cur.Priority && len(cand.Requires) == len(cur.Requires):
			// earlier catalog entry already holds the slot
			tieBreak = byCatalogOrd
		}
	}

	if winnerIdx < 0 {
		return moderation.StrategyDecision{
			Strategy:  moderation.StrategyNone,
			Triggers:  filtered,
			Rationale: fmt.Sprintf("no strategy matches trigger kinds %s", kindList(filtered)),
		}
	}

	winner := s.cat.Strategies[winnerIdx]
	rationale := s.rationale(filtered, winner, tieBreak)
	escalated := false

	if s.cat.Escalation.AfterWarnings > 0 && dc.PriorWarnings >= s.cat.Escalation.AfterWarnings {
		if up, ok := s.cat.NextTier(winner.Name); ok {
			rationale += fmt.Sprintf("; escalated %s -> %s after %d prior warnings",
				winner.Name, up.Name, dc.PriorWarnings)
			winner = up
			escalated = true
		}
	}

	return moderation.StrategyDecision{
		Strategy:  winner.Name,
		Triggers:  filtered,
		Rationale: rationale,
		Escalated: escalated,
	}
}

func requiresSatisfied(s moderation.Strategy, filtered moderation.TriggerSet) bool {
	for _, k := range s.Requires {
		if !filtered.Has(k) {
			return false
		}
	}
	return true
}

// rationale names the winning trigger kinds, the dominant kind, and the
// tie-break rule applied, so every decision can be audited after the fact
func (s *Service) rationale(filtered moderation.TriggerSet, winner moderation.Strategy, tieBreak string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "matched kinds %s", kindList(filtered))
	if dom, ok := filtered.Max(); ok {
		fmt.Fprintf(&sb, "; dominant %s(%.2f)", dom.Kind, dom.Score)
	}
	fmt.Fprintf(&sb, "; selected %s by %s", winner.Name, tieBreak)
	return sb.String()
}

func kindList(ts moderation.TriggerSet) string {
	kinds := ts.Kinds()
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
