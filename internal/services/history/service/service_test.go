package service

import (
	"context"
	"testing"

	"moderato/internal/core/moderation"
	"moderato/internal/services/history/domain"
	"moderato/internal/services/history/repo"
)

func TestContextCountsWarningsPerThread(t *testing.T) {
	t.Parallel()

	s := New(repo.NewMemory())
	ctx := context.Background()

	recs := []domain.InterventionRecord{
		{UtteranceID: "u1", Author: "bob", ThreadID: "t1", Strategy: moderation.StrategyWarnUser},
		{UtteranceID: "u2", Author: "bob", ThreadID: "t1", Strategy: moderation.StrategyWarnUser},
		{UtteranceID: "u3", Author: "bob", ThreadID: "t1", Strategy: moderation.StrategySoftIntervention},
		{UtteranceID: "u4", Author: "bob", ThreadID: "t2", Strategy: moderation.StrategyWarnUser},
		{UtteranceID: "u5", Author: "eve", ThreadID: "t1", Strategy: moderation.StrategyWarnUser},
	}
	for _, rec := range recs {
		if err := s.RecordIntervention(ctx, rec); err != nil {
			t.Fatalf("RecordIntervention: %v", err)
		}
	}

	dc, err := s.Context(ctx, "bob", "t1")
	if err != nil {
		t.Fatalf("Context: %v", err)
	}
	if dc.PriorWarnings != 2 || dc.PriorInterventions != 3 {
		t.Fatalf("got %+v, want 2 warnings / 3 interventions", dc)
	}
}

func TestRecordInterventionDedupsPerUtterance(t *testing.T) {
	t.Parallel()

	s := New(repo.NewMemory())
	ctx := context.Background()

	rec := domain.InterventionRecord{
		UtteranceID: "u1", Author: "bob", ThreadID: "t1", Strategy: moderation.StrategyWarnUser,
	}
	if err := s.RecordIntervention(ctx, rec); err != nil {
		t.Fatalf("first record: %v", err)
	}
	if err := s.RecordIntervention(ctx, rec); err != nil {
		t.Fatalf("duplicate record: %v", err)
	}

	done, err := s.AlreadyModerated(ctx, "u1")
	if err != nil || !done {
		t.Fatalf("AlreadyModerated = %v, %v", done, err)
	}
	dc, err := s.Context(ctx, "bob", "t1")
	if err != nil {
		t.Fatalf("Context: %v", err)
	}
	if dc.PriorInterventions != 1 {
		t.Fatalf("duplicate must not double-count: %+v", dc)
	}
}

func TestOptOutRegistry(t *testing.T) {
	t.Parallel()

	s := New(repo.NewMemory())
	ctx := context.Background()

	out, err := s.OptedOut(ctx, "carol")
	if err != nil || out {
		t.Fatalf("fresh author opted out: %v, %v", out, err)
	}
	if err := s.OptOut(ctx, "carol"); err != nil {
		t.Fatalf("OptOut: %v", err)
	}
	out, err = s.OptedOut(ctx, "carol")
	if err != nil || !out {
		t.Fatalf("OptedOut after OptOut = %v, %v", out, err)
	}
}
