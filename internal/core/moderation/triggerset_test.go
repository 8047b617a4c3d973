package moderation

import "testing"

func TestTriggerSetMaxReplaceIsOrderIndependent(t *testing.T) {
	t.Parallel()

	low := Trigger{Kind: KindThreat, Score: 0.3}
	high := Trigger{Kind: KindThreat, Score: 0.7}

	a := NewTriggerSet()
	a.Add(low)
	a.Add(high)

	b := NewTriggerSet()
	b.Add(high)
	b.Add(low)

	for name, s := range map[string]TriggerSet{"low-then-high": a, "high-then-low": b} {
		if s.Len() != 1 {
			t.Fatalf("%s: Len = %d, want 1", name, s.Len())
		}
		got, ok := s.Get(KindThreat)
		if !ok || got.Score != 0.7 {
			t.Fatalf("%s: Get = %+v ok=%v, want score 0.7", name, got, ok)
		}
	}
}

func TestTriggerSetKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	s := NewTriggerSet(
		Trigger{Kind: KindProfanity, Score: 0.6},
		Trigger{Kind: KindInsult, Score: 0.9},
		Trigger{Kind: KindProfanity, Score: 0.8}, // replaces score, keeps slot
	)

	kinds := s.Kinds()
	if len(kinds) != 2 || kinds[0] != KindProfanity || kinds[1] != KindInsult {
		t.Fatalf("kinds = %v", kinds)
	}
	if tr, _ := s.Get(KindProfanity); tr.Score != 0.8 {
		t.Fatalf("profanity score = %v, want 0.8", tr.Score)
	}
}

func TestTriggerSetFilter(t *testing.T) {
	t.Parallel()

	s := NewTriggerSet(
		Trigger{Kind: KindThreat, Score: 0.9},
		Trigger{Kind: KindSpam, Score: 0.2},
		Trigger{Kind: KindInsult, Score: 0.5},
	)

	got := s.Filter(map[TriggerKind]float64{KindThreat: 0.5, KindInsult: 0.6}, 0.4)

	if !got.Has(KindThreat) {
		t.Fatalf("threat should pass its 0.5 threshold")
	}
	if got.Has(KindInsult) {
		t.Fatalf("insult 0.5 should fail its 0.6 threshold")
	}
	if got.Has(KindSpam) {
		t.Fatalf("spam 0.2 should fail the 0.4 default threshold")
	}
}

func TestTriggerSetMax(t *testing.T) {
	t.Parallel()

	if _, ok := NewTriggerSet().Max(); ok {
		t.Fatalf("empty set should have no max")
	}

	s := NewTriggerSet(
		Trigger{Kind: KindInsult, Score: 0.4},
		Trigger{Kind: KindThreat, Score: 0.9},
	)
	m, ok := s.Max()
	if !ok || m.Kind != KindThreat {
		t.Fatalf("Max = %+v ok=%v, want threat", m, ok)
	}
}

func TestTriggerSetMergeAndEmpty(t *testing.T) {
	t.Parallel()

	a := NewTriggerSet(Trigger{Kind: KindHateSpeech, Score: 0.3})
	b := NewTriggerSet(
		Trigger{Kind: KindHateSpeech, Score: 0.8},
		Trigger{Kind: KindHarassment, Score: 0.6},
	)
	a.Merge(b)

	if a.Len() != 2 {
		t.Fatalf("Len after merge = %d, want 2", a.Len())
	}
	if tr, _ := a.Get(KindHateSpeech); tr.Score != 0.8 {
		t.Fatalf("merge should keep the higher score, got %v", tr.Score)
	}
	if a.Empty() {
		t.Fatalf("merged set reported empty")
	}
}
