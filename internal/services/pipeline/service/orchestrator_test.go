package service

import (
	"context"
	"sync"
	"testing"

	"moderato/internal/core/catalog"
	"moderato/internal/core/moderation"
	perr "moderato/internal/platform/errors"
	composerdom "moderato/internal/services/composer/domain"
	detectordom "moderato/internal/services/detector/domain"
	historyrepo "moderato/internal/services/history/repo"
	historysvc "moderato/internal/services/history/service"
	resultsrepo "moderato/internal/services/results/repo"
	selectorsvc "moderato/internal/services/selector/service"
)

// stubNormalizer passes text through, or fails when err is set
type stubNormalizer struct {
	err error
}

func (s *stubNormalizer) Normalize(_ context.Context, u moderation.Utterance) (moderation.NormalizedUtterance, error) {
	if s.err != nil {
		return moderation.NormalizedUtterance{}, s.err
	}
	return moderation.NormalizedUtterance{
		UtteranceID: u.ID, Text: u.Text, SourceLang: u.Lang, Confidence: 1.0,
	}, nil
}

// stubDetector returns fixed scores, or fails when err is set
type stubDetector struct {
	scores map[moderation.TriggerKind]float64
	err    error
}

func (s *stubDetector) Detect(_ context.Context, _ moderation.NormalizedUtterance) (detectordom.Detection, error) {
	if s.err != nil {
		return detectordom.Detection{Status: moderation.StatusFailed}, s.err
	}
	var triggers []moderation.Trigger
	for k, v := range s.scores {
		triggers = append(triggers, moderation.Trigger{Kind: k, Score: v})
	}
	return detectordom.Detection{
		Triggers: moderation.NewTriggerSet(triggers...),
		Status:   moderation.StatusOK,
	}, nil
}

// stubComposer returns a fixed message for any non-none decision
type stubComposer struct {
	text string
}

func (s *stubComposer) Compose(_ context.Context, d moderation.StrategyDecision, _ moderation.Utterance) composerdom.Composition {
	if d.None() {
		return composerdom.Composition{
			Response: moderation.ModerationResponse{NoResponse: true},
			Status:   moderation.StatusOK,
		}
	}
	return composerdom.Composition{
		Response: moderation.ModerationResponse{Text: s.text, Lang: "en", Confidence: 1.0},
		Status:   moderation.StatusOK,
	}
}

type fixture struct {
	orch    *Orchestrator
	history *historysvc.Service
	sink    *resultsrepo.Memory
}

func newFixture(t *testing.T, cat catalog.Catalog, n *stubNormalizer, d *stubDetector) *fixture {
	t.Helper()
	if err := cat.Validate(); err != nil {
		t.Fatalf("catalog: %v", err)
	}
	hist := historysvc.New(historyrepo.NewMemory())
	sink := resultsrepo.NewMemory()
	orch := New(Stages{
		Normalizer: n,
		Detector:   d,
		Selector:   selectorsvc.New(cat),
		Composer:   &stubComposer{text: "Please keep things civil."},
	}, hist, hist, sink, cat, Config{})
	return &fixture{orch: orch, history: hist, sink: sink}
}

func utt(id, author, thread string) moderation.Utterance {
	return moderation.Utterance{ID: id, Text: "some text", Lang: "en", Author: author, ThreadID: thread}
}

func TestRunQuietUtteranceFinalizesSilently(t *testing.T) {
	t.Parallel()

	f := newFixture(t, catalog.Default(),
		&stubNormalizer{},
		&stubDetector{scores: map[moderation.TriggerKind]float64{moderation.KindProfanity: 0.1}},
	)

	res := f.orch.Run(context.Background(), utt("u1", "alice", "t1"))
	if res.State != moderation.StateFinalized {
		t.Fatalf("state = %s, want finalized", res.State)
	}
	if res.HasResponse() {
		t.Fatalf("quiet utterance must get no response: %+v", res.Response)
	}
	if res.Decision == nil || !res.Decision.None() {
		t.Fatalf("decision = %+v, want none", res.Decision)
	}
	if got := len(f.sink.Runs()); got != 1 {
		t.Fatalf("sink rows = %d, want 1", got)
	}
}

func TestRunThreatEndsInResponse(t *testing.T) {
	t.Parallel()

	f := newFixture(t, catalog.Default(),
		&stubNormalizer{},
		&stubDetector{scores: map[moderation.TriggerKind]float64{moderation.KindThreat: 0.9}},
	)

	res := f.orch.Run(context.Background(), utt("u1", "bob", "t1"))
	if res.State != moderation.StateFinalized {
		t.Fatalf("state = %s, want finalized", res.State)
	}
	if res.Decision.Strategy != moderation.StrategyEscalate {
		t.Fatalf("strategy = %s", res.Decision.Strategy)
	}
	if !res.HasResponse() {
		t.Fatal("threat must yield a response")
	}

	// the intervention must land in history
	done, err := f.history.AlreadyModerated(context.Background(), "u1")
	if err != nil || !done {
		t.Fatalf("AlreadyModerated = %v, %v", done, err)
	}
}

func TestRunDetectorTotalFailureAborts(t *testing.T) {
	t.Parallel()

	f := newFixture(t, catalog.Default(),
		&stubNormalizer{},
		&stubDetector{err: perr.New(perr.ErrorCodeUnavailable, "all classifiers down")},
	)

	res := f.orch.Run(context.Background(), utt("u1", "bob", "t1"))
	if res.State != moderation.StateAborted {
		t.Fatalf("state = %s, want aborted", res.State)
	}
	if res.Response != nil {
		t.Fatalf("aborted run must carry no response: %+v", res.Response)
	}
	if res.StageStatusOf(moderation.StageDetect) != moderation.StatusFailed {
		t.Fatalf("detect status = %s", res.StageStatusOf(moderation.StageDetect))
	}
	if res.StageStatusOf(moderation.StageCompose) != moderation.StatusSkipped {
		t.Fatalf("compose status = %s, want skipped", res.StageStatusOf(moderation.StageCompose))
	}
}

func TestRunNormalizerFailureFailOpen(t *testing.T) {
	t.Parallel()

	cat := catalog.Default() // fail-open by default
	f := newFixture(t, cat,
		&stubNormalizer{err: perr.New(perr.ErrorCodeUnavailable, "rtg down")},
		&stubDetector{scores: map[moderation.TriggerKind]float64{moderation.KindThreat: 0.9}},
	)

	res := f.orch.Run(context.Background(), utt("u1", "bob", "t1"))
	if res.State != moderation.StateFinalized {
		t.Fatalf("state = %s, want finalized", res.State)
	}
	if !res.NormalizationDegraded {
		t.Fatal("fail-open must flag normalization as degraded")
	}
	if res.Normalized == nil || res.Normalized.Text != "some text" {
		t.Fatalf("fail-open must proceed with original text: %+v", res.Normalized)
	}
	if res.StageStatusOf(moderation.StageNormalize) != moderation.StatusDegraded {
		t.Fatalf("normalize status = %s", res.StageStatusOf(moderation.StageNormalize))
	}
}

func TestRunNormalizerFailureFailClosed(t *testing.T) {
	t.Parallel()

	cat := catalog.Default()
	cat.Degradation = catalog.FailClosed
	f := newFixture(t, cat,
		&stubNormalizer{err: perr.New(perr.ErrorCodeTimeout, "rtg timeout")},
		&stubDetector{scores: map[moderation.TriggerKind]float64{moderation.KindThreat: 0.9}},
	)

	res := f.orch.Run(context.Background(), utt("u1", "bob", "t1"))
	if res.State != moderation.StateAborted {
		t.Fatalf("state = %s, want aborted", res.State)
	}
	if res.Note != "normalization failed" {
		t.Fatalf("note = %q", res.Note)
	}
}

func TestRunOptedOutAuthorShortCircuits(t *testing.T) {
	t.Parallel()

	f := newFixture(t, catalog.Default(),
		&stubNormalizer{},
		&stubDetector{scores: map[moderation.TriggerKind]float64{moderation.KindThreat: 0.9}},
	)
	if err := f.history.OptOut(context.Background(), "carol"); err != nil {
		t.Fatalf("OptOut: %v", err)
	}

	res := f.orch.Run(context.Background(), utt("u1", "carol", "t1"))
	if res.State != moderation.StateFinalized {
		t.Fatalf("state = %s, want finalized", res.State)
	}
	if res.Note != "author opted out" {
		t.Fatalf("note = %q", res.Note)
	}
	if res.Decision != nil || res.Response != nil {
		t.Fatalf("short-circuit must not decide or respond: %+v", res)
	}
	if res.StageStatusOf(moderation.StageNormalize) != moderation.StatusSkipped {
		t.Fatalf("normalize status = %s, want skipped", res.StageStatusOf(moderation.StageNormalize))
	}
}

func TestRunAlreadyModeratedShortCircuits(t *testing.T) {
	t.Parallel()

	f := newFixture(t, catalog.Default(),
		&stubNormalizer{},
		&stubDetector{scores: map[moderation.TriggerKind]float64{moderation.KindThreat: 0.9}},
	)

	first := f.orch.Run(context.Background(), utt("u1", "bob", "t1"))
	if !first.HasResponse() {
		t.Fatalf("first run should respond: %+v", first)
	}
	second := f.orch.Run(context.Background(), utt("u1", "bob", "t1"))
	if second.Note != "utterance already moderated" {
		t.Fatalf("note = %q", second.Note)
	}
	if second.Response != nil {
		t.Fatalf("repeat run must not respond: %+v", second.Response)
	}
}

func TestRunEscalatesWithThreadHistory(t *testing.T) {
	t.Parallel()

	f := newFixture(t, catalog.Default(), // escalates after 2 warnings
		&stubNormalizer{},
		&stubDetector{scores: map[moderation.TriggerKind]float64{moderation.KindProfanity: 0.9}},
	)
	ctx := context.Background()

	for i, want := range []struct {
		strategy  moderation.StrategyName
		escalated bool
	}{
		{moderation.StrategyWarnUser, false},
		{moderation.StrategyWarnUser, false},
		{moderation.StrategySoftIntervention, true},
	} {
		res := f.orch.Run(ctx, utt(string(rune('a'+i)), "bob", "t1"))
		if res.Decision.Strategy != want.strategy || res.Decision.Escalated != want.escalated {
			t.Fatalf("run %d: got %s/%v, want %s/%v",
				i, res.Decision.Strategy, res.Decision.Escalated, want.strategy, want.escalated)
		}
	}
}

func TestRunDryRunSkipsHistory(t *testing.T) {
	t.Parallel()

	cat := catalog.Default()
	if err := cat.Validate(); err != nil {
		t.Fatalf("catalog: %v", err)
	}
	hist := historysvc.New(historyrepo.NewMemory())
	sink := resultsrepo.NewMemory()
	orch := New(Stages{
		Normalizer: &stubNormalizer{},
		Detector:   &stubDetector{scores: map[moderation.TriggerKind]float64{moderation.KindThreat: 0.9}},
		Selector:   selectorsvc.New(cat),
		Composer:   &stubComposer{text: "msg"},
	}, hist, hist, sink, cat, Config{DryRun: true})

	res := orch.Run(context.Background(), utt("u1", "bob", "t1"))
	if res.State != moderation.StateFinalized || !res.HasResponse() {
		t.Fatalf("dry-run still decides and composes: %+v", res)
	}
	done, err := hist.AlreadyModerated(context.Background(), "u1")
	if err != nil || done {
		t.Fatalf("dry-run must not record history: %v, %v", done, err)
	}
	if got := len(sink.Runs()); got != 1 {
		t.Fatalf("dry-run must still write results, rows = %d", got)
	}
}

func TestRunCancelledBeforeDecisionAborts(t *testing.T) {
	t.Parallel()

	f := newFixture(t, catalog.Default(),
		&stubNormalizer{},
		&stubDetector{scores: map[moderation.TriggerKind]float64{moderation.KindThreat: 0.9}},
	)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := f.orch.Run(ctx, utt("u1", "bob", "t1"))
	if res.State != moderation.StateAborted {
		t.Fatalf("state = %s, want aborted", res.State)
	}
	if res.Note != "run cancelled" {
		t.Fatalf("note = %q", res.Note)
	}
	// terminal bookkeeping still happens
	if got := len(f.sink.Runs()); got != 1 {
		t.Fatalf("sink rows = %d, want 1", got)
	}
}

func TestDispatcherSerializesPerThread(t *testing.T) {
	t.Parallel()

	f := newFixture(t, catalog.Default(),
		&stubNormalizer{},
		&stubDetector{scores: map[moderation.TriggerKind]float64{moderation.KindProfanity: 0.9}},
	)
	d := NewDispatcher(f.orch)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d.Run(ctx, utt(string(rune('a'+i)), "bob", "t1"))
		}(i)
	}
	wg.Wait()

	// with serialized runs every intervention is counted exactly once
	dc, err := f.history.Context(ctx, "bob", "t1")
	if err != nil {
		t.Fatalf("Context: %v", err)
	}
	if dc.PriorInterventions != 8 {
		t.Fatalf("interventions = %d, want 8", dc.PriorInterventions)
	}
}
