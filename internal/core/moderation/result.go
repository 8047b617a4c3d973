package moderation

import "time"

// Stage names the pipeline stages for status reporting
type Stage string

// Pipeline stages in run order
const (
	StageNormalize Stage = "normalize"
	StageDetect    Stage = "detect"
	StageSelect    Stage = "select"
	StageCompose   Stage = "compose"
)

// StageStatus is the per-stage outcome recorded on a PipelineResult
type StageStatus string

// Stage outcomes. Skipped means the stage never ran (earlier abort or an
// explicit short-circuit such as an opted-out author)
const (
	StatusOK       StageStatus = "ok"
	StatusDegraded StageStatus = "degraded"
	StatusFailed   StageStatus = "failed"
	StatusSkipped  StageStatus = "skipped"
)

// RunState is the orchestrator state machine position
type RunState string

// Run states; Aborted is terminal and reachable from any stage
const (
	StateIngested   RunState = "ingested"
	StateNormalized RunState = "normalized"
	StateDetected   RunState = "detected"
	StateDecided    RunState = "decided"
	StateComposed   RunState = "composed"
	StateFinalized  RunState = "finalized"
	StateAborted    RunState = "aborted"
)

// Terminal reports whether the state machine has stopped
func (s RunState) Terminal() bool { return s == StateFinalized || s == StateAborted }

// PipelineResult is the terminal record of one run. Downstream consumers
// never see a crash path; worst case is Aborted with an empty decision
type PipelineResult struct {
	RunID     string
	Utterance Utterance

	Normalized *NormalizedUtterance
	Triggers   TriggerSet
	Decision   *StrategyDecision
	Response   *ModerationResponse

	State  RunState
	Stages map[Stage]StageStatus

	// NormalizationDegraded is set when the fail-open policy let the run
	// proceed with original-language text
	NormalizationDegraded bool

	// Note carries a short human-readable reason for aborts/short-circuits
	Note string

	StartedAt  time.Time
	FinishedAt time.Time
}

// StageStatusOf returns the recorded status for stage, defaulting to skipped
func (r *PipelineResult) StageStatusOf(stage Stage) StageStatus {
	if r.Stages == nil {
		return StatusSkipped
	}
	if st, ok := r.Stages[stage]; ok {
		return st
	}
	return StatusSkipped
}

// SetStage records a stage status, allocating the map lazily
func (r *PipelineResult) SetStage(stage Stage, st StageStatus) {
	if r.Stages == nil {
		r.Stages = map[Stage]StageStatus{}
	}
	r.Stages[stage] = st
}

// HasResponse reports whether a postable message was produced
func (r *PipelineResult) HasResponse() bool {
	return r.Response != nil && !r.Response.NoResponse && r.Response.Text != ""
}
