package types

import "time"

// Stage is the closed set of pipeline stages a StageRun records.
type Stage string

const (
	StageIngest  Stage = "ingest"
	StageProblem Stage = "problem"
	StageSpec    Stage = "spec"
	StageContent Stage = "content"
	StageVerify  Stage = "verify"
	StageListing Stage = "listing"
	StageUpload  Stage = "upload"
)

// StageStatus is the closed set of outcomes recorded for a StageRun.
type StageStatus string

const (
	StatusCompleted     StageStatus = "completed"
	StatusDiscarded     StageStatus = "discarded"
	StatusRejected      StageStatus = "rejected"
	StatusFailed        StageStatus = "failed"
	StatusCostExhausted StageStatus = "cost_exhausted"
)

// StageRun is an immutable, append-only record of one attempt at one
// stage for one post. Regeneration produces a second StageRun for the
// same (post_id, stage) pair rather than mutating the first.
type StageRun struct {
	ID         int64       `json:"id"`
	PostID     string      `json:"post_id"`
	Stage      Stage       `json:"stage"`
	Attempt    int         `json:"attempt"`
	Status     StageStatus `json:"status"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	ArtifactID string      `json:"artifact_id,omitempty"`
	ErrorClass string      `json:"error_class,omitempty"`
	ErrorDetail string     `json:"error_detail,omitempty"`
}
