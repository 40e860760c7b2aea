// Package jobs tracks the lifecycle of fire-and-forget stage runs through a
// small state machine, keyed by job id and queryable by any caller.
package jobs

import "time"

// Status is the lifecycle state of a job. Transitions are monotonic:
// pending -> running -> {completed, failed}. Terminal states are immutable.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// StageType enumerates the kinds of work a job can track.
type StageType string

const (
	StageScan     StageType = "scan"
	StageGenerate StageType = "generate"
	StagePipeline StageType = "pipeline"
	StageBuild    StageType = "build"
	StagePromote  StageType = "promote"
	StageSell     StageType = "sell"
)

// Job is the tracked record of one asynchronous stage run. Result is an
// opaque payload populated on completion; on failure it may hold whatever
// partial output the work produced, for diagnostics.
type Job struct {
	ID          string     `json:"job_id"`
	Stage       StageType  `json:"stage_type"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Result      any        `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Repository is the storage port behind the registry. Implementations must
// be safe for concurrent use and must reject duplicate ids on Insert and
// updates to jobs already in a terminal state.
type Repository interface {
	Insert(job Job) error
	Update(job Job) error
	Get(id string) (Job, error)
	List() []Job
}
