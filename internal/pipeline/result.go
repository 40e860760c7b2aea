package pipeline

import "github.com/okian/prospector/internal/domain/model"

// Result accumulates stage outputs for one pipeline run. On failure it holds
// everything computed before the failing stage, for diagnostics.
type Result struct {
	RunID      string             `json:"run_id"`
	Signals    []model.Signal     `json:"signals"`
	Candidates []model.Candidate  `json:"candidates"`
	Build      *model.StageOutput `json:"build,omitempty"`
	Promotion  *model.StageOutput `json:"promotion,omitempty"`
	Sales      *model.StageOutput `json:"sales,omitempty"`
}

// ScanResult is the payload of a standalone scan job.
type ScanResult struct {
	RunID   string         `json:"run_id"`
	Count   int            `json:"count"`
	Signals []model.Signal `json:"signals"`
}

// GenerateResult is the payload of a standalone generate job.
type GenerateResult struct {
	RunID      string            `json:"run_id"`
	Count      int               `json:"count"`
	Candidates []model.Candidate `json:"candidates"`
}
