// Package pipeline composes scan, generate, validate, prioritize, persist and
// launch stages into tracked jobs.
package pipeline

import (
	"context"

	"github.com/okian/prospector/internal/domain/model"
)

// SignalSource fetches raw signals from one external origin.
type SignalSource interface {
	// Name identifies the source in logs and metrics.
	Name() string

	// Fetch returns the source's current raw signals.
	Fetch(ctx context.Context) ([]model.Signal, error)
}

// Generator produces candidate proposals from one retained signal.
type Generator interface {
	Generate(ctx context.Context, signal model.Signal, count int) ([]model.Candidate, error)
}

// Validator enriches a candidate with competition data. A failing validation
// leaves the candidate unvalidated; it never removes it.
type Validator interface {
	Validate(ctx context.Context, candidate model.Candidate) (model.Validation, error)
}

// Persistence stores ranked pipeline output. Save must be atomic with
// respect to LoadLatest: a concurrent reader never observes a half-written
// run.
type Persistence interface {
	SaveSignals(ctx context.Context, runID string, signals []model.Signal) error
	LoadLatestSignals(ctx context.Context) ([]model.Signal, error)

	Save(ctx context.Context, runID string, candidates []model.Candidate) error
	LoadLatest(ctx context.Context) ([]model.Candidate, error)
}

// Stage is a downstream collaborator (build, promote, sell) invoked with the
// top candidate and the prior stage's output.
type Stage interface {
	Name() string
	Run(ctx context.Context, candidate model.Candidate, prior model.StageOutput) (model.StageOutput, error)
}
