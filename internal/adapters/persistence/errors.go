package persistence

import "errors"

// ErrNoRuns indicates that no pipeline run has been persisted yet.
var ErrNoRuns = errors.New("no persisted runs")
