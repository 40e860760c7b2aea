package jobs

import "errors"

// Sentinel kinds for job registry errors.
var (
	ErrNotFound          = errors.New("job not found")
	ErrDuplicateID       = errors.New("duplicate job id")
	ErrInvalidTransition = errors.New("invalid job status transition")
)
