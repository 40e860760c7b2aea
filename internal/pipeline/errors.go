package pipeline

import "errors"

// Sentinel kinds for pipeline errors.
var (
	// ErrStageEmpty marks a required stage that produced zero usable items.
	ErrStageEmpty = errors.New("stage produced no usable items")

	// ErrNotConfigured marks a run that needs a collaborator the
	// coordinator was built without.
	ErrNotConfigured = errors.New("pipeline collaborator not configured")
)
