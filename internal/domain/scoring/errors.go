package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	ErrInvalidProfile = errors.New("invalid scoring profile")
)
