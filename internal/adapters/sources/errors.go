package sources

import "errors"

var (
	// ErrBadStatus indicates a feed responded with a non-success HTTP status.
	ErrBadStatus = errors.New("unexpected feed status")
	// ErrBadPayload indicates a feed returned a body that does not decode.
	ErrBadPayload = errors.New("malformed feed payload")
)
