package snapshot

import "errors"

var (
	// ErrMalformedResponse indicates the snapshot does not have the
	// locations/equiptments structure.
	ErrMalformedResponse = errors.New("snapshot: malformed response")
)
