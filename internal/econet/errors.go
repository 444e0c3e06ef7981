package econet

import "errors"

// Sentinel errors for cloud operations.
// Use errors.Is() to check for these errors as they may be wrapped.
var (
	// ErrAuthenticationFailed indicates the cloud rejected the credentials.
	// Retrying with the same credentials will not help.
	ErrAuthenticationFailed = errors.New("econet: authentication failed")

	// ErrTransport indicates a network failure or a non-200 HTTP status.
	ErrTransport = errors.New("econet: transport error")

	// ErrMalformedResponse indicates a response envelope without a
	// success flag or results object.
	ErrMalformedResponse = errors.New("econet: malformed response")

	// ErrNotAuthenticated indicates a call that needs a session was made
	// before Login succeeded.
	ErrNotAuthenticated = errors.New("econet: not authenticated")

	// ErrUsageUnavailable indicates the unit does not report the requested
	// usage data.
	ErrUsageUnavailable = errors.New("econet: usage report unavailable")
)
