package errors

import "errors"

// Sentinels for conditions the CLI explains to the user.
var (
	// ErrNotAuthenticated indicates rejected or missing credentials.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrPermissionDenied indicates valid credentials without access.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrConnectionFailed indicates the service is unreachable.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrNotConfigured indicates required configuration keys are unset.
	ErrNotConfigured = errors.New("not configured")

	// ErrLLMUnavailable indicates the model CLI binary cannot be found.
	ErrLLMUnavailable = errors.New("llm unavailable")
)
