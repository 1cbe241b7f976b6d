package slack

import (
	"fmt"

	rfhttp "github.com/randalmurphal/reviewflow/http"
)

// APIError is an ok=false response from a Web API method.
type APIError struct {
	Method string
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack %s: %s", e.Method, e.Code)
}

// Unwrap maps Slack error codes onto the shared http sentinels.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "not_authed", "invalid_auth", "account_inactive", "token_revoked", "token_expired":
		return rfhttp.ErrUnauthorized
	case "missing_scope", "not_in_channel", "is_archived", "restricted_action":
		return rfhttp.ErrForbidden
	case "channel_not_found", "thread_not_found", "file_not_found":
		return rfhttp.ErrNotFound
	case "ratelimited", "rate_limited":
		return rfhttp.ErrRateLimited
	case "internal_error", "fatal_error", "service_unavailable":
		return rfhttp.ErrServerError
	default:
		return rfhttp.ErrBadRequest
	}
}
