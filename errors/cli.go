package errors

import (
	"errors"
	"fmt"
	"strings"
)

// CLIError wraps an error with user-friendly context and suggestions.
type CLIError struct {
	// Err is the underlying error
	Err error

	// Message is a user-friendly description of what went wrong
	Message string

	// Suggestion is an actionable hint for the user
	Suggestion string

	// Details provides additional context (optional)
	Details string
}

func (e *CLIError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	if e.Details != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Details)
	}
	if e.Suggestion != "" {
		sb.WriteString("\n\n")
		sb.WriteString(e.Suggestion)
	}
	return sb.String()
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewNotConfiguredError reports that service needs the given config keys.
func NewNotConfiguredError(service string, keys ...string) error {
	var sets []string
	for _, k := range keys {
		sets = append(sets, "  reviewflow config set "+k+" <value>")
	}
	return &CLIError{
		Err:        fmt.Errorf("%w: %s", ErrNotConfigured, service),
		Message:    fmt.Sprintf("%s is not configured.", service),
		Suggestion: "Set the missing keys:\n" + strings.Join(sets, "\n"),
	}
}

// NewLLMUnavailableError reports a missing model CLI binary.
func NewLLMUnavailableError(binary string, cause error) error {
	return &CLIError{
		Err:        errors.Join(ErrLLMUnavailable, cause),
		Message:    fmt.Sprintf("Cannot run the model CLI %q.", binary),
		Suggestion: "Install it or point llm_binary at it:\n  reviewflow config set llm_binary /path/to/claude",
	}
}

// Explain wraps err from service (e.g. "Jira") with guidance when it is an
// authentication, permission or connection problem. Other errors are
// returned unchanged.
func Explain(err error, service, serverURL string) error {
	switch {
	case err == nil:
		return nil
	case IsAuthError(err):
		return &CLIError{
			Err:        errors.Join(ErrNotAuthenticated, err),
			Message:    fmt.Sprintf("%s rejected the configured credentials.", service),
			Details:    err.Error(),
			Suggestion: "Check the token with `reviewflow config` and make sure it has not expired.",
		}
	case IsPermissionError(err):
		return &CLIError{
			Err:        errors.Join(ErrPermissionDenied, err),
			Message:    fmt.Sprintf("The %s account lacks permission for this action.", service),
			Details:    err.Error(),
			Suggestion: "Grant the account access to the project or channel, or use another token.",
		}
	case IsConnectionError(err):
		return wrapConnection(err, service, serverURL)
	}
	return err
}

func wrapConnection(err error, service, serverURL string) error {
	target := service
	if serverURL != "" {
		target = fmt.Sprintf("%s at %s", service, serverURL)
	}
	errStr := strings.ToLower(err.Error())

	cliErr := &CLIError{Err: errors.Join(ErrConnectionFailed, err)}
	switch {
	case strings.Contains(errStr, "certificate") || strings.Contains(errStr, "x509") || strings.Contains(errStr, "tls"):
		cliErr.Message = fmt.Sprintf("TLS/certificate error connecting to %s", target)
		cliErr.Details = err.Error()
		cliErr.Suggestion = "Check that the server certificate is valid."
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded"):
		cliErr.Message = fmt.Sprintf("Connection to %s timed out", target)
		cliErr.Suggestion = "The service may be overloaded or unreachable.\nTry again, or raise the matching timeout_* key."
	default:
		cliErr.Message = fmt.Sprintf("Cannot connect to %s", target)
		cliErr.Suggestion = "Check that:\n  - The URL is correct\n  - Your network connection is working"
	}
	return cliErr
}
