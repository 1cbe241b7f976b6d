// Package errors turns integration failures into messages a CLI user can
// act on.
//
// CLIError carries a message, optional details and a suggestion, and
// unwraps to both a sentinel (ErrNotAuthenticated, ErrConnectionFailed, ...)
// and the original error. Explain classifies errors coming back from the
// Jira, Slack and hosting clients:
//
//	if err != nil {
//	    return errors.Explain(err, "Jira", settings.Jira.URL)
//	}
//
// The predicates (IsAuthError, IsConnectionError, ...) recognize both the
// typed errors of the http package and common error strings.
package errors
