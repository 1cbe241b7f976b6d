package jira

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"

	rfhttp "github.com/randalmurphal/reviewflow/http"
)

// Configuration errors.
var (
	ErrConfigURLRequired       = errors.New("jira url is required")
	ErrConfigAuthTypeRequired  = errors.New("jira auth type is required")
	ErrConfigAuthTypeInvalid   = errors.New("jira auth type must be api_token, basic, pat, oauth2 or connect")
	ErrConfigAPITokenAuth      = errors.New("api_token auth requires email and token")
	ErrConfigBasicAuth         = errors.New("basic auth requires username and password")
	ErrConfigPATAuth           = errors.New("pat auth requires token")
	ErrConfigOAuth2Auth        = errors.New("oauth2 auth requires access_token")
	ErrConfigConnectAuth       = errors.New("connect auth requires app_key and shared_secret")
	ErrConfigAPIVersionInvalid = errors.New("api_version must be v2 or v3")
)

// Request errors.
var (
	ErrIssueKeyInvalid      = errors.New("invalid issue key format")
	ErrProjectRequired      = errors.New("project key is required")
	ErrTransitionIDRequired = errors.New("transition id is required")
	ErrFieldNotFound        = errors.New("field not found")
)

// APIError is an error response in Jira's errorMessages/errors shape.
type APIError struct {
	StatusCode    int               `json:"-"`
	ErrorMessages []string          `json:"errorMessages,omitempty"`
	Errors        map[string]string `json:"errors,omitempty"`
	Endpoint      string            `json:"-"`
	RequestID     string            `json:"-"`
}

func (e *APIError) Error() string {
	switch {
	case len(e.ErrorMessages) > 0:
		return fmt.Sprintf("jira api error (%d) at %s: %s", e.StatusCode, e.Endpoint, e.ErrorMessages[0])
	case len(e.Errors) > 0:
		fields := make([]string, 0, len(e.Errors))
		for f := range e.Errors {
			fields = append(fields, f)
		}
		slices.Sort(fields)
		return fmt.Sprintf("jira api error (%d) at %s: %s: %s", e.StatusCode, e.Endpoint, fields[0], e.Errors[fields[0]])
	default:
		return fmt.Sprintf("jira api error (%d) at %s", e.StatusCode, e.Endpoint)
	}
}

// Unwrap maps the status onto the shared http sentinels.
func (e *APIError) Unwrap() error {
	return (&rfhttp.APIError{StatusCode: e.StatusCode}).Unwrap()
}

func parseAPIError(resp *http.Response, endpoint string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Endpoint:   endpoint,
		RequestID:  resp.Header.Get("X-Arequestid"),
	}
	if json.Unmarshal(body, apiErr) != nil || (len(apiErr.ErrorMessages) == 0 && len(apiErr.Errors) == 0) {
		apiErr.ErrorMessages = []string{http.StatusText(resp.StatusCode)}
	}
	return apiErr
}

// IsNotFound reports whether err means the issue or resource does not exist.
func IsNotFound(err error) bool { return errors.Is(err, rfhttp.ErrNotFound) }

// IsUnauthorized reports whether the credentials were rejected.
func IsUnauthorized(err error) bool { return errors.Is(err, rfhttp.ErrUnauthorized) }
