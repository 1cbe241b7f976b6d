// Package jira is a Jira REST client for review tickets: creating issues,
// commenting, transitioning, attaching the JSON report and locating custom
// fields.
//
// # Authentication
//
//   - api_token (Cloud): email + API token, sent as basic auth
//   - basic (Server): username + password
//   - pat (Server/DC): personal access token, sent as bearer
//   - oauth2 (Cloud): pre-issued access token, sent as bearer
//   - connect: Atlassian Connect app; every request carries a JWT signed with
//     the installation's shared secret and bound to the request by its qsh claim
//
// # Rich Text
//
// Comments and descriptions are written as Markdown. The client converts
// them to ADF for API v3 and to wiki markup for API v2.
//
// # Errors
//
// Failed calls return *APIError, which unwraps to the sentinels of the
// reviewflow http package:
//
//	if errors.Is(err, http.ErrNotFound) {
//		// issue was deleted
//	}
package jira
