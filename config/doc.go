// Package config resolves reviewflow settings from layered sources.
//
// Precedence, highest first:
//  1. Command-line flags
//  2. REVIEWFLOW_* environment variables (REVIEWFLOW_JIRA_URL sets jira_url)
//  3. .reviewflow.yaml in the git root (secrets are not read from it)
//  4. ~/.config/reviewflow/config.yaml
//  5. Built-in defaults
//
// Every resolved value remembers its Source so `reviewflow config` can show
// where it came from. Resolved.Settings parses the string values into the
// typed Settings used to build clients:
//
//	r := config.NewResolver(config.Options{})
//	resolved := r.Resolve(flagValues)
//	settings, err := resolved.Settings()
//
// SaveConfig backs `reviewflow config set`.
package config
