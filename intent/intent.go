package intent

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/randalmurphal/reviewflow/workflow"
)

// ErrNoRepository indicates the request names no repository.
var ErrNoRepository = errors.New("no repository URL found in request")

// Source records which strategy produced an Intent.
type Source string

const (
	SourceLLM   Source = "llm"
	SourceRegex Source = "regex"
)

// Intent is what a request asks for. Focus holds the parser's raw answer
// mapped through workflow.ParseFocus where possible; it may be empty or
// unrecognized, and callers substitute the general focus.
type Intent struct {
	RepositoryRef string
	Focus         workflow.Focus
	Source        Source
}

// repoURLPattern matches GitHub and GitLab repository URLs.
var repoURLPattern = regexp.MustCompile(`https://(?:github|gitlab)\.com/[\w\-]+/[\w\-]+`)

// focusKeywords are checked in order; the first keyword found wins.
var focusKeywords = []struct {
	keyword string
	focus   workflow.Focus
}{
	{"security", workflow.FocusSecurity},
	{"vulnerab", workflow.FocusSecurity},
	{"secure", workflow.FocusSecurity},
	{"performance", workflow.FocusPerformance},
	{"perf ", workflow.FocusPerformance},
	{"slow", workflow.FocusPerformance},
	{"quality", workflow.FocusQuality},
	{"maintainab", workflow.FocusQuality},
	{"readab", workflow.FocusQuality},
}

// RegexParser extracts the first repository URL and a keyword-detected focus.
type RegexParser struct{}

// Parse implements the request parser contract without a model.
func (RegexParser) Parse(_ context.Context, text string) (Intent, error) {
	ref := FindRepositoryURL(text)
	if ref == "" {
		return Intent{Source: SourceRegex}, ErrNoRepository
	}
	return Intent{RepositoryRef: ref, Focus: DetectFocus(text), Source: SourceRegex}, nil
}

// FindRepositoryURL returns the first GitHub or GitLab URL in text, or "".
func FindRepositoryURL(text string) string {
	return repoURLPattern.FindString(text)
}

// DetectFocus looks for focus keywords and defaults to general.
func DetectFocus(text string) workflow.Focus {
	lower := strings.ToLower(text) + " "
	for _, k := range focusKeywords {
		if strings.Contains(lower, k.keyword) {
			return k.focus
		}
	}
	return workflow.FocusGeneral
}

// mapFocus keeps unrecognized answers verbatim so callers can tell them apart.
func mapFocus(raw string) workflow.Focus {
	if f, ok := workflow.ParseFocus(raw); ok {
		return f
	}
	return workflow.Focus(strings.TrimSpace(raw))
}
