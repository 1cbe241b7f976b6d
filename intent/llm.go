package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	llm "github.com/randalmurphal/llmkit/claude"

	"github.com/randalmurphal/reviewflow/prompt"
)

// focusNames are offered to the model.
var focusNames = []string{"general", "security", "performance", "quality"}

// LLMParser asks a language model to parse the request.
type LLMParser struct {
	client   llm.Client
	prompts  *prompt.Loader
	logger   *slog.Logger
	fallback RegexParser
}

// Option configures an LLMParser.
type Option func(*LLMParser)

// WithPrompts sets the prompt loader (default: embedded prompts).
func WithPrompts(l *prompt.Loader) Option {
	return func(p *LLMParser) {
		if l != nil {
			p.prompts = l
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *LLMParser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewLLMParser creates a parser backed by client.
func NewLLMParser(client llm.Client, opts ...Option) *LLMParser {
	p := &LLMParser{
		client:  client,
		prompts: prompt.NewLoader(""),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// parsedRequest accepts both the current and the legacy key names.
type parsedRequest struct {
	RepositoryURL string `json:"repository_url"`
	RepoURL       string `json:"repo_url"`
	ReviewFocus   string `json:"review_focus"`
	ReviewIntent  string `json:"review_intent"`
}

// Parse asks the model for the repository and focus. An undecodable answer,
// or a failed model call, falls back to the regex parser.
func (p *LLMParser) Parse(ctx context.Context, text string) (Intent, error) {
	system, err := p.prompts.LoadWithVars(prompt.ParseRequest, map[string]any{"Focuses": focusNames})
	if err != nil {
		return Intent{}, err
	}

	resp, err := p.client.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: system,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: text}},
	})
	if err != nil {
		if ctx.Err() != nil {
			return Intent{}, ctx.Err()
		}
		p.logger.Warn("request parser model call failed, using regex fallback", "error", err)
		return p.fallback.Parse(ctx, text)
	}

	var parsed parsedRequest
	if err := json.Unmarshal([]byte(prompt.StripFences(resp.Content)), &parsed); err != nil {
		p.logger.Warn("request parser returned invalid JSON, using regex fallback", "error", err)
		return p.fallback.Parse(ctx, text)
	}

	ref := firstNonNull(parsed.RepositoryURL, parsed.RepoURL)
	if ref == "" {
		return Intent{Source: SourceLLM}, fmt.Errorf("%w: model found none", ErrNoRepository)
	}
	return Intent{
		RepositoryRef: ref,
		Focus:         mapFocus(firstNonNull(parsed.ReviewFocus, parsed.ReviewIntent)),
		Source:        SourceLLM,
	}, nil
}

// firstNonNull returns the first value that is neither blank nor "null".
func firstNonNull(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" && !strings.EqualFold(v, "null") && !strings.EqualFold(v, "none") {
			return v
		}
	}
	return ""
}
