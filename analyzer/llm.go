package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	llm "github.com/randalmurphal/llmkit/claude"

	"github.com/randalmurphal/reviewflow/prompt"
	"github.com/randalmurphal/reviewflow/workflow"
)

// DefaultMaxLines is how many lines of each file the model sees.
const DefaultMaxLines = 100

// LLMAnalyzer reviews files one at a time with a language model.
type LLMAnalyzer struct {
	client   llm.Client
	prompts  *prompt.Loader
	tools    *ToolRunner
	logger   *slog.Logger
	maxLines int
}

// Option configures an LLMAnalyzer.
type Option func(*LLMAnalyzer)

// WithPrompts sets the prompt loader.
func WithPrompts(l *prompt.Loader) Option {
	return func(a *LLMAnalyzer) {
		if l != nil {
			a.prompts = l
		}
	}
}

// WithTools runs r before the model when the request carries no tool results.
func WithTools(r *ToolRunner) Option {
	return func(a *LLMAnalyzer) { a.tools = r }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *LLMAnalyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMaxLines sets how many lines per file are sent.
func WithMaxLines(n int) Option {
	return func(a *LLMAnalyzer) {
		if n > 0 {
			a.maxLines = n
		}
	}
}

// NewLLMAnalyzer creates an analyzer backed by client.
func NewLLMAnalyzer(client llm.Client, opts ...Option) *LLMAnalyzer {
	a := &LLMAnalyzer{
		client:   client,
		prompts:  prompt.NewLoader(""),
		logger:   slog.Default(),
		maxLines: DefaultMaxLines,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze reviews every file in order. A file whose model call fails is
// logged and skipped; an answer that cannot be decoded yields a placeholder
// finding. Tool results are attached to every finding. When no file yields
// a finding the error wraps ErrAllFilesFailed and joins the per-file errors.
func (a *LLMAnalyzer) Analyze(ctx context.Context, req Request) ([]workflow.Finding, error) {
	if len(req.Files) == 0 {
		return nil, ErrNoFiles
	}
	tools := req.Tools
	if len(tools) == 0 && a.tools != nil {
		tools = a.tools.Run(ctx, req.RepositoryPath)
	}

	var (
		findings []workflow.Finding
		errs     []error
	)
	for _, file := range req.Files {
		if err := ctx.Err(); err != nil {
			return findings, err
		}
		f, err := a.reviewFile(ctx, file, req.Focus, tools)
		if err != nil {
			a.logger.Error("file review failed", "file", file.Path, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", file.Path, err))
			continue
		}
		a.logger.Info("file reviewed", "file", file.Path, "score", f.Score, "issues", len(f.Issues))
		findings = append(findings, f)
	}

	if len(findings) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrAllFilesFailed, errors.Join(errs...))
	}
	return findings, nil
}

func (a *LLMAnalyzer) reviewFile(ctx context.Context, file SourceFile, focus workflow.Focus, tools []workflow.ToolResult) (workflow.Finding, error) {
	totalLines := strings.Count(file.Content, "\n") + 1
	system, err := a.prompts.LoadWithVars(prompt.ReviewFile, map[string]any{
		"File":       file.Path,
		"Focus":      string(focus),
		"Language":   Language(file.Path),
		"TotalLines": totalLines,
		"Tools":      tools,
	})
	if err != nil {
		return workflow.Finding{}, err
	}

	user := prompt.NewBuilder().
		Add("Review with line numbers:").
		AddNumbered(file.Content, a.maxLines).
		Build()

	resp, err := a.client.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: system,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: user}},
	})
	if err != nil {
		return workflow.Finding{}, err
	}

	finding, ok := DecodeFinding(resp.Content, file.Path)
	if !ok {
		a.logger.Warn("model answer not decodable, using placeholder finding", "file", file.Path)
	}
	if finding.TotalLines == 0 {
		finding.TotalLines = totalLines
	}
	finding.Tools = append([]workflow.ToolResult(nil), tools...)
	return finding, nil
}
