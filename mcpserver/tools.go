package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/randalmurphal/reviewflow/workflow"
)

// ReviewTool handles the review_repository MCP tool.
type ReviewTool struct {
	runner Runner
	opts   Options
}

// NewReviewTool creates a ReviewTool.
func NewReviewTool(runner Runner, opts Options) *ReviewTool {
	return &ReviewTool{runner: runner, opts: opts}
}

// Definition returns the MCP tool definition for review_repository.
func (t *ReviewTool) Definition() mcp.Tool {
	return mcp.NewTool("review_repository",
		mcp.WithDescription(
			"Run an AI code review of a GitHub or GitLab repository. Opens a ticket, posts progress to chat, "+
				"and returns the score and the critical and high priority issues.",
		),
		mcp.WithString("request",
			mcp.Required(),
			mcp.Description("Free-text request naming the repository URL, e.g. 'review https://github.com/acme/api for security'"),
		),
		mcp.WithString("channel",
			mcp.Description("Chat channel for progress updates (default: configured channel)"),
		),
	)
}

// Handle processes the review_repository tool call.
func (t *ReviewTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := strings.TrimSpace(req.GetString("request", ""))
	if text == "" {
		return mcp.NewToolResultError("'request' is required"), nil
	}
	channel := req.GetString("channel", t.opts.Channel)

	state, err := t.runner.Start(ctx, text, t.opts.Requester, channel)
	return result(state, err), nil
}

// StatusTool handles the review_status MCP tool.
type StatusTool struct {
	runs Runs
}

// NewStatusTool creates a StatusTool.
func NewStatusTool(runs Runs) *StatusTool {
	return &StatusTool{runs: runs}
}

// Definition returns the MCP tool definition for review_status.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("review_status",
		mcp.WithDescription("Show the status and results of a review run."),
		mcp.WithString("run_id",
			mcp.Required(),
			mcp.Description("Run ID or a unique prefix of it"),
		),
	)
}

// Handle processes the review_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := loadRun(ctx, t.runs, req.GetString("run_id", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(Render(state)), nil
}

// ResumeTool handles the resume_review MCP tool.
type ResumeTool struct {
	runner Runner
	runs   Runs
}

// NewResumeTool creates a ResumeTool.
func NewResumeTool(runner Runner, runs Runs) *ResumeTool {
	return &ResumeTool{runner: runner, runs: runs}
}

// Definition returns the MCP tool definition for resume_review.
func (t *ResumeTool) Definition() mcp.Tool {
	return mcp.NewTool("resume_review",
		mcp.WithDescription(
			"Continue a review run. Pass 'input' to answer a run that is awaiting a repository URL; "+
				"omit it to retry a failed run from the step that failed.",
		),
		mcp.WithString("run_id",
			mcp.Required(),
			mcp.Description("Run ID or a unique prefix of it"),
		),
		mcp.WithString("input",
			mcp.Description("The requester's answer, usually a repository URL"),
		),
	)
}

// Handle processes the resume_review tool call.
func (t *ResumeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prev, err := loadRun(ctx, t.runs, req.GetString("run_id", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state workflow.State
	if input := strings.TrimSpace(req.GetString("input", "")); input != "" {
		state, err = t.runner.Resume(ctx, prev.RunID, input)
	} else {
		if prev.Status == workflow.StatusAwaitingInput {
			return mcp.NewToolResultError("run is awaiting input: pass 'input' with a repository URL"), nil
		}
		state, err = t.runner.Continue(ctx, prev.RunID)
	}
	if errors.Is(err, workflow.ErrRunCompleted) {
		return mcp.NewToolResultError(fmt.Sprintf("run %s already completed", prev.RunID)), nil
	}
	return result(state, err), nil
}

func loadRun(ctx context.Context, runs Runs, prefix string) (workflow.State, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return workflow.State{}, errors.New("'run_id' is required")
	}
	id, err := runs.Resolve(ctx, prefix)
	if err != nil {
		return workflow.State{}, fmt.Errorf("find run %q: %w", prefix, err)
	}
	return runs.Load(ctx, id)
}

// result renders a run outcome. A failed run is a tool error that still
// carries the rendered state so the client can report what happened.
func result(state workflow.State, err error) *mcp.CallToolResult {
	if err != nil && state.RunID == "" {
		return mcp.NewToolResultError(err.Error())
	}
	text := Render(state)
	if err != nil {
		return mcp.NewToolResultError(text + "\n\nError: " + err.Error())
	}
	return mcp.NewToolResultText(text)
}
