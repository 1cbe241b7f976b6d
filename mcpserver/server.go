// Package mcpserver exposes review runs as MCP tools so an assistant can
// start a review, check on it, and answer its questions.
package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/randalmurphal/reviewflow/workflow"
)

// Version is reported to MCP clients.
var Version = "dev"

// Runner starts and continues review runs. *reviewflow.Reviewer satisfies it.
type Runner interface {
	Start(ctx context.Context, requestText, requesterID, channel string) (workflow.State, error)
	Resume(ctx context.Context, runID, input string) (workflow.State, error)
	Continue(ctx context.Context, runID string) (workflow.State, error)
}

// Runs reads persisted runs. *store.SQLite satisfies it.
type Runs interface {
	Resolve(ctx context.Context, prefix string) (string, error)
	Load(ctx context.Context, runID string) (workflow.State, error)
}

// Options configures New.
type Options struct {
	// Channel receives chat updates for runs started over MCP.
	Channel string

	// Requester identifies the MCP client in tickets; defaults to "mcp".
	Requester string
}

// New creates the MCP server with every review tool registered.
func New(runner Runner, runs Runs, opts Options) *server.MCPServer {
	if opts.Requester == "" {
		opts.Requester = "mcp"
	}

	s := server.NewMCPServer(
		"reviewflow",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	review := NewReviewTool(runner, opts)
	s.AddTool(review.Definition(), review.Handle)

	status := NewStatusTool(runs)
	s.AddTool(status.Definition(), status.Handle)

	resume := NewResumeTool(runner, runs)
	s.AddTool(resume.Definition(), resume.Handle)

	return s
}

// Serve runs s over stdio until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

const instructions = `reviewflow reviews GitHub and GitLab repositories with a language model.

Call review_repository with a request that names the repository URL and,
optionally, a focus (security, performance, quality). When the result says
the run is awaiting input, ask the user for a repository URL and pass it to
resume_review. Use review_status to re-read a run's outcome.`
