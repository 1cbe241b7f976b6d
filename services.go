package reviewflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/randalmurphal/reviewflow/analyzer"
	"github.com/randalmurphal/reviewflow/intent"
	"github.com/randalmurphal/reviewflow/repo"
	"github.com/randalmurphal/reviewflow/workflow"
)

// =============================================================================
// Collaborator Interfaces
// =============================================================================

// Intent is the parsed form of a review request.
type Intent = intent.Intent

// AnalysisRequest is the input to an Analyzer.
type AnalysisRequest = analyzer.Request

// SourceFile is one file handed to an Analyzer.
type SourceFile = analyzer.SourceFile

// TicketFields describes a new review ticket.
type TicketFields struct {
	Summary       string
	Description   string // Markdown
	Labels        []string
	RepositoryURL string
}

// Transition is a workflow transition available on a ticket.
type Transition struct {
	ID   string
	Name string
}

// TicketClient is the ticketing system.
type TicketClient interface {
	CreateTicket(ctx context.Context, fields TicketFields) (string, error)
	AddComment(ctx context.Context, id, text string) error
	ListTransitions(ctx context.Context, id string) ([]Transition, error)
	ApplyTransition(ctx context.Context, id, transitionID string) error
	AddAttachment(ctx context.Context, id, filename string, content []byte) error
}

// ChatClient is the team chat. PostMessage returns the reference of the
// posted message, which doubles as the thread reference for replies.
type ChatClient interface {
	PostMessage(ctx context.Context, channel, text, threadRef string) (string, error)
	UploadFile(ctx context.Context, channel string, content []byte, filename, threadRef string) error
}

// RepositoryFetcher clones a repository. An empty destination lets the
// fetcher choose one; the actual path is returned.
type RepositoryFetcher interface {
	Clone(ctx context.Context, url, destination string, depth int) (string, error)
}

// RepositoryHost looks up repository metadata on the hosting service.
type RepositoryHost interface {
	Lookup(ctx context.Context, rawURL string) (repo.Info, error)
}

// Analyzer reviews source files.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalysisRequest) ([]workflow.Finding, error)
}

// FilePrioritizer narrows a file list down to at most maxFiles entries.
type FilePrioritizer interface {
	Prioritize(ctx context.Context, files []string, focus workflow.Focus, maxFiles int) []string
}

// ToolRunner runs external tools in a checkout.
type ToolRunner interface {
	Run(ctx context.Context, dir string) []workflow.ToolResult
}

// RequestParser extracts the repository and focus from request text.
type RequestParser interface {
	Parse(ctx context.Context, text string) (Intent, error)
}

// ArtifactWriter persists the JSON report and returns its file name and
// content for attachment.
type ArtifactWriter interface {
	WriteReport(ctx context.Context, ticketID string, report *workflow.Report) (name string, content []byte, err error)
}

// =============================================================================
// Services
// =============================================================================

// Timeouts bounds each kind of external call. Zero disables the bound.
type Timeouts struct {
	Ticket time.Duration
	Chat   time.Duration
	Clone  time.Duration
	LLM    time.Duration
}

// DefaultTimeouts returns the timeouts used when none are configured.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Ticket: 30 * time.Second,
		Chat:   15 * time.Second,
		Clone:  5 * time.Minute,
		LLM:    10 * time.Minute,
	}
}

// Services holds every collaborator the steps use. Parser, Tickets, Fetcher
// and Analyzer are required; the rest are optional.
type Services struct {
	Parser   RequestParser
	Hosting  RepositoryHost
	Tickets  TicketClient
	Chat     ChatClient
	Fetcher  RepositoryFetcher
	Analyzer Analyzer

	Prioritizer FilePrioritizer
	Tools       ToolRunner
	Artifacts   ArtifactWriter

	// Discover lists reviewable files under a checkout. Defaults to
	// repo.Discover with its default options.
	Discover func(root string) ([]string, error)

	// Cleanup removes the checkout once a run completes.
	Cleanup func(path string) error

	// MaxFiles caps the files reviewed per run. When discovery finds more,
	// the Prioritizer picks which. Zero reviews every discovered file.
	MaxFiles int

	// CloneDepth is passed to the fetcher. Defaults to 1.
	CloneDepth int

	Timeouts Timeouts
	Logger   *slog.Logger
	Now      func() time.Time
}

// validate checks the required collaborators.
func (s *Services) validate() error {
	var missing []string
	if s.Parser == nil {
		missing = append(missing, "Parser")
	}
	if s.Tickets == nil {
		missing = append(missing, "Tickets")
	}
	if s.Fetcher == nil {
		missing = append(missing, "Fetcher")
	}
	if s.Analyzer == nil {
		missing = append(missing, "Analyzer")
	}
	if len(missing) > 0 {
		return notConfigured(missing...)
	}
	return nil
}

func (s *Services) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Services) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Services) discover(root string) ([]string, error) {
	if s.Discover != nil {
		return s.Discover(root)
	}
	return repo.Discover(root, repo.DiscoverOptions{})
}

func (s *Services) cloneDepth() int {
	if s.CloneDepth > 0 {
		return s.CloneDepth
	}
	return 1
}

// bounded derives a context limited by d; d <= 0 leaves ctx unbounded.
func bounded(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
