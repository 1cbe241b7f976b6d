package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Client runs git commands for cloning and inspecting review checkouts.
type Client struct {
	runner CommandRunner
	logger *slog.Logger
	tokens map[string]string // host -> token injected into HTTPS clone URLs
}

// Option configures Client.
type Option func(*Client)

// WithRunner sets a custom command runner for git operations.
// This is primarily used for testing to inject mock command execution.
func WithRunner(runner CommandRunner) Option {
	return func(c *Client) {
		if runner != nil {
			c.runner = runner
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithToken registers an access token for HTTPS clones from host
// (e.g. "github.com"). Empty tokens are ignored.
func WithToken(host, token string) Option {
	return func(c *Client) {
		if host != "" && token != "" {
			c.tokens[strings.ToLower(host)] = token
		}
	}
}

// NewClient creates a git client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		runner: NewExecRunner(),
		logger: slog.Default(),
		tokens: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clone clones repoURL into dest. A depth above zero makes a shallow clone
// of the default branch. dest must not exist or be an empty directory.
func (c *Client) Clone(ctx context.Context, repoURL, dest string, depth int) error {
	if strings.TrimSpace(repoURL) == "" {
		return ErrURLRequired
	}
	if err := checkDestination(dest); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create clone parent: %w", err)
	}

	authURL, err := c.authenticatedURL(repoURL)
	if err != nil {
		return &Error{Op: "clone", Err: err}
	}

	args := []string{"clone", "--quiet"}
	if depth > 0 {
		args = append(args, "--depth", strconv.Itoa(depth), "--single-branch")
	}
	args = append(args, authURL, dest)

	c.logger.Info("cloning repository", "url", repoURL, "dest", dest, "depth", depth)
	if _, err := c.runner.Run(ctx, "", "git", args...); err != nil {
		gitErr := &Error{
			Op:  "clone",
			Cmd: "git " + strings.Join(redact(args, authURL, repoURL), " "),
			Err: err,
		}
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			gitErr.Output = strings.ReplaceAll(cmdErr.Output, authURL, repoURL)
		}
		return gitErr
	}
	return nil
}

// HeadCommit returns the SHA of HEAD in dir.
func (c *Client) HeadCommit(ctx context.Context, dir string) (string, error) {
	sha, err := c.runner.Run(ctx, dir, "git", "rev-parse", "HEAD")
	if err != nil {
		return "", &Error{Op: "get HEAD commit", Cmd: "git rev-parse HEAD", Err: err}
	}
	return sha, nil
}

// CurrentBranch returns the checked-out branch name in dir.
func (c *Client) CurrentBranch(ctx context.Context, dir string) (string, error) {
	branch, err := c.runner.Run(ctx, dir, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", &Error{Op: "get current branch", Cmd: "git rev-parse --abbrev-ref HEAD", Err: err}
	}
	return branch, nil
}

// RepoRoot returns the top-level directory of the repository containing dir.
func (c *Client) RepoRoot(ctx context.Context, dir string) (string, error) {
	root, err := c.runner.Run(ctx, dir, "git", "rev-parse", "--show-toplevel")
	if err != nil {
		return "", ErrNotGitRepo
	}
	return root, nil
}

// authenticatedURL injects a registered token as the user of an HTTPS URL.
func (c *Client) authenticatedURL(repoURL string) (string, error) {
	if !strings.HasPrefix(repoURL, "https://") || len(c.tokens) == 0 {
		return repoURL, nil
	}
	u, err := url.Parse(repoURL)
	if err != nil {
		return "", fmt.Errorf("invalid repository URL: %w", err)
	}
	token, ok := c.tokens[strings.ToLower(u.Hostname())]
	if !ok {
		return repoURL, nil
	}
	if strings.Contains(u.Hostname(), "gitlab") {
		u.User = url.UserPassword("oauth2", token)
	} else {
		u.User = url.UserPassword("x-access-token", token)
	}
	return u.String(), nil
}

func checkDestination(dest string) error {
	if dest == "" {
		return errors.New("clone destination is required")
	}
	entries, err := os.ReadDir(dest)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("inspect clone destination: %w", err)
	case len(entries) > 0:
		return fmt.Errorf("%w: %s", ErrDestinationExists, dest)
	}
	return nil
}

func redact(args []string, secret, public string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if a == secret {
			a = public
		}
		out[i] = a
	}
	return out
}

// RepoName returns the repository name from a clone URL.
func RepoName(repoURL string) string {
	base := filepath.Base(strings.TrimSuffix(repoURL, "/"))
	return strings.TrimSuffix(base, ".git")
}
