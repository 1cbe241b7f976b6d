package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/randalmurphal/reviewflow/git"
)

// workspaceAlphabet keeps directory names lowercase and shell-safe.
const workspaceAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Cloner is the subset of git.Client the Fetcher needs.
type Cloner interface {
	Clone(ctx context.Context, repoURL, dest string, depth int) error
}

// Fetcher clones repositories into per-run directories below a workspace root.
type Fetcher struct {
	root   string
	git    Cloner
	logger *slog.Logger
	newID  func() (string, error)
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithGit sets the cloner (default git.NewClient()).
func WithGit(c Cloner) FetcherOption {
	return func(f *Fetcher) {
		if c != nil {
			f.git = c
		}
	}
}

// WithFetcherLogger sets the logger.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFetcher creates a Fetcher rooted at root. An empty root uses
// os.TempDir()/reviewflow.
func NewFetcher(root string, opts ...FetcherOption) *Fetcher {
	if root == "" {
		root = filepath.Join(os.TempDir(), "reviewflow")
	}
	f := &Fetcher{
		root:   root,
		git:    git.NewClient(),
		logger: slog.Default(),
		newID: func() (string, error) {
			return gonanoid.Generate(workspaceAlphabet, 12)
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Root returns the workspace root.
func (f *Fetcher) Root() string {
	return f.root
}

// Clone clones url and returns the checkout path. An empty destination
// allocates <root>/<nanoid>. A destination this call created is removed
// again when the clone fails.
func (f *Fetcher) Clone(ctx context.Context, url, destination string, depth int) (string, error) {
	if destination == "" {
		id, err := f.newID()
		if err != nil {
			return "", fmt.Errorf("allocate workspace: %w", err)
		}
		destination = filepath.Join(f.root, id)
	}

	_, statErr := os.Stat(destination)
	created := errors.Is(statErr, os.ErrNotExist)

	if err := f.git.Clone(ctx, url, destination, depth); err != nil {
		if created {
			if rmErr := os.RemoveAll(destination); rmErr != nil {
				f.logger.Warn("failed to remove workspace after clone failure", "path", destination, "error", rmErr)
			} else {
				f.logger.Info("removed workspace after clone failure", "path", destination)
			}
		}
		return "", fmt.Errorf("clone %s: %w", url, err)
	}

	f.logger.Info("repository cloned", "url", url, "path", destination)
	return destination, nil
}

// Remove deletes a checkout. Only paths strictly below the workspace root
// are accepted.
func (f *Fetcher) Remove(path string) error {
	root, err := filepath.Abs(f.root)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("%w: %s", ErrOutsideWorkspace, path)
	}
	return os.RemoveAll(abs)
}
