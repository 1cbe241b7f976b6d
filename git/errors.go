package git

import "errors"

// Git operation errors.
var (
	// ErrNotGitRepo indicates the path is not a git repository.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrDestinationExists indicates the clone destination is a non-empty directory.
	ErrDestinationExists = errors.New("clone destination already exists")

	// ErrURLRequired indicates an empty repository URL.
	ErrURLRequired = errors.New("repository URL is required")
)

// Error wraps a git command error with context.
type Error struct {
	Op     string // Operation that failed (e.g., "clone", "rev-parse")
	Cmd    string // Git command that was run, credentials redacted
	Output string // Combined stdout/stderr output
	Err    error  // Underlying error
}

func (e *Error) Error() string {
	if e.Output != "" {
		return e.Op + ": " + e.Output
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
