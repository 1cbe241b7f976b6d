package repo

import "errors"

// Repository errors.
var (
	// ErrInvalidURL indicates a repository URL that cannot be parsed.
	ErrInvalidURL = errors.New("invalid repository URL")

	// ErrUnknownPlatform indicates the URL is not on a supported host.
	ErrUnknownPlatform = errors.New("unknown repository platform")

	// ErrNotFound indicates the hosting API reports no such repository.
	ErrNotFound = errors.New("repository not found")

	// ErrOutsideWorkspace indicates a path outside the fetcher's workspace root.
	ErrOutsideWorkspace = errors.New("path is outside the workspace root")
)
