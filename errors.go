package reviewflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/randalmurphal/reviewflow/intent"
)

// Step errors. ErrAwaitingInput lives in the workflow package.
var (
	// ErrNoRepository means the request named no repository.
	ErrNoRepository = intent.ErrNoRepository

	// ErrInvalidRepository means the reference is not a supported
	// repository URL or the host does not know it.
	ErrInvalidRepository = errors.New("invalid repository reference")

	// ErrNoFiles means the checkout contains nothing to review.
	ErrNoFiles = errors.New("no reviewable files found")

	// ErrNoFindings means synthesis was asked to aggregate nothing.
	ErrNoFindings = errors.New("no findings to synthesize")

	// ErrNoTicket means a step needs a ticket that was never created.
	ErrNoTicket = errors.New("no ticket")

	// ErrNoMatchingTransition means no ticket transition matched the
	// wanted status.
	ErrNoMatchingTransition = errors.New("no matching transition")

	// ErrNotConfigured means a collaborator a step needs is absent.
	ErrNotConfigured = errors.New("not configured")
)

func notConfigured(what ...string) error {
	return fmt.Errorf("%w: %s", ErrNotConfigured, strings.Join(what, ", "))
}
