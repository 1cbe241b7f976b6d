package reviewflow

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/randalmurphal/reviewflow/repo"
	"github.com/randalmurphal/reviewflow/workflow"
)

// repositoryPattern is anchored at the start only; trailing path segments
// such as /tree/main are accepted.
var repositoryPattern = regexp.MustCompile(`^https?://(github\.com|gitlab\.com)/[\w\-]+/[\w\-]+`)

// RequestRepositoryNode parses the request text into a repository reference
// and review focus.
//
// Text that was already consumed suspends the run until new text arrives.
// A request without a repository leaves NeedsRepositoryInput set.
func (s *Services) RequestRepositoryNode(ctx context.Context, state workflow.State) (workflow.State, error) {
	if state.RequestText == "" || state.RequestText == state.ConsumedRequest {
		return state, workflow.ErrAwaitingInput
	}
	state.ConsumedRequest = state.RequestText

	parsed, err := s.Parser.Parse(ctx, state.RequestText)
	if err == nil && parsed.RepositoryRef == "" {
		err = ErrNoRepository
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return state, ctxErr
		}
		state.NeedsRepositoryInput = true
		state.SetError(fmt.Errorf("parse request: %w", err))
		s.logger().Info("request names no repository", "run_id", state.RunID, "error", err)
		return state, nil
	}

	if parsed.RepositoryRef != state.RepositoryRef {
		state.RepositoryIsValid = false
	}
	state.RepositoryRef = parsed.RepositoryRef
	state.ReviewFocus = workflow.NormalizeFocus(string(parsed.Focus))
	state.NeedsRepositoryInput = false
	state.ValidationError = ""
	s.logger().Info("request parsed",
		"run_id", state.RunID, "repository", state.RepositoryRef, "focus", state.ReviewFocus, "source", parsed.Source)
	return state, nil
}

// ValidateRepositoryNode checks the reference against the supported hosts
// and, when a RepositoryHost is configured, that the repository exists.
// Failures are recorded as data and re-prompt the requester.
func (s *Services) ValidateRepositoryNode(ctx context.Context, state workflow.State) (workflow.State, error) {
	if !repositoryPattern.MatchString(state.RepositoryRef) {
		return rejectRepository(state, fmt.Sprintf("%q is not a GitHub or GitLab repository URL", state.RepositoryRef)), nil
	}

	if s.Hosting != nil {
		info, err := s.lookupRepository(ctx, state.RepositoryRef)
		switch {
		case err == nil:
			s.logger().Debug("repository found", "repository", info.FullName, "default_branch", info.DefaultBranch)
		case repo.IsNotFound(err):
			return rejectRepository(state, fmt.Sprintf("repository %s was not found or is not accessible", state.RepositoryRef)), nil
		case errors.Is(err, context.Canceled):
			return state, err
		default:
			s.logger().Warn("repository lookup failed, continuing", "repository", state.RepositoryRef, "error", err)
		}
	}

	state.RepositoryIsValid = true
	state.ValidationError = ""
	return state, nil
}

func (s *Services) lookupRepository(ctx context.Context, ref string) (repo.Info, error) {
	ctx, cancel := bounded(ctx, s.Timeouts.Ticket)
	defer cancel()
	return s.Hosting.Lookup(ctx, ref)
}

func rejectRepository(state workflow.State, reason string) workflow.State {
	state.RepositoryIsValid = false
	state.NeedsRepositoryInput = true
	state.ValidationError = reason
	state.SetError(fmt.Errorf("%w: %s", ErrInvalidRepository, reason))
	return state
}
