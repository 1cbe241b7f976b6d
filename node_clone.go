package reviewflow

import (
	"context"
	"fmt"

	"github.com/randalmurphal/reviewflow/workflow"
)

// CloneRepositoryNode clones the repository into a fresh workspace and
// lists the files to review. A checkout without reviewable files is
// removed again so a resumed run clones afresh.
//
// Updates: state.LocalRepositoryPath, state.FilesToReview
func (s *Services) CloneRepositoryNode(ctx context.Context, state workflow.State) (workflow.State, error) {
	cctx, cancel := bounded(ctx, s.Timeouts.Clone)
	path, err := s.Fetcher.Clone(cctx, state.RepositoryRef, "", s.cloneDepth())
	cancel()
	if err != nil {
		return state, fmt.Errorf("clone %s: %w", state.RepositoryRef, err)
	}

	files, err := s.discover(path)
	if err == nil && len(files) == 0 {
		err = ErrNoFiles
	}
	if err != nil {
		s.removeWorkspace(path)
		return state, fmt.Errorf("discover files: %w", err)
	}

	state.LocalRepositoryPath = path
	state.FilesToReview = files
	s.logger().Info("repository cloned", "run_id", state.RunID, "path", path, "files", len(files))

	s.announceClone(ctx, state)
	return state, nil
}

// announceClone posts best-effort progress to the ticket and thread.
func (s *Services) announceClone(ctx context.Context, state workflow.State) {
	if state.TicketID != "" {
		if err := s.comment(ctx, state.TicketID, cloneTicketComment(state)); err != nil {
			s.logger().Warn("clone progress comment failed", "ticket", state.TicketID, "error", err)
		}
	}
	if s.Chat != nil && state.ChatThreadRef != "" {
		if _, err := s.post(ctx, state.ChatChannel, cloneChatMessage(state), state.ChatThreadRef); err != nil {
			s.logger().Warn("clone progress message failed", "channel", state.ChatChannel, "error", err)
		}
	}
}

func (s *Services) removeWorkspace(path string) {
	if s.Cleanup == nil || path == "" {
		return
	}
	if err := s.Cleanup(path); err != nil {
		s.logger().Warn("workspace cleanup failed", "path", path, "error", err)
	}
}
