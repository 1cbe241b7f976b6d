package reviewflow

import (
	"context"
	"fmt"
	"strings"
)

// Transition synonyms, matched as case-insensitive substrings.
var (
	inProgressTransitions = []string{"in review", "in progress", "start progress"}
	doneTransitions       = []string{"done", "completed", "review complete", "resolved"}
)

// MatchTransition returns the first transition whose name contains one of
// synonyms. Transitions are scanned in order and each is tested against
// every synonym before moving on.
func MatchTransition(transitions []Transition, synonyms []string) (Transition, error) {
	for _, t := range transitions {
		name := strings.ToLower(t.Name)
		for _, syn := range synonyms {
			if syn != "" && strings.Contains(name, strings.ToLower(syn)) {
				return t, nil
			}
		}
	}
	return Transition{}, fmt.Errorf("%w: want one of %q", ErrNoMatchingTransition, synonyms)
}

// transition moves ticket id along the first transition matching synonyms.
func (s *Services) transition(ctx context.Context, id string, synonyms []string) error {
	ctx, cancel := bounded(ctx, s.Timeouts.Ticket)
	defer cancel()

	available, err := s.Tickets.ListTransitions(ctx, id)
	if err != nil {
		return fmt.Errorf("list transitions: %w", err)
	}
	t, err := MatchTransition(available, synonyms)
	if err != nil {
		return err
	}
	if err := s.Tickets.ApplyTransition(ctx, id, t.ID); err != nil {
		return fmt.Errorf("apply transition %q: %w", t.Name, err)
	}
	s.logger().Info("ticket transitioned", "ticket", id, "transition", t.Name)
	return nil
}
