package reviewflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/randalmurphal/reviewflow/workflow"
)

// CreateTicketNode opens the tracking ticket and posts the initial comment.
//
// Updates: state.TicketID, state.TicketCreated
func (s *Services) CreateTicketNode(ctx context.Context, state workflow.State) (workflow.State, error) {
	if !state.RepositoryIsValid {
		return state, fmt.Errorf("%w: cannot open a ticket for an unvalidated repository", ErrInvalidRepository)
	}

	tctx, cancel := bounded(ctx, s.Timeouts.Ticket)
	id, err := s.Tickets.CreateTicket(tctx, ticketFields(state))
	cancel()
	if err != nil {
		return state, fmt.Errorf("create ticket: %w", err)
	}
	state.TicketID = id
	state.TicketCreated = true
	s.logger().Info("ticket created", "run_id", state.RunID, "ticket", id)

	if err := s.comment(ctx, id, initialTicketComment(state)); err != nil {
		s.logger().Warn("initial ticket comment failed", "ticket", id, "error", err)
	}
	return state, nil
}

// MarkInProgressNode moves the ticket to an in-progress status. A ticket
// workflow without a matching transition is not an error.
//
// Updates: state.ReviewStarted
func (s *Services) MarkInProgressNode(ctx context.Context, state workflow.State) (workflow.State, error) {
	if state.TicketID == "" {
		return state, ErrNoTicket
	}
	err := s.transition(ctx, state.TicketID, inProgressTransitions)
	if errors.Is(err, ErrNoMatchingTransition) {
		s.logger().Info("no in-progress transition available", "ticket", state.TicketID)
		err = nil
	}
	if err != nil {
		return state, fmt.Errorf("mark in progress: %w", err)
	}
	state.ReviewStarted = true
	return state, nil
}

// PublishTicketNode posts the review to the ticket: summary, critical and
// high issues, line-by-line analysis, the JSON report attachment with its
// quick stats, then the done transition. Every part is attempted; failures
// are joined.
//
// Updates: state.TicketUpdated
func (s *Services) PublishTicketNode(ctx context.Context, state workflow.State) (workflow.State, error) {
	if state.TicketID == "" {
		return state, ErrNoTicket
	}
	if state.Report == nil {
		return state, fmt.Errorf("publish ticket: %w", ErrNoFindings)
	}
	id, report := state.TicketID, state.Report

	var errs []error
	post := func(what, text string) {
		if err := s.comment(ctx, id, text); err != nil {
			errs = append(errs, fmt.Errorf("%s comment: %w", what, err))
		}
	}

	post("summary", summaryTicketComment(state))
	if len(report.CriticalIssues) > 0 {
		post("critical issues", issuesTicketComment("CRITICAL ISSUES - MUST FIX", report.CriticalIssues))
	}
	if len(report.HighPriorityIssues) > 0 {
		post("high priority issues", issuesTicketComment("HIGH PRIORITY ISSUES - SHOULD FIX", report.HighPriorityIssues))
	}
	if len(report.DetailedLineByLine) > 0 {
		post("line-by-line", lineByLineTicketComment(report))
	}

	if name, content, err := s.reportArtifact(ctx, state); err != nil {
		errs = append(errs, err)
	} else if err := s.attach(ctx, id, name, content); err != nil {
		errs = append(errs, fmt.Errorf("attach report: %w", err))
	} else {
		post("quick stats", quickStatsTicketComment(name, report))
	}

	if err := s.transition(ctx, id, doneTransitions); err != nil {
		if errors.Is(err, ErrNoMatchingTransition) {
			s.logger().Info("no done transition available", "ticket", id)
		} else {
			errs = append(errs, fmt.Errorf("close ticket: %w", err))
		}
	}

	state.TicketUpdated = true
	if err := errors.Join(errs...); err != nil {
		return state, fmt.Errorf("publish ticket: %w", err)
	}
	s.logger().Info("ticket updated", "run_id", state.RunID, "ticket", id)
	return state, nil
}

func (s *Services) comment(ctx context.Context, id, text string) error {
	ctx, cancel := bounded(ctx, s.Timeouts.Ticket)
	defer cancel()
	return s.Tickets.AddComment(ctx, id, text)
}

func (s *Services) attach(ctx context.Context, id, name string, content []byte) error {
	ctx, cancel := bounded(ctx, s.Timeouts.Ticket)
	defer cancel()
	return s.Tickets.AddAttachment(ctx, id, name, content)
}
