package reviewflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/randalmurphal/reviewflow/workflow"
)

// StartChatNode announces the review in the chat channel and keeps the
// message reference as the thread for every later update.
//
// Updates: state.ChatThreadRef, state.ChatStarted
func (s *Services) StartChatNode(ctx context.Context, state workflow.State) (workflow.State, error) {
	if s.Chat == nil {
		return state, notConfigured("chat")
	}
	if state.ChatChannel == "" {
		return state, fmt.Errorf("start chat: %w", notConfigured("chat channel"))
	}

	ref, err := s.post(ctx, state.ChatChannel, chatStartMessage(state), "")
	if err != nil {
		return state, fmt.Errorf("start chat: %w", err)
	}
	state.ChatThreadRef = ref
	state.ChatStarted = true

	if _, err := s.post(ctx, state.ChatChannel, chatProgressMessage, ref); err != nil {
		s.logger().Warn("chat progress reply failed", "channel", state.ChatChannel, "error", err)
	}
	return state, nil
}

// PublishChatNode posts the results into the review thread: summary, top
// critical and high issues, strengths and improvements, then the JSON
// report as a file. Without a thread the summary starts one.
//
// Updates: state.ChatUpdated
func (s *Services) PublishChatNode(ctx context.Context, state workflow.State) (workflow.State, error) {
	if s.Chat == nil {
		return state, notConfigured("chat")
	}
	if state.ChatChannel == "" {
		return state, fmt.Errorf("publish chat: %w", notConfigured("chat channel"))
	}
	if state.Report == nil {
		return state, fmt.Errorf("publish chat: %w", ErrNoFindings)
	}
	channel, report := state.ChatChannel, state.Report

	ref, err := s.post(ctx, channel, summaryChatMessage(state), state.ChatThreadRef)
	if err != nil {
		return state, fmt.Errorf("publish chat summary: %w", err)
	}
	thread := state.ChatThreadRef
	if thread == "" {
		thread = ref
	}

	var errs []error
	send := func(what, text string) {
		if text == "" {
			return
		}
		if _, err := s.post(ctx, channel, text, thread); err != nil {
			errs = append(errs, fmt.Errorf("%s message: %w", what, err))
		}
	}
	if len(report.CriticalIssues) > 0 {
		send("critical issues", issuesChatMessage("CRITICAL ISSUES - MUST FIX:", report.CriticalIssues))
	}
	if len(report.HighPriorityIssues) > 0 {
		send("high priority issues", issuesChatMessage("HIGH PRIORITY ISSUES - SHOULD FIX:", report.HighPriorityIssues))
	}
	send("strengths", strengthsChatMessage(report))

	if name, content, err := s.reportArtifact(ctx, state); err != nil {
		errs = append(errs, err)
	} else if err := s.upload(ctx, channel, content, name, thread); err != nil {
		errs = append(errs, fmt.Errorf("upload report: %w", err))
	} else {
		send("report", reportChatMessage(name, state))
	}

	state.ChatUpdated = true
	if err := errors.Join(errs...); err != nil {
		return state, fmt.Errorf("publish chat: %w", err)
	}
	s.logger().Info("chat updated", "run_id", state.RunID, "channel", channel)
	return state, nil
}

func (s *Services) post(ctx context.Context, channel, text, thread string) (string, error) {
	ctx, cancel := bounded(ctx, s.Timeouts.Chat)
	defer cancel()
	return s.Chat.PostMessage(ctx, channel, text, thread)
}

func (s *Services) upload(ctx context.Context, channel string, content []byte, name, thread string) error {
	ctx, cancel := bounded(ctx, s.Timeouts.Chat)
	defer cancel()
	return s.Chat.UploadFile(ctx, channel, content, name, thread)
}
