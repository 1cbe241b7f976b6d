package reviewflow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/randalmurphal/reviewflow/notify"
	"github.com/randalmurphal/reviewflow/store"
	"github.com/randalmurphal/reviewflow/workflow"
)

func TestReviewer_EndToEnd(t *testing.T) {
	defer goleak.VerifyNone(t)

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	s, tickets, chat := reviewFixture(t)
	var cleaned string
	s.Cleanup = func(path string) error { cleaned = path; return nil }

	reviewer, err := NewReviewer(s, st, workflow.WithNotifier(st))
	require.NoError(t, err)

	ctx := context.Background()
	state, err := reviewer.Start(ctx, "Please review https://github.com/acme/api", "U42", "C-reviews")
	require.NoError(t, err)

	assert.Equal(t, workflow.StatusCompleted, state.Status)
	assert.Equal(t, 80, state.Score)
	assert.Len(t, state.CriticalIssues, 1)
	assert.Len(t, state.HighPriorityIssues, 1)
	assert.Equal(t, workflow.FocusGeneral, state.ReviewFocus)
	assert.Equal(t, []string{"app.py", "lib/util.go", "web/main.js"}, state.FilesToReview)
	assert.Empty(t, state.LastError)
	assert.Equal(t, state.LocalRepositoryPath, cleaned)

	// Ticket: created once, summary posted, report attached.
	require.Len(t, tickets.created, 1)
	assert.Equal(t, "AI Code Review: api", tickets.created[0].Summary)
	assert.Equal(t, []string{"code_review_REV-1.json"}, tickets.attachments["REV-1"])
	assert.True(t, containsText(tickets.comments["REV-1"], "**Overall Score:** 80/100"))
	assert.Equal(t, []string{"21", "31"}, tickets.applied)

	// Chat: every message after the first is in the thread.
	require.NotEmpty(t, chat.messages)
	thread := state.ChatThreadRef
	for _, m := range chat.messages[1:] {
		assert.Equal(t, thread, m.Thread, "message %q", m.Text)
	}
	require.Len(t, chat.uploads, 1)
	assert.Equal(t, "code_review_REV-1.json", chat.uploads[0].Text)
	assert.True(t, containsText(textsOf(chat.messages), "*Overall Score:* 80/100"))

	// Persistence: final state and one step_started event per step.
	stored, err := st.Load(ctx, state.RunID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, stored.Status)
	assert.Equal(t, 80, stored.Score)

	events, err := st.Events(ctx, state.RunID)
	require.NoError(t, err)
	started := 0
	for _, e := range events {
		if e.Type == notify.EventStepStarted {
			started++
		}
	}
	assert.Equal(t, len(workflow.Steps()), started)
}

func TestReviewer_SuspendAndResume(t *testing.T) {
	st := newMemoryStore()
	s, tickets, _ := reviewFixture(t)
	reviewer, err := NewReviewer(s, st)
	require.NoError(t, err)
	ctx := context.Background()

	state, err := reviewer.Start(ctx, "can you look at my code?", "U1", "C1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusAwaitingInput, state.Status)
	assert.True(t, state.NeedsRepositoryInput)
	assert.Empty(t, tickets.created)

	// An unsupported host is not a repository reference either.
	state, err = reviewer.Resume(ctx, state.RunID, "https://bitbucket.org/acme/api")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusAwaitingInput, state.Status)

	state, err = reviewer.Resume(ctx, state.RunID, "sure: https://gitlab.com/acme/api, focus on security")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, state.Status)
	assert.Equal(t, "https://gitlab.com/acme/api", state.RepositoryRef)
	assert.Equal(t, workflow.FocusSecurity, state.ReviewFocus)
	assert.Len(t, tickets.created, 1)

	_, err = reviewer.Resume(ctx, state.RunID, "again")
	assert.ErrorIs(t, err, workflow.ErrRunCompleted)
}

func TestReviewer_EmptyResumeInput(t *testing.T) {
	st := newMemoryStore()
	s, _, _ := reviewFixture(t)
	reviewer, err := NewReviewer(s, st)
	require.NoError(t, err)

	state, err := reviewer.Start(context.Background(), "hello", "U1", "C1")
	require.NoError(t, err)

	_, err = reviewer.Resume(context.Background(), state.RunID, "   ")
	assert.ErrorIs(t, err, workflow.ErrEmptyInput)
}

func TestReviewer_ContinueAfterRequiredFailure(t *testing.T) {
	st := newMemoryStore()
	s, tickets, _ := reviewFixture(t)
	analyzer := s.Analyzer.(*scriptedAnalyzer)
	fetcher := s.Fetcher.(*fakeFetcher)
	analyzer.err = errors.New("model overloaded")

	reviewer, err := NewReviewer(s, st)
	require.NoError(t, err)
	ctx := context.Background()

	state, err := reviewer.Start(ctx, "review https://github.com/acme/api", "U1", "C1")
	require.Error(t, err)
	step, ok := workflow.FailedStep(err)
	require.True(t, ok)
	assert.Equal(t, workflow.StepAnalyze, step)
	assert.Equal(t, workflow.StatusFailed, state.Status)
	assert.Contains(t, state.LastError, "model overloaded")

	stored, err := st.Load(ctx, state.RunID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusFailed, stored.Status)
	assert.True(t, stored.TicketCreated)

	analyzer.err = nil
	state, err = reviewer.Continue(ctx, state.RunID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, state.Status)
	assert.Equal(t, 1, fetcher.calls, "checkout should be reused")
	assert.Len(t, tickets.created, 1, "ticket should not be recreated")

	_, err = reviewer.Continue(ctx, state.RunID)
	assert.ErrorIs(t, err, workflow.ErrRunCompleted)
}

func TestReviewer_BestEffortChatFailure(t *testing.T) {
	s, tickets, chat := reviewFixture(t)
	chat.postErr = errors.New("channel_not_found")
	reviewer, err := NewReviewer(s, nil)
	require.NoError(t, err)

	state, err := reviewer.Start(context.Background(), "review https://github.com/acme/api", "U1", "C1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, state.Status)
	assert.True(t, state.ChatStarted)
	assert.True(t, state.ChatUpdated)
	assert.Contains(t, state.LastError, "channel_not_found")
	assert.Equal(t, []string{"code_review_REV-1.json"}, tickets.attachments["REV-1"])
}

func TestReviewer_NoStore(t *testing.T) {
	s, _, _ := reviewFixture(t)
	reviewer, err := NewReviewer(s, nil)
	require.NoError(t, err)

	_, err = reviewer.Resume(context.Background(), "01J", "https://github.com/acme/api")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func containsText(texts []string, want string) bool {
	for _, s := range texts {
		if strings.Contains(s, want) {
			return true
		}
	}
	return false
}

func textsOf(msgs []chatMessage) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}
