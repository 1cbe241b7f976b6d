package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/randalmurphal/reviewflow/notify"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =============================================================================
// Helpers
// =============================================================================

type recorder struct {
	mu     sync.Mutex
	steps  []Step
	events []notify.EventType
}

func (r *recorder) observe(step Step, _, _ State, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, step)
}

func (r *recorder) Notify(_ context.Context, e notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e.Type)
	return nil
}

func (r *recorder) count(step Step) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.steps {
		if s == step {
			n++
		}
	}
	return n
}

func newTestEngine(t *testing.T, steps map[Step]StepFunc, opts ...Option) (*Engine, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts = append([]Option{WithObserver(rec.observe), WithNotifier(rec)}, opts...)
	e, err := NewEngine(steps, opts...)
	require.NoError(t, err)
	return e, rec
}

func withStep(step Step, fn StepFunc) map[Step]StepFunc {
	steps := SimulatedSteps()
	steps[step] = fn
	return steps
}

const validRequest = "please review https://github.com/acme/widget"

// =============================================================================
// Construction
// =============================================================================

func TestNewEngine_MissingStep(t *testing.T) {
	steps := SimulatedSteps()
	delete(steps, StepAnalyze)
	delete(steps, StepPublishChat)

	_, err := NewEngine(steps)
	require.ErrorIs(t, err, ErrStepMissing)
	assert.Contains(t, err.Error(), "analyze")
	assert.Contains(t, err.Error(), "publish_chat")
}

func TestNewEngine_DefaultCeiling(t *testing.T) {
	e, err := NewEngine(SimulatedSteps(), WithMaxIterations(0))
	require.NoError(t, err)
	assert.Equal(t, len(Steps())+5, e.MaxIterations())
}

// =============================================================================
// Run
// =============================================================================

func TestRun_HappyPathVisitsEveryStepOnce(t *testing.T) {
	e, rec := newTestEngine(t, SimulatedSteps())

	out, err := e.Run(context.Background(), NewState(validRequest, "U1", "#reviews"))
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, out.Status)
	assert.Equal(t, Steps(), rec.steps, "each step exactly once, in routing order")
	assert.Len(t, rec.steps, 10)
	assert.Equal(t, StepTerminal, Route(out))
	assert.Empty(t, out.LastError)
	assert.Equal(t, notify.EventRunStarted, rec.events[0])
	assert.Equal(t, notify.EventRunCompleted, rec.events[len(rec.events)-1])
}

func TestRun_RestartOnCompletedStateDoesNothing(t *testing.T) {
	e, rec := newTestEngine(t, SimulatedSteps())
	out, err := e.Run(context.Background(), NewState(validRequest, "U1", "#c"))
	require.NoError(t, err)
	rec.steps = nil

	again, err := e.Run(context.Background(), out)
	require.NoError(t, err)
	assert.Empty(t, rec.steps)
	assert.Equal(t, StatusCompleted, again.Status)
}

func TestRun_SuspendsWithoutReference(t *testing.T) {
	e, rec := newTestEngine(t, SimulatedSteps())

	out, err := e.Run(context.Background(), NewState("can you look at my code?", "U1", "#c"))
	require.NoError(t, err)
	assert.Equal(t, StatusAwaitingInput, out.Status)
	assert.True(t, out.NeedsRepositoryInput)
	assert.Equal(t, []Step{StepRequestRepository}, rec.steps)
	assert.Contains(t, rec.events, notify.EventRunSuspended)

	out, err = e.Resume(context.Background(), out, "https://github.com/acme/widget")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, out.Status)
	assert.Equal(t, "https://github.com/acme/widget", out.RepositoryRef)
}

func TestRun_InvalidReferenceReprompts(t *testing.T) {
	e, rec := newTestEngine(t, SimulatedSteps())

	out, err := e.Run(context.Background(), NewState("https://bitbucket.org/a/b", "U1", "#c"))
	require.NoError(t, err)
	assert.Equal(t, StatusAwaitingInput, out.Status)
	assert.False(t, out.RepositoryIsValid)
	assert.NotEmpty(t, out.ValidationError)
	assert.Equal(t, []Step{StepRequestRepository, StepValidateRepository, StepRequestRepository}, rec.steps)

	out, err = e.Resume(context.Background(), out, "https://github.com/acme/widget")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, out.Status)
	assert.Empty(t, out.ValidationError)
}

func TestResume_Errors(t *testing.T) {
	e, _ := newTestEngine(t, SimulatedSteps())

	_, err := e.Resume(context.Background(), NewState("", "U1", "#c"), "   ")
	assert.ErrorIs(t, err, ErrEmptyInput)

	done, err := e.Run(context.Background(), NewState(validRequest, "U1", "#c"))
	require.NoError(t, err)
	_, err = e.Resume(context.Background(), done, "https://github.com/other/repo")
	assert.ErrorIs(t, err, ErrRunCompleted)
}

func TestRun_BestEffortFailureContinues(t *testing.T) {
	for _, step := range []Step{StepStartChat, StepMarkInProgress, StepPublishTicket, StepPublishChat} {
		t.Run(string(step), func(t *testing.T) {
			boom := errors.New("chat service unavailable")
			e, rec := newTestEngine(t, withStep(step, func(_ context.Context, s State) (State, error) {
				return s, boom
			}))

			out, err := e.Run(context.Background(), NewState(validRequest, "U1", "#c"))
			require.NoError(t, err)
			assert.Equal(t, StatusCompleted, out.Status)
			assert.Equal(t, boom.Error(), out.LastError)
			assert.True(t, out.Done(step))
			assert.Equal(t, 1, rec.count(step))
			assert.Contains(t, rec.events, notify.EventStepDegraded)
		})
	}
}

func TestRun_RequiredFailureHaltsAndResumes(t *testing.T) {
	boom := errors.New("clone refused")
	failing, rec := newTestEngine(t, withStep(StepCloneRepository, func(_ context.Context, s State) (State, error) {
		return s, boom
	}))

	out, err := failing.Run(context.Background(), NewState(validRequest, "U1", "#c"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStepFailed)
	assert.ErrorIs(t, err, boom)
	step, ok := FailedStep(err)
	require.True(t, ok)
	assert.Equal(t, StepCloneRepository, step)

	assert.Equal(t, StatusFailed, out.Status)
	assert.Empty(t, out.LocalRepositoryPath)
	assert.Contains(t, out.LastError, "clone refused")
	assert.Equal(t, StepCloneRepository, Route(out), "re-running routes to the failed step")
	assert.Equal(t, notify.EventRunFailed, rec.events[len(rec.events)-1])

	healthy, rec2 := newTestEngine(t, SimulatedSteps())
	out, err = healthy.Run(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, out.Status)
	assert.Equal(t, 0, rec2.count(StepCreateTicket), "completed steps are not repeated")
	assert.Equal(t, 1, rec2.count(StepCloneRepository))
}

func TestRun_FlagResetIsFatal(t *testing.T) {
	e, _ := newTestEngine(t, withStep(StepAnalyze, func(_ context.Context, s State) (State, error) {
		s.TicketCreated = false
		s.AnalysisCompleted = true
		return s, nil
	}))

	out, err := e.Run(context.Background(), NewState(validRequest, "U1", "#c"))
	require.ErrorIs(t, err, ErrFlagReset)
	assert.Contains(t, err.Error(), "ticket_created")
	assert.True(t, out.TicketCreated, "offending result is discarded")
	assert.False(t, out.AnalysisCompleted)
	assert.Equal(t, StatusFailed, out.Status)
}

func TestRun_IterationCeiling(t *testing.T) {
	stuck := withStep(StepValidateRepository, func(_ context.Context, s State) (State, error) {
		return s, nil
	})
	e, rec := newTestEngine(t, stuck, WithMaxIterations(5))

	out, err := e.Run(context.Background(), NewState(validRequest, "U1", "#c"))
	require.ErrorIs(t, err, ErrIterationExceeded)
	assert.Equal(t, StatusFailed, out.Status)
	assert.Len(t, rec.steps, 5)
	assert.Equal(t, 4, rec.count(StepValidateRepository))
}

func TestRun_RecoverableErrorIsRecorded(t *testing.T) {
	calls := 0
	steps := withStep(StepValidateRepository, func(_ context.Context, s State) (State, error) {
		calls++
		if calls == 1 {
			return s, errors.New("host lookup failed")
		}
		s.RepositoryIsValid = true
		return s, nil
	})
	e, _ := newTestEngine(t, steps)

	out, err := e.Run(context.Background(), NewState(validRequest, "U1", "#c"))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "host lookup failed", out.LastError)
}

func TestRun_PanicBecomesStepError(t *testing.T) {
	e, _ := newTestEngine(t, withStep(StepAnalyze, func(context.Context, State) (State, error) {
		panic("nil map")
	}))

	out, err := e.Run(context.Background(), NewState(validRequest, "U1", "#c"))
	require.ErrorIs(t, err, ErrStepFailed)
	assert.Contains(t, err.Error(), "nil map")
	assert.False(t, out.AnalysisCompleted)
}

func TestRun_CanceledContext(t *testing.T) {
	e, rec := newTestEngine(t, SimulatedSteps())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := e.Run(ctx, NewState(validRequest, "U1", "#c"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusFailed, out.Status)
	assert.Empty(t, rec.steps)
}

func TestRun_ConcurrentRuns(t *testing.T) {
	e, err := NewEngine(SimulatedSteps())
	require.NoError(t, err)

	const n = 16
	var wg sync.WaitGroup
	results := make([]State, n)
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = e.Run(context.Background(), NewState(validRequest, "U1", "#c"))
		}()
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := range n {
		require.NoError(t, errs[i])
		assert.Equal(t, StatusCompleted, results[i].Status)
		assert.False(t, seen[results[i].RunID], "run ids are unique")
		seen[results[i].RunID] = true
	}
}

// =============================================================================
// Graph
// =============================================================================

func TestRunGraph_MatchesRun(t *testing.T) {
	e, rec := newTestEngine(t, SimulatedSteps())

	out, err := e.RunGraph(context.Background(), NewState(validRequest, "U1", "#c"))
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, out.Status)
	assert.Equal(t, Steps(), rec.steps)
}

func TestRunGraph_Suspends(t *testing.T) {
	e, rec := newTestEngine(t, SimulatedSteps())

	out, err := e.RunGraph(context.Background(), NewState("no link here", "U1", "#c"))
	require.NoError(t, err)
	assert.Equal(t, StatusAwaitingInput, out.Status)
	assert.Equal(t, []Step{StepRequestRepository}, rec.steps)
}

func TestRunGraph_RequiredFailure(t *testing.T) {
	boom := errors.New("ticket system down")
	e, _ := newTestEngine(t, withStep(StepCreateTicket, func(_ context.Context, s State) (State, error) {
		return s, boom
	}))

	out, err := e.RunGraph(context.Background(), NewState(validRequest, "U1", "#c"))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, StatusFailed, out.Status)
	assert.False(t, out.TicketCreated)
}
