package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/randalmurphal/reviewflow/notify"
)

// DefaultMaxIterations bounds Router/step cycles per Run: one visit per step
// plus headroom for re-prompts.
var DefaultMaxIterations = len(orderedSteps) + 5

// Observer is called after every executed step, successful or not.
type Observer func(step Step, before, after State, err error)

// Engine drives Router/step cycles until the Router returns StepTerminal, a
// step suspends, a required step fails, or the iteration ceiling is reached.
//
// An Engine holds no per-run state. Concurrent runs on distinct State values
// are safe as long as the step implementations are.
type Engine struct {
	steps         map[Step]StepFunc
	maxIterations int
	logger        *slog.Logger
	notifier      notify.Notifier
	now           func() time.Time
	observer      Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxIterations sets the iteration ceiling. Values below one are ignored.
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxIterations = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithNotifier sets the operator event sink.
func WithNotifier(n notify.Notifier) Option {
	return func(e *Engine) {
		if n != nil {
			e.notifier = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithObserver installs a per-step hook.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// NewEngine creates an Engine. steps must contain an implementation for
// every Step in Steps().
func NewEngine(steps map[Step]StepFunc, opts ...Option) (*Engine, error) {
	var missing []string
	for _, s := range orderedSteps {
		if steps[s] == nil {
			missing = append(missing, string(s))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrStepMissing, strings.Join(missing, ", "))
	}

	e := &Engine{
		steps:         make(map[Step]StepFunc, len(steps)),
		maxIterations: DefaultMaxIterations,
		logger:        slog.Default(),
		notifier:      notify.NopNotifier{},
		now:           time.Now,
	}
	for k, v := range steps {
		e.steps[k] = v
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// MaxIterations returns the configured ceiling.
func (e *Engine) MaxIterations() int {
	return e.maxIterations
}

// Run drives state to completion or suspension.
//
// The returned State is always the latest one, including on error. A
// suspension returns Status StatusAwaitingInput and a nil error.
func (e *Engine) Run(ctx context.Context, state State) (State, error) {
	logger := e.logger.With("run_id", state.RunID)
	state.Status = StatusRunning
	e.emit(ctx, notify.EventRunStarted, state, "", "review run started", notify.SeverityInfo)

	for i := 0; ; i++ {
		next := Route(state)
		if next == StepTerminal {
			state.Status = StatusCompleted
			state.UpdatedAt = e.now()
			logger.Info("review run completed", "iterations", i, "score", state.Score)
			e.emit(ctx, notify.EventRunCompleted, state, "", completionMessage(state), notify.SeverityInfo)
			return state, nil
		}

		if err := ctx.Err(); err != nil {
			return e.fail(ctx, state, "", err)
		}

		if i >= e.maxIterations {
			err := fmt.Errorf("%w: %d iterations, next step %s", ErrIterationExceeded, e.maxIterations, next)
			return e.fail(ctx, state, next, err)
		}

		var (
			outcome stepOutcome
			err     error
		)
		state, outcome, err = e.apply(ctx, next, state)
		switch outcome {
		case outcomeSuspended:
			state.Status = StatusAwaitingInput
			logger.Info("review run awaiting input", "step", next)
			e.emit(ctx, notify.EventRunSuspended, state, next, "waiting for a repository reference", notify.SeverityInfo)
			return state, nil
		case outcomeHalted:
			return e.fail(ctx, state, next, err)
		}
	}
}

// Resume supplies new requester input to a suspended (or failed) run and
// continues it.
func (e *Engine) Resume(ctx context.Context, state State, input string) (State, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return state, ErrEmptyInput
	}
	if Route(state) == StepTerminal {
		return state, ErrRunCompleted
	}
	state.RequestText = input
	return e.Run(ctx, state)
}

// =============================================================================
// Step Execution
// =============================================================================

type stepOutcome int

const (
	outcomeContinue stepOutcome = iota
	outcomeSuspended
	outcomeHalted
)

// apply runs one step and applies its failure policy.
func (e *Engine) apply(ctx context.Context, step Step, state State) (State, stepOutcome, error) {
	logger := e.logger.With("run_id", state.RunID, "step", step)
	before := state.Clone()
	beforeFlags := state.flags()

	e.emit(ctx, notify.EventStepStarted, state, step, "step started", notify.SeverityInfo)
	started := e.now()
	out, err := e.call(ctx, step, state)
	out.Phase = string(step)
	out.UpdatedAt = e.now()

	if reset := out.flags().resetFrom(beforeFlags); len(reset) > 0 {
		err = fmt.Errorf("%w: %s by %s", ErrFlagReset, strings.Join(reset, ", "), step)
		logger.Error("step reset completion flags", "flags", reset)
		before.SetError(err)
		e.observe(step, before, before, err)
		return before, outcomeHalted, &StepError{Step: step, Err: err}
	}

	defer func() { e.observe(step, before, out, err) }()

	if err == nil {
		logger.Debug("step completed", "duration", out.UpdatedAt.Sub(started))
		e.emit(ctx, notify.EventStepCompleted, out, step, "step completed", notify.SeverityInfo)
		return out, outcomeContinue, nil
	}

	if errors.Is(err, ErrAwaitingInput) {
		return out, outcomeSuspended, nil
	}

	out.SetError(err)
	switch PolicyFor(step) {
	case PolicyRecoverable:
		logger.Warn("step failed, re-routing", "error", err)
		e.emit(ctx, notify.EventStepDegraded, out, step, err.Error(), notify.SeverityWarning)
		return out, outcomeContinue, nil
	case PolicyBestEffort:
		out.markDone(step)
		logger.Warn("best-effort step failed, continuing", "error", err)
		e.emit(ctx, notify.EventStepDegraded, out, step, err.Error(), notify.SeverityWarning)
		return out, outcomeContinue, nil
	default:
		logger.Error("required step failed", "error", err)
		e.emit(ctx, notify.EventStepFailed, out, step, err.Error(), notify.SeverityError)
		return out, outcomeHalted, &StepError{Step: step, Err: err}
	}
}

// call invokes the step implementation, converting a panic into an error.
func (e *Engine) call(ctx context.Context, step Step, state State) (out State, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = state
			err = fmt.Errorf("panic in step %s: %v", step, r)
		}
	}()
	return e.steps[step](ctx, state)
}

func (e *Engine) fail(ctx context.Context, state State, step Step, err error) (State, error) {
	state.Status = StatusFailed
	state.SetError(err)
	state.UpdatedAt = e.now()
	e.logger.Error("review run failed", "run_id", state.RunID, "step", step, "error", err)
	e.emit(ctx, notify.EventRunFailed, state, step, err.Error(), notify.SeverityError)
	return state, err
}

func (e *Engine) observe(step Step, before, after State, err error) {
	if e.observer != nil {
		e.observer(step, before, after, err)
	}
}
