package reviewflow

import (
	"context"
	"fmt"
	"time"

	"github.com/randalmurphal/reviewflow/workflow"
)

// saveTimeout bounds each checkpoint write.
const saveTimeout = 5 * time.Second

// RunStore persists State Records between invocations.
type RunStore interface {
	Save(ctx context.Context, state workflow.State) error
	Load(ctx context.Context, runID string) (workflow.State, error)
}

// Reviewer runs reviews end to end: it drives the Engine, checkpoints the
// State Record after every step, and removes the checkout once a run
// completes.
type Reviewer struct {
	engine   *workflow.Engine
	services *Services
	store    RunStore
}

// NewReviewer builds a Reviewer. store may be nil, in which case runs are
// not persisted and only Start is useful.
func NewReviewer(s *Services, store RunStore, opts ...workflow.Option) (*Reviewer, error) {
	r := &Reviewer{services: s, store: store}
	if store != nil {
		opts = append(opts, workflow.WithObserver(r.checkpoint))
	}
	engine, err := NewEngine(s, opts...)
	if err != nil {
		return nil, err
	}
	r.engine = engine
	return r, nil
}

// Engine returns the underlying Engine.
func (r *Reviewer) Engine() *workflow.Engine {
	return r.engine
}

// Start begins a review for requestText. The returned State is persisted
// even when err is non-nil.
func (r *Reviewer) Start(ctx context.Context, requestText, requesterID, channel string) (workflow.State, error) {
	state := workflow.NewState(requestText, requesterID, channel)
	if r.services.Now != nil {
		now := r.services.Now()
		state.StartedAt, state.UpdatedAt = now, now
	}
	if err := r.save(ctx, state); err != nil {
		return state, err
	}
	state, err := r.engine.Run(ctx, state)
	return r.finish(ctx, state, err)
}

// Resume feeds new requester input to a stored run and continues it.
func (r *Reviewer) Resume(ctx context.Context, runID, input string) (workflow.State, error) {
	state, err := r.load(ctx, runID)
	if err != nil {
		return state, err
	}
	state, err = r.engine.Resume(ctx, state, input)
	return r.finish(ctx, state, err)
}

// Continue re-runs a stored run from where it stopped, typically after a
// required step failed.
func (r *Reviewer) Continue(ctx context.Context, runID string) (workflow.State, error) {
	state, err := r.load(ctx, runID)
	if err != nil {
		return state, err
	}
	if workflow.Route(state) == workflow.StepTerminal {
		return state, workflow.ErrRunCompleted
	}
	state, err = r.engine.Run(ctx, state)
	return r.finish(ctx, state, err)
}

func (r *Reviewer) load(ctx context.Context, runID string) (workflow.State, error) {
	if r.store == nil {
		return workflow.State{}, notConfigured("run store")
	}
	state, err := r.store.Load(ctx, runID)
	if err != nil {
		return state, fmt.Errorf("load run %s: %w", runID, err)
	}
	return state, nil
}

// finish removes a completed run's checkout and writes the final checkpoint.
func (r *Reviewer) finish(ctx context.Context, state workflow.State, runErr error) (workflow.State, error) {
	if state.Status == workflow.StatusCompleted {
		r.services.removeWorkspace(state.LocalRepositoryPath)
	}
	if err := r.save(context.WithoutCancel(ctx), state); err != nil {
		r.services.logger().Error("final checkpoint failed", "run_id", state.RunID, "error", err)
	}
	return state, runErr
}

func (r *Reviewer) checkpoint(step workflow.Step, _, after workflow.State, _ error) {
	if err := r.save(context.Background(), after); err != nil {
		r.services.logger().Warn("checkpoint failed", "run_id", after.RunID, "step", step, "error", err)
	}
}

func (r *Reviewer) save(ctx context.Context, state workflow.State) error {
	if r.store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()
	if err := r.store.Save(ctx, state); err != nil {
		return fmt.Errorf("save run %s: %w", state.RunID, err)
	}
	return nil
}
