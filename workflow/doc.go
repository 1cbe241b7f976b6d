// Package workflow implements the review state machine: the State record
// threaded through every step, the Router that picks the next step, and the
// Engine that drives Router/step cycles to a terminal state.
//
// Core types:
//   - State: the single mutable record for one review run
//   - Step: closed enumeration of step identifiers, in routing order
//   - StepFunc: the contract every step implementation satisfies
//   - Policy: how the Engine treats a failing step (best-effort, recoverable, required)
//   - Engine: the loop with iteration ceiling, suspension and failure policy
//
// The Router is the only source of truth for ordering. Restarting the Engine
// on a partially completed State resumes exactly where it stopped:
//
//	engine, err := workflow.NewEngine(steps, workflow.WithLogger(logger))
//	state := workflow.NewState("review https://github.com/acme/widget", "U123", "#reviews")
//	state, err = engine.Run(ctx, state)
//	if state.Status == workflow.StatusAwaitingInput {
//	    state, err = engine.Resume(ctx, state, "https://github.com/acme/widget")
//	}
package workflow
