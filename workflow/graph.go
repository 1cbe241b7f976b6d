package workflow

import (
	"context"
	"fmt"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"

	"github.com/randalmurphal/reviewflow/notify"
)

// routeNode is the hub every step returns to; its conditional edge is Route.
const routeNode = "route"

// RunGraph executes the same state machine as Run, expressed as a flowgraph
// graph: a hub node whose conditional edge asks Route for the next step, and
// one node per step with an edge back to the hub. Failure policy, suspension
// and the iteration ceiling behave exactly as in Run.
func (e *Engine) RunGraph(ctx context.Context, state State) (State, error) {
	var (
		iterations int
		halt       error
		haltStep   Step
	)

	g := flowgraph.NewGraph[State]()
	g = g.AddNode(routeNode, func(_ flowgraph.Context, s State) (State, error) {
		return s, nil
	})
	for _, step := range orderedSteps {
		g = g.AddNode(string(step), func(fctx flowgraph.Context, s State) (State, error) {
			iterations++
			out, outcome, err := e.apply(fctx, step, s)
			switch outcome {
			case outcomeSuspended:
				out.Status = StatusAwaitingInput
			case outcomeHalted:
				halt, haltStep = err, step
			}
			return out, nil
		})
		g = g.AddEdge(string(step), routeNode)
	}
	g = g.AddConditionalEdge(routeNode, func(fctx flowgraph.Context, s State) string {
		if halt != nil || s.Status == StatusAwaitingInput {
			return flowgraph.END
		}
		next := Route(s)
		if next == StepTerminal {
			return flowgraph.END
		}
		if fctx.Err() != nil {
			halt = fctx.Err()
			return flowgraph.END
		}
		if iterations >= e.maxIterations {
			halt = fmt.Errorf("%w: %d iterations, next step %s", ErrIterationExceeded, e.maxIterations, next)
			haltStep = next
			return flowgraph.END
		}
		return string(next)
	})
	g = g.SetEntry(routeNode)

	compiled, err := g.Compile()
	if err != nil {
		return state, fmt.Errorf("compile review graph: %w", err)
	}

	state.Status = StatusRunning
	e.emit(ctx, notify.EventRunStarted, state, "", "review run started", notify.SeverityInfo)

	out, err := compiled.Run(flowgraph.NewContext(ctx), state)
	if err != nil {
		if out.RunID == "" {
			out = state
		}
		return e.fail(ctx, out, haltStep, fmt.Errorf("run review graph: %w", err))
	}
	if halt != nil {
		return e.fail(ctx, out, haltStep, halt)
	}
	if out.Status == StatusAwaitingInput {
		e.emit(ctx, notify.EventRunSuspended, out, StepRequestRepository, "waiting for a repository reference", notify.SeverityInfo)
		return out, nil
	}
	out.Status = StatusCompleted
	out.UpdatedAt = e.now()
	e.emit(ctx, notify.EventRunCompleted, out, "", completionMessage(out), notify.SeverityInfo)
	return out, nil
}
