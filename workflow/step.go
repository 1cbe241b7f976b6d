package workflow

import "context"

// Step identifies one unit of side-effecting work.
type Step string

// Steps in routing order, followed by the terminal marker.
const (
	StepRequestRepository  Step = "request_repository"
	StepValidateRepository Step = "validate_repository"
	StepCreateTicket       Step = "create_ticket"
	StepStartChat          Step = "start_chat"
	StepCloneRepository    Step = "clone_repository"
	StepMarkInProgress     Step = "mark_in_progress"
	StepAnalyze            Step = "analyze"
	StepSynthesizeReport   Step = "synthesize_report"
	StepPublishTicket      Step = "publish_ticket"
	StepPublishChat        Step = "publish_chat"
	StepTerminal           Step = "terminal"
)

var orderedSteps = []Step{
	StepRequestRepository,
	StepValidateRepository,
	StepCreateTicket,
	StepStartChat,
	StepCloneRepository,
	StepMarkInProgress,
	StepAnalyze,
	StepSynthesizeReport,
	StepPublishTicket,
	StepPublishChat,
}

// Steps returns the non-terminal steps in routing order.
func Steps() []Step {
	out := make([]Step, len(orderedSteps))
	copy(out, orderedSteps)
	return out
}

// Valid reports whether s is a known non-terminal step.
func (s Step) Valid() bool {
	for _, known := range orderedSteps {
		if s == known {
			return true
		}
	}
	return false
}

func (s Step) String() string {
	return string(s)
}

// StepFunc performs one step. It must return the (possibly updated) state
// even when it returns an error.
type StepFunc func(ctx context.Context, state State) (State, error)

// Policy decides how the Engine treats a step that returns an error.
type Policy int

const (
	// PolicyRecoverable steps record their failures as data (re-prompt flags);
	// the error is copied into LastError and the loop continues.
	PolicyRecoverable Policy = iota

	// PolicyBestEffort steps are notifications. The error is copied into
	// LastError and the Engine sets the step's completion flag anyway.
	PolicyBestEffort

	// PolicyRequired steps halt the run. The completion flag stays false so a
	// later Resume re-routes to the same step.
	PolicyRequired
)

func (p Policy) String() string {
	switch p {
	case PolicyRecoverable:
		return "recoverable"
	case PolicyBestEffort:
		return "best_effort"
	case PolicyRequired:
		return "required"
	default:
		return "unknown"
	}
}

// PolicyFor returns the failure policy of a step.
func PolicyFor(s Step) Policy {
	switch s {
	case StepRequestRepository, StepValidateRepository:
		return PolicyRecoverable
	case StepStartChat, StepMarkInProgress, StepPublishTicket, StepPublishChat:
		return PolicyBestEffort
	default:
		return PolicyRequired
	}
}
