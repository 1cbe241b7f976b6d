package workflow

// Route selects the next step for state. It is a pure function: the first
// guard whose completion predicate fails wins, and StepTerminal is returned
// once every guard passes. Route never returns a step whose predicate already
// holds, which is what lets a restarted run resume where it stopped.
func Route(state State) Step {
	switch {
	case state.NeedsRepositoryInput || state.RepositoryRef == "":
		return StepRequestRepository
	case !state.RepositoryIsValid:
		return StepValidateRepository
	case !state.TicketCreated:
		return StepCreateTicket
	case state.ChatThreadRef == "" && !state.ChatStarted:
		return StepStartChat
	case state.LocalRepositoryPath == "":
		return StepCloneRepository
	case !state.ReviewStarted:
		return StepMarkInProgress
	case !state.AnalysisCompleted:
		return StepAnalyze
	case !state.ReportGenerated:
		return StepSynthesizeReport
	case !state.TicketUpdated:
		return StepPublishTicket
	case !state.ChatUpdated:
		return StepPublishChat
	default:
		return StepTerminal
	}
}

// Remaining lists the steps Route would still visit if every step succeeded
// on its first attempt.
func Remaining(state State) []Step {
	var out []Step
	for _, s := range orderedSteps {
		if !state.Done(s) {
			out = append(out, s)
		}
	}
	return out
}
