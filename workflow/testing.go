package workflow

import (
	"context"
	"strings"
)

// SimulatedSteps returns side-effect-free implementations of every step.
// They follow the same state contracts as the real steps, so tests can
// replace a single entry and drive the Engine through the rest.
func SimulatedSteps() map[Step]StepFunc {
	return map[Step]StepFunc{
		StepRequestRepository: func(_ context.Context, s State) (State, error) {
			if s.RequestText == "" || s.RequestText == s.ConsumedRequest {
				return s, ErrAwaitingInput
			}
			s.ConsumedRequest = s.RequestText
			s.RepositoryIsValid = false
			s.ValidationError = ""
			for _, field := range strings.Fields(s.RequestText) {
				if strings.HasPrefix(field, "http://") || strings.HasPrefix(field, "https://") {
					s.RepositoryRef = field
					s.NeedsRepositoryInput = false
					return s, nil
				}
			}
			s.NeedsRepositoryInput = true
			return s, ErrAwaitingInput
		},
		StepValidateRepository: func(_ context.Context, s State) (State, error) {
			if strings.HasPrefix(s.RepositoryRef, "https://github.com/") {
				s.RepositoryIsValid = true
				return s, nil
			}
			s.NeedsRepositoryInput = true
			s.ValidationError = "unsupported repository host"
			return s, nil
		},
		StepCreateTicket: func(_ context.Context, s State) (State, error) {
			s.TicketID = "SIM-1"
			s.TicketCreated = true
			return s, nil
		},
		StepStartChat: func(_ context.Context, s State) (State, error) {
			s.ChatThreadRef = "1700000000.000100"
			s.ChatStarted = true
			return s, nil
		},
		StepCloneRepository: func(_ context.Context, s State) (State, error) {
			s.LocalRepositoryPath = "/tmp/sim"
			s.FilesToReview = []string{"main.go"}
			return s, nil
		},
		StepMarkInProgress: func(_ context.Context, s State) (State, error) {
			s.ReviewStarted = true
			return s, nil
		},
		StepAnalyze: func(_ context.Context, s State) (State, error) {
			s.Findings = []Finding{{File: "main.go", Score: 85}}
			s.AnalysisCompleted = true
			return s, nil
		},
		StepSynthesizeReport: func(_ context.Context, s State) (State, error) {
			s.Score = 85
			s.Report = &Report{OverallScore: 85, FilesReviewed: 1, Repository: s.RepositoryRef, ReviewFocus: s.ReviewFocus}
			s.ReportGenerated = true
			return s, nil
		},
		StepPublishTicket: func(_ context.Context, s State) (State, error) {
			s.TicketUpdated = true
			return s, nil
		},
		StepPublishChat: func(_ context.Context, s State) (State, error) {
			s.ChatUpdated = true
			return s, nil
		},
	}
}
