package reviewflow

import (
	"github.com/randalmurphal/reviewflow/workflow"
)

// NewSteps maps every workflow step to its implementation on s.
func NewSteps(s *Services) map[workflow.Step]workflow.StepFunc {
	return map[workflow.Step]workflow.StepFunc{
		workflow.StepRequestRepository:  s.RequestRepositoryNode,
		workflow.StepValidateRepository: s.ValidateRepositoryNode,
		workflow.StepCreateTicket:       s.CreateTicketNode,
		workflow.StepStartChat:          s.StartChatNode,
		workflow.StepCloneRepository:    s.CloneRepositoryNode,
		workflow.StepMarkInProgress:     s.MarkInProgressNode,
		workflow.StepAnalyze:            s.AnalyzeNode,
		workflow.StepSynthesizeReport:   s.SynthesizeReportNode,
		workflow.StepPublishTicket:      s.PublishTicketNode,
		workflow.StepPublishChat:        s.PublishChatNode,
	}
}

// NewEngine validates s and builds an Engine over its steps.
func NewEngine(s *Services, opts ...workflow.Option) (*workflow.Engine, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		opts = append([]workflow.Option{workflow.WithLogger(s.Logger)}, opts...)
	}
	if s.Now != nil {
		opts = append([]workflow.Option{workflow.WithClock(s.Now)}, opts...)
	}
	return workflow.NewEngine(NewSteps(s), opts...)
}
