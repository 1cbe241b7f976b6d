package reviewflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/randalmurphal/reviewflow/artifact"
	"github.com/randalmurphal/reviewflow/workflow"
)

// SynthesizeReportNode aggregates the findings into the review report.
//
// Updates: state.Report, state.Score, state.CriticalIssues,
// state.HighPriorityIssues, state.ReportGenerated
func (s *Services) SynthesizeReportNode(_ context.Context, state workflow.State) (workflow.State, error) {
	report, err := Synthesize(state.Findings, ReportMeta{
		Repository:  state.RepositoryRef,
		Focus:       state.ReviewFocus,
		TicketID:    state.TicketID,
		ToolResults: state.ToolResults,
		GeneratedAt: s.now(),
	})
	if err != nil {
		return state, err
	}

	state.Report = report
	state.Score = report.OverallScore
	state.CriticalIssues = report.CriticalIssues
	state.HighPriorityIssues = report.HighPriorityIssues
	state.ReportGenerated = true
	s.logger().Info("report generated", "run_id", state.RunID, "score", report.OverallScore,
		"critical", report.CriticalIssuesCount, "high", report.HighIssuesCount)
	return state, nil
}

// reportArtifact writes the report through the ArtifactWriter, or renders
// it in memory when none is configured.
func (s *Services) reportArtifact(ctx context.Context, state workflow.State) (string, []byte, error) {
	if s.Artifacts != nil {
		name, content, err := s.Artifacts.WriteReport(ctx, state.TicketID, state.Report)
		if err != nil {
			return "", nil, fmt.Errorf("write report: %w", err)
		}
		return name, content, nil
	}
	content, err := json.MarshalIndent(state.Report, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("encode report: %w", err)
	}
	return artifact.FileName(state.TicketID), content, nil
}
