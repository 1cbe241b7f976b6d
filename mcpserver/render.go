package mcpserver

import (
	"fmt"
	"strings"

	"github.com/randalmurphal/reviewflow/workflow"
)

// issueLimit caps the issues listed per severity.
const issueLimit = 10

// Render formats a run as Markdown for MCP clients.
func Render(state workflow.State) string {
	var sb strings.Builder
	sb.WriteString("## Code Review\n\n")
	fmt.Fprintf(&sb, "- **Run**: %s\n", state.RunID)
	fmt.Fprintf(&sb, "- **Status**: %s\n", state.Status)
	if state.RepositoryRef != "" {
		fmt.Fprintf(&sb, "- **Repository**: %s\n", state.RepositoryRef)
		fmt.Fprintf(&sb, "- **Focus**: %s\n", state.ReviewFocus)
	}
	if state.TicketID != "" {
		fmt.Fprintf(&sb, "- **Ticket**: %s\n", state.TicketID)
	}

	switch state.Status {
	case workflow.StatusAwaitingInput:
		sb.WriteString("\nThe run needs a repository URL")
		if state.ValidationError != "" {
			fmt.Fprintf(&sb, " (%s)", state.ValidationError)
		}
		sb.WriteString(". Call resume_review with the URL as input.\n")
	case workflow.StatusFailed:
		fmt.Fprintf(&sb, "\nThe run stopped at step %s. Call resume_review without input to retry.\n", state.Phase)
	}

	if r := state.Report; r != nil {
		sb.WriteString("\n### Results\n\n")
		fmt.Fprintf(&sb, "- **Score**: %d/100\n", r.OverallScore)
		fmt.Fprintf(&sb, "- **Files reviewed**: %d\n", r.FilesReviewed)
		fmt.Fprintf(&sb, "- **Critical issues**: %d\n", r.CriticalIssuesCount)
		fmt.Fprintf(&sb, "- **High priority issues**: %d\n", r.HighIssuesCount)
		writeIssues(&sb, "Critical", r.CriticalIssues)
		writeIssues(&sb, "High priority", r.HighPriorityIssues)
	}

	if state.LastError != "" {
		fmt.Fprintf(&sb, "\n_Last error: %s_\n", state.LastError)
	}
	return sb.String()
}

func writeIssues(sb *strings.Builder, heading string, issues []workflow.Issue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n### %s\n\n", heading)
	for i, is := range issues {
		if i == issueLimit {
			fmt.Fprintf(sb, "- ...and %d more\n", len(issues)-issueLimit)
			break
		}
		fmt.Fprintf(sb, "- `%s:%s` %s\n", is.File, is.Line, is.Issue)
	}
}
