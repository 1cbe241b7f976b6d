package reviewflow

import (
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/randalmurphal/reviewflow/workflow"
)

// Limits of the chat rendering; ticket comments list everything.
const (
	chatIssueLimit    = 5
	chatStrengthLimit = 3
	progressFileLimit = 5
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

var (
	upper = cases.Upper(language.Und)
	title = cases.Title(language.Und)
)

// repoName returns the last path element of a repository URL.
func repoName(ref string) string {
	return strings.TrimSuffix(path.Base(strings.TrimRight(ref, "/")), ".git")
}

func focusLabel(f workflow.Focus) string {
	return title.String(string(f))
}

func issueType(i workflow.Issue) string {
	if i.Type == "" {
		return "ISSUE"
	}
	return upper.String(strings.ReplaceAll(i.Type, "_", " "))
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// =============================================================================
// Ticket (Markdown, converted by the ticket client)
// =============================================================================

func ticketFields(state workflow.State) TicketFields {
	return TicketFields{
		Summary: "AI Code Review: " + repoName(state.RepositoryRef),
		Description: fmt.Sprintf("Automated AI-powered code review.\n\n**Repository:** %s\n**Review Type:** %s",
			state.RepositoryRef, focusLabel(state.ReviewFocus)),
		Labels:        []string{"review", "ai", string(state.ReviewFocus)},
		RepositoryURL: state.RepositoryRef,
	}
}

func initialTicketComment(state workflow.State) string {
	var b strings.Builder
	b.WriteString("**Code Review Initiated**\n\n")
	fmt.Fprintf(&b, "**Repository:** %s\n", state.RepositoryRef)
	fmt.Fprintf(&b, "**Review Type:** %s\n", focusLabel(state.ReviewFocus))
	b.WriteString("**Status:** Starting code analysis...\n\n---\n")
	fmt.Fprintf(&b, "_Requested by %s, run %s_", orNA(state.RequesterID), state.RunID)
	return b.String()
}

func cloneTicketComment(state workflow.State) string {
	var b strings.Builder
	b.WriteString("**Repository Cloned Successfully**\n\n")
	fmt.Fprintf(&b, "**Files Found:** %d\n\n", len(state.FilesToReview))
	if len(state.FilesToReview) > 0 {
		b.WriteString("**Files to Review:**\n")
		for _, f := range head(state.FilesToReview, progressFileLimit) {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		if extra := len(state.FilesToReview) - progressFileLimit; extra > 0 {
			fmt.Fprintf(&b, "- ... and %d more\n", extra)
		}
		b.WriteString("\n")
	}
	b.WriteString("**Status:** Starting deep code analysis...")
	return b.String()
}

func summaryTicketComment(state workflow.State) string {
	r := state.Report
	var b strings.Builder
	b.WriteString("**CODE REVIEW COMPLETE**\n\n")
	b.WriteString(rule + "\n\n")
	b.WriteString("**Review Summary**\n\n")
	fmt.Fprintf(&b, "- **Overall Score:** %d/100\n", r.OverallScore)
	fmt.Fprintf(&b, "- **Average File Score:** %.1f/100\n", r.Summary.AverageScore)
	fmt.Fprintf(&b, "- **Files Analyzed:** %d\n", r.FilesReviewed)
	fmt.Fprintf(&b, "- **Critical Issues:** %d\n", r.CriticalIssuesCount)
	fmt.Fprintf(&b, "- **High Priority Issues:** %d\n\n", r.HighIssuesCount)
	b.WriteString(rule + "\n\n")
	b.WriteString("**Review Details**\n\n")
	fmt.Fprintf(&b, "- Repository: %s\n", state.RepositoryRef)
	fmt.Fprintf(&b, "- Review Type: %s\n", focusLabel(state.ReviewFocus))
	b.WriteString("- Status: Complete")
	return b.String()
}

func issuesTicketComment(heading string, issues []workflow.Issue) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n%s\n", heading, rule)
	for i, issue := range issues {
		fmt.Fprintf(&b, "\n**Issue #%d**\n", i+1)
		fmt.Fprintf(&b, "- Type: %s\n", issueType(issue))
		if issue.File != "" {
			fmt.Fprintf(&b, "- File: %s\n", issue.File)
		}
		fmt.Fprintf(&b, "- Line: %s\n", issue.Line)
		fmt.Fprintf(&b, "- Problem: %s\n", orNA(issue.Issue))
		fmt.Fprintf(&b, "- Fix: %s\n", orNA(issue.SuggestedFix))
	}
	return b.String()
}

func lineByLineTicketComment(report *workflow.Report) string {
	var b strings.Builder
	b.WriteString("**LINE-BY-LINE CODE ANALYSIS**\n\n" + rule + "\n")
	for _, lbl := range report.DetailedLineByLine {
		fmt.Fprintf(&b, "\nFile: `%s`\n\n", lbl.File)
		for _, lines := range sortedLineKeys(lbl.Analysis) {
			fmt.Fprintf(&b, "**Lines %s:**\n%s\n\n", lines, lbl.Analysis[lines])
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func quickStatsTicketComment(filename string, report *workflow.Report) string {
	var b strings.Builder
	b.WriteString("**DOWNLOADABLE JSON REPORT**\n\n")
	fmt.Fprintf(&b, "Complete code review report attached: `%s`\n\n", filename)
	b.WriteString("**Quick Stats:**\n")
	writeStats(&b, report)
	b.WriteString("\nDownload the attachment to view full details.")
	return b.String()
}

func writeStats(b *strings.Builder, r *workflow.Report) {
	fmt.Fprintf(b, "- Overall Score: %d/100\n", r.OverallScore)
	fmt.Fprintf(b, "- Critical Issues: %d\n", r.CriticalIssuesCount)
	fmt.Fprintf(b, "- High Priority Issues: %d\n", r.HighIssuesCount)
	fmt.Fprintf(b, "- Files Reviewed: %d\n", r.FilesReviewed)
}

// =============================================================================
// Chat (Slack mrkdwn)
// =============================================================================

func chatStartMessage(state workflow.State) string {
	var b strings.Builder
	b.WriteString("*Code Review Started*\n\n")
	fmt.Fprintf(&b, "Repository: %s\n", state.RepositoryRef)
	fmt.Fprintf(&b, "Ticket: %s\n", orNA(state.TicketID))
	fmt.Fprintf(&b, "Review Type: %s", focusLabel(state.ReviewFocus))
	return b.String()
}

const chatProgressMessage = "Analyzing code structure and quality..."

func cloneChatMessage(state workflow.State) string {
	return fmt.Sprintf("Repository cloned\nFiles to review: %d\nStarting deep analysis...", len(state.FilesToReview))
}

func summaryChatMessage(state workflow.State) string {
	r := state.Report
	var b strings.Builder
	b.WriteString("*CODE REVIEW COMPLETE!*\n\n" + rule + "\n\n")
	fmt.Fprintf(&b, "*Overall Score:* %d/100\n", r.OverallScore)
	fmt.Fprintf(&b, "*Critical Issues:* %d\n", r.CriticalIssuesCount)
	fmt.Fprintf(&b, "*High Priority Issues:* %d\n", r.HighIssuesCount)
	fmt.Fprintf(&b, "*Files Reviewed:* %d\n\n", r.FilesReviewed)
	b.WriteString(rule + "\n\n")
	fmt.Fprintf(&b, "*Ticket:* %s\n", orNA(state.TicketID))
	fmt.Fprintf(&b, "*Repository:* %s", state.RepositoryRef)
	return b.String()
}

func issuesChatMessage(heading string, issues []workflow.Issue) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n\n", heading)
	for i, issue := range head(issues, chatIssueLimit) {
		fmt.Fprintf(&b, "*%d. %s* (Line %s)\n", i+1, issueType(issue), issue.Line)
		fmt.Fprintf(&b, "  • %s\n", orNA(issue.Issue))
		fmt.Fprintf(&b, "  → %s\n\n", orNA(issue.SuggestedFix))
	}
	if extra := len(issues) - chatIssueLimit; extra > 0 {
		fmt.Fprintf(&b, "_...and %d more in the ticket_", extra)
	}
	return strings.TrimRight(b.String(), "\n")
}

// strengthsChatMessage returns "" when there is nothing to say.
func strengthsChatMessage(report *workflow.Report) string {
	if len(report.Strengths) == 0 && len(report.Improvements) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("*STRENGTHS & IMPROVEMENTS:*\n\n")
	if len(report.Strengths) > 0 {
		b.WriteString("*Strengths:*\n")
		for _, s := range head(report.Strengths, chatStrengthLimit) {
			fmt.Fprintf(&b, "  ✓ %s\n", s)
		}
		b.WriteString("\n")
	}
	if len(report.Improvements) > 0 {
		b.WriteString("*Areas for Improvement:*\n")
		for _, s := range head(report.Improvements, chatStrengthLimit) {
			fmt.Fprintf(&b, "  → %s\n", s)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func reportChatMessage(filename string, state workflow.State) string {
	var b strings.Builder
	b.WriteString("*DOWNLOADABLE JSON REPORT*\n\n")
	fmt.Fprintf(&b, "Complete report with all findings and line-by-line analysis: `%s`\n\n", filename)
	writeStats(&b, state.Report)
	return strings.TrimRight(b.String(), "\n")
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
