package reviewflow

import (
	"fmt"
	"strings"
	"testing"

	"github.com/randalmurphal/reviewflow/workflow"
)

func TestTicketFields(t *testing.T) {
	state := workflow.State{RepositoryRef: "https://github.com/acme/api.git", ReviewFocus: workflow.FocusSecurity}
	got := ticketFields(state)

	if got.Summary != "AI Code Review: api" {
		t.Errorf("Summary = %q", got.Summary)
	}
	if !strings.Contains(got.Description, "**Review Type:** Security") {
		t.Errorf("Description = %q", got.Description)
	}
	if strings.Join(got.Labels, ",") != "review,ai,security" {
		t.Errorf("Labels = %v", got.Labels)
	}
	if got.RepositoryURL != state.RepositoryRef {
		t.Errorf("RepositoryURL = %q", got.RepositoryURL)
	}
}

func TestCloneTicketComment_ListsFirstFiles(t *testing.T) {
	var files []string
	for i := range 8 {
		files = append(files, fmt.Sprintf("f%d.go", i))
	}
	got := cloneTicketComment(workflow.State{FilesToReview: files})

	if !strings.Contains(got, "**Files Found:** 8") {
		t.Errorf("missing count: %q", got)
	}
	if !strings.Contains(got, "- f4.go") || strings.Contains(got, "- f5.go") {
		t.Errorf("should list exactly the first five files: %q", got)
	}
	if !strings.Contains(got, "... and 3 more") {
		t.Errorf("missing overflow line: %q", got)
	}
}

func TestIssuesTicketComment(t *testing.T) {
	got := issuesTicketComment("CRITICAL ISSUES - MUST FIX", []workflow.Issue{
		{File: "db.go", Line: "12", Type: "sql_injection", Issue: "unsafe query"},
		{Issue: "no line"},
	})

	for _, want := range []string{
		"**CRITICAL ISSUES - MUST FIX**",
		"**Issue #1**",
		"- Type: SQL INJECTION",
		"- File: db.go",
		"- Line: 12",
		"- Problem: unsafe query",
		"- Fix: N/A",
		"**Issue #2**",
		"- Type: ISSUE",
		"- Line: N/A",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("comment missing %q:\n%s", want, got)
		}
	}
}

func TestIssuesChatMessage_Truncates(t *testing.T) {
	var issues []workflow.Issue
	for i := range 7 {
		issues = append(issues, workflow.Issue{Issue: fmt.Sprintf("problem %d", i), Line: workflow.LineRef(fmt.Sprint(i + 1))})
	}
	got := issuesChatMessage("HIGH PRIORITY ISSUES - SHOULD FIX:", issues)

	if !strings.Contains(got, "*5. ISSUE* (Line 5)") {
		t.Errorf("fifth issue missing: %q", got)
	}
	if strings.Contains(got, "problem 5") {
		t.Errorf("sixth issue should be cut: %q", got)
	}
	if !strings.HasSuffix(got, "_...and 2 more in the ticket_") {
		t.Errorf("missing overflow note: %q", got)
	}
}

func TestStrengthsChatMessage(t *testing.T) {
	if got := strengthsChatMessage(&workflow.Report{}); got != "" {
		t.Errorf("empty report should render nothing, got %q", got)
	}

	got := strengthsChatMessage(&workflow.Report{
		Strengths:    []string{"a", "b", "c", "d"},
		Improvements: []string{"tests"},
	})
	if !strings.Contains(got, "✓ c") || strings.Contains(got, "✓ d") {
		t.Errorf("strengths should stop at three: %q", got)
	}
	if !strings.Contains(got, "→ tests") {
		t.Errorf("improvement missing: %q", got)
	}
}

func TestLineByLineTicketComment_SortsRanges(t *testing.T) {
	got := lineByLineTicketComment(&workflow.Report{DetailedLineByLine: []workflow.LineByLine{
		{File: "a.go", Analysis: map[string]string{"20-25": "later", "4": "earlier"}},
	}})
	if strings.Index(got, "**Lines 4:**") > strings.Index(got, "**Lines 20-25:**") {
		t.Errorf("ranges out of order:\n%s", got)
	}
	if !strings.Contains(got, "File: `a.go`") {
		t.Errorf("file header missing:\n%s", got)
	}
}

func TestSummaryMessages(t *testing.T) {
	state := workflow.State{
		RepositoryRef: "https://github.com/acme/api",
		TicketID:      "REV-7",
		ReviewFocus:   workflow.FocusGeneral,
		Report: &workflow.Report{
			OverallScore: 80, CriticalIssuesCount: 1, HighIssuesCount: 2, FilesReviewed: 3,
			Summary: workflow.ReportSummary{AverageScore: 80},
		},
	}

	ticket := summaryTicketComment(state)
	for _, want := range []string{"**Overall Score:** 80/100", "**Average File Score:** 80.0/100", "**Critical Issues:** 1", "Review Type: General"} {
		if !strings.Contains(ticket, want) {
			t.Errorf("ticket summary missing %q", want)
		}
	}

	chat := summaryChatMessage(state)
	for _, want := range []string{"*Overall Score:* 80/100", "*High Priority Issues:* 2", "*Ticket:* REV-7"} {
		if !strings.Contains(chat, want) {
			t.Errorf("chat summary missing %q", want)
		}
	}
}
