package reviewflow

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/randalmurphal/reviewflow/workflow"
)

// ReportMeta is the run context stamped onto a synthesized report.
type ReportMeta struct {
	Repository  string
	Focus       workflow.Focus
	TicketID    string
	ToolResults []workflow.ToolResult
	GeneratedAt time.Time
}

// Synthesize aggregates per-file findings into a Report.
//
// The overall score is the truncated mean of the finding scores. Critical
// and high issues keep the order in which they appear across findings.
func Synthesize(findings []workflow.Finding, meta ReportMeta) (*workflow.Report, error) {
	if len(findings) == 0 {
		return nil, ErrNoFindings
	}

	r := &workflow.Report{
		FilesReviewed:      len(findings),
		Repository:         meta.Repository,
		ReviewFocus:        meta.Focus,
		TicketID:           meta.TicketID,
		Findings:           slices.Clone(findings),
		CriticalIssues:     []workflow.Issue{},
		HighPriorityIssues: []workflow.Issue{},
		DetailedLineByLine: []workflow.LineByLine{},
		ToolResults:        meta.ToolResults,
		GeneratedAt:        meta.GeneratedAt,
	}

	total := 0
	for _, f := range findings {
		total += f.Score
		for _, issue := range f.Issues {
			if issue.File == "" {
				issue.File = f.File
			}
			switch {
			case issue.HasSeverity(workflow.SeverityCritical):
				r.CriticalIssues = append(r.CriticalIssues, issue)
			case issue.HasSeverity(workflow.SeverityHigh):
				r.HighPriorityIssues = append(r.HighPriorityIssues, issue)
			}
		}
		if len(f.LineByLine) > 0 {
			r.DetailedLineByLine = append(r.DetailedLineByLine, workflow.LineByLine{File: f.File, Analysis: f.LineByLine})
		}
		r.Strengths = append(r.Strengths, f.Strengths...)
		r.Improvements = append(r.Improvements, f.Improvements...)
	}

	r.OverallScore = total / len(findings)
	r.CriticalIssuesCount = len(r.CriticalIssues)
	r.HighIssuesCount = len(r.HighPriorityIssues)
	r.Summary = workflow.ReportSummary{
		TotalFiles:    len(findings),
		AverageScore:  float64(total) / float64(len(findings)),
		CriticalCount: r.CriticalIssuesCount,
		HighCount:     r.HighIssuesCount,
	}
	return r, nil
}

// sortedLineKeys orders line-range keys ("3", "10-15", "general") by their
// first number, non-numeric keys last.
func sortedLineKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		na, okA := lineStart(a)
		nb, okB := lineStart(b)
		switch {
		case okA && okB && na != nb:
			return na - nb
		case okA != okB:
			if okA {
				return -1
			}
			return 1
		}
		return strings.Compare(a, b)
	})
	return keys
}

func lineStart(key string) (int, bool) {
	key = strings.TrimSpace(key)
	if i := strings.IndexAny(key, "-–,: "); i > 0 {
		key = key[:i]
	}
	n, err := strconv.Atoi(key)
	return n, err == nil
}
