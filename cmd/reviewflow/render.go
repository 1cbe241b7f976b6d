package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/randalmurphal/reviewflow/artifact"
	"github.com/randalmurphal/reviewflow/notify"
	"github.com/randalmurphal/reviewflow/store"
	"github.com/randalmurphal/reviewflow/workflow"
)

type styles struct {
	title  lipgloss.Style
	label  lipgloss.Style
	good   lipgloss.Style
	warn   lipgloss.Style
	bad    lipgloss.Style
	dim    lipgloss.Style
	border lipgloss.Style
}

func newStyles(noColor bool) styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return styles{title: plain, label: plain, good: plain, warn: plain, bad: plain, dim: plain, border: plain}
	}
	return styles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")),
		label:  lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")),
		good:   lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true),
		warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true),
		bad:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		border: lipgloss.NewStyle().Foreground(lipgloss.Color("#444444")),
	}
}

func (st styles) status(s workflow.Status) string {
	switch s {
	case workflow.StatusCompleted:
		return st.good.Render(string(s))
	case workflow.StatusAwaitingInput:
		return st.warn.Render(string(s))
	case workflow.StatusFailed:
		return st.bad.Render(string(s))
	default:
		return st.title.Render(string(s))
	}
}

func (st styles) score(n int) string {
	s := strconv.Itoa(n) + "/100"
	switch {
	case n >= 80:
		return st.good.Render(s)
	case n >= 60:
		return st.warn.Render(s)
	default:
		return st.bad.Render(s)
	}
}

// renderState prints the outcome of one run.
func renderState(state workflow.State, st styles) string {
	var b strings.Builder
	row := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "  %s %s\n", st.label.Render(fmt.Sprintf("%-11s", label)), value)
	}

	b.WriteString(st.title.Render("Review "+state.RunID) + "\n")
	row("status", st.status(state.Status))
	row("repository", state.RepositoryRef)
	if state.RepositoryRef != "" {
		row("focus", string(state.ReviewFocus))
	}
	row("ticket", state.TicketID)
	row("phase", state.Phase)
	if state.ReportGenerated {
		row("score", st.score(state.Score))
		row("files", strconv.Itoa(len(state.Findings)))
		row("critical", countStyle(st.bad, len(state.CriticalIssues)))
		row("high", countStyle(st.warn, len(state.HighPriorityIssues)))
	}
	if state.ValidationError != "" {
		row("invalid", st.warn.Render(state.ValidationError))
	}
	if state.LastError != "" {
		row("error", st.bad.Render(state.LastError))
	}

	for _, issue := range head(state.CriticalIssues, 5) {
		fmt.Fprintf(&b, "  %s %s %s\n", st.bad.Render("!"), st.dim.Render(issue.File), issue.Issue)
	}
	return b.String()
}

func countStyle(s lipgloss.Style, n int) string {
	if n == 0 {
		return "0"
	}
	return s.Render(strconv.Itoa(n))
}

func renderRuns(runs []store.RunSummary, st styles, now time.Time) string {
	if len(runs) == 0 {
		return st.dim.Render("No runs found.") + "\n"
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.border).
		Headers("RUN", "STATUS", "REPOSITORY", "TICKET", "SCORE", "UPDATED")
	for _, r := range runs {
		score := "-"
		if r.Status == workflow.StatusCompleted {
			score = strconv.Itoa(r.Score)
		}
		t.Row(r.RunID, st.status(r.Status), orDash(r.Repository), orDash(r.TicketID), score, humanize.RelTime(r.UpdatedAt, now, "ago", "from now"))
	}
	return t.String() + "\n"
}

func renderEvents(events []notify.Event, st styles) string {
	var b strings.Builder
	for _, e := range events {
		msg := e.Message
		switch e.Severity {
		case notify.SeverityError:
			msg = st.bad.Render(msg)
		case notify.SeverityWarning:
			msg = st.warn.Render(msg)
		}
		fmt.Fprintf(&b, "%s  %-15s %-18s %s\n",
			st.dim.Render(e.Timestamp.Format(time.TimeOnly)), e.Type, e.Step, msg)
	}
	return b.String()
}

func renderReports(infos []artifact.Info, st styles, now time.Time) string {
	if len(infos) == 0 {
		return st.dim.Render("No reports found.") + "\n"
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.border).
		Headers("REPORT", "TICKET", "SIZE", "MODIFIED")
	for _, info := range infos {
		t.Row(info.Name, orDash(info.TicketID), humanize.Bytes(uint64(info.Size)), humanize.RelTime(info.ModifiedAt, now, "ago", "from now"))
	}
	return t.String() + "\n"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
