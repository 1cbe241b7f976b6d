package workflow

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// =============================================================================
// Review Focus
// =============================================================================

// Focus is the emphasis of a review.
type Focus string

// Supported review focuses.
const (
	FocusGeneral     Focus = "general"
	FocusSecurity    Focus = "security"
	FocusPerformance Focus = "performance"
	FocusQuality     Focus = "quality"
)

var focusAliases = map[string]Focus{
	"general":             FocusGeneral,
	"deep_review":         FocusGeneral,
	"deep":                FocusGeneral,
	"security":            FocusSecurity,
	"security_focused":    FocusSecurity,
	"secure":              FocusSecurity,
	"performance":         FocusPerformance,
	"performance_focused": FocusPerformance,
	"perf":                FocusPerformance,
	"quality":             FocusQuality,
	"quality_check":       FocusQuality,
	"code_quality":        FocusQuality,
}

// ParseFocus maps a focus name or one of its aliases onto the enumeration.
// The boolean is false when the input is empty or unrecognized.
func ParseFocus(s string) (Focus, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.ReplaceAll(key, " ", "_")
	f, ok := focusAliases[key]
	return f, ok
}

// NormalizeFocus is ParseFocus with FocusGeneral substituted for anything
// empty, null or unknown.
func NormalizeFocus(s string) Focus {
	if f, ok := ParseFocus(s); ok {
		return f
	}
	return FocusGeneral
}

// Valid reports whether f is one of the four supported values.
func (f Focus) Valid() bool {
	switch f {
	case FocusGeneral, FocusSecurity, FocusPerformance, FocusQuality:
		return true
	}
	return false
}

// =============================================================================
// Run Status
// =============================================================================

// Status is the coarse lifecycle state of a run.
type Status string

// Run statuses.
const (
	StatusRunning       Status = "running"
	StatusAwaitingInput Status = "awaiting_input"
	StatusCompleted     Status = "completed"
	StatusFailed        Status = "failed"
)

// Terminal reports whether no further Engine work is possible without new input.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// =============================================================================
// Findings and Report
// =============================================================================

// Severity values the analyzer is asked to emit.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// LineRef is a line number or range ("12", "10-15") as reported by the
// analyzer. It decodes from JSON numbers and strings alike.
type LineRef string

// UnmarshalJSON accepts numbers, strings and null.
func (l *LineRef) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		*l = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = LineRef(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("line reference: %w", err)
	}
	*l = LineRef(n.String())
	return nil
}

// MarshalJSON writes plain integers as numbers and everything else as strings.
func (l LineRef) MarshalJSON() ([]byte, error) {
	if l == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.Atoi(string(l)); err == nil {
		return []byte(l), nil
	}
	return json.Marshal(string(l))
}

// String returns the reference, or "N/A" when unset.
func (l LineRef) String() string {
	if l == "" {
		return "N/A"
	}
	return string(l)
}

// Issue is one problem reported against a file.
type Issue struct {
	File         string  `json:"file,omitempty"`
	Line         LineRef `json:"line"`
	Severity     string  `json:"severity"`
	Type         string  `json:"type,omitempty"`
	Issue        string  `json:"issue"`
	CodeSnippet  string  `json:"code_snippet,omitempty"`
	Explanation  string  `json:"explanation,omitempty"`
	SuggestedFix string  `json:"suggested_fix,omitempty"`
}

// HasSeverity compares severities case-insensitively.
func (i Issue) HasSeverity(severity string) bool {
	return strings.EqualFold(strings.TrimSpace(i.Severity), severity)
}

// ToolResult is the verbatim output of one external tool invocation.
type ToolResult struct {
	Tool       string `json:"tool"`
	Command    string `json:"command"`
	ReturnCode int    `json:"return_code"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
}

// Finding is the analyzer's structured verdict for one file.
type Finding struct {
	File         string            `json:"file"`
	TotalLines   int               `json:"total_lines,omitempty"`
	Score        int               `json:"score"`
	Issues       []Issue           `json:"issues,omitempty"`
	LineByLine   map[string]string `json:"line_by_line_analysis,omitempty"`
	Strengths    []string          `json:"strengths,omitempty"`
	Improvements []string          `json:"improvements,omitempty"`
	Assessment   string            `json:"overall_assessment,omitempty"`
	RawText      string            `json:"raw_text,omitempty"`
	Tools        []ToolResult      `json:"tool_results,omitempty"`
}

// LineByLine carries one file's free-form line-range explanations.
type LineByLine struct {
	File     string            `json:"file"`
	Analysis map[string]string `json:"analysis"`
}

// ReportSummary holds the aggregate numbers of a report.
type ReportSummary struct {
	TotalFiles    int     `json:"total_files"`
	AverageScore  float64 `json:"average_score"`
	CriticalCount int     `json:"critical_count"`
	HighCount     int     `json:"high_count"`
}

// Report is the aggregated review of all findings of a run.
type Report struct {
	OverallScore        int           `json:"overall_score"`
	CriticalIssuesCount int           `json:"critical_issues_count"`
	HighIssuesCount     int           `json:"high_issues_count"`
	FilesReviewed       int           `json:"files_reviewed"`
	Repository          string        `json:"repository"`
	ReviewFocus         Focus         `json:"review_type"`
	TicketID            string        `json:"ticket_id,omitempty"`
	Findings            []Finding     `json:"findings"`
	Summary             ReportSummary `json:"summary"`
	CriticalIssues      []Issue       `json:"critical_issues"`
	HighPriorityIssues  []Issue       `json:"high_priority_issues"`
	DetailedLineByLine  []LineByLine  `json:"detailed_line_by_line"`
	Strengths           []string      `json:"strengths,omitempty"`
	Improvements        []string      `json:"improvements,omitempty"`
	ToolResults         []ToolResult  `json:"tool_results,omitempty"`
	GeneratedAt         time.Time     `json:"generated_at"`
}

// =============================================================================
// State Record
// =============================================================================

// State is the single mutable record threaded through every step of a run.
//
// Completion flags (TicketCreated, ChatStarted, ReviewStarted,
// AnalysisCompleted, ReportGenerated, TicketUpdated, ChatUpdated) only move
// from false to true; the Engine rejects a step result that resets one.
type State struct {
	RunID string `json:"run_id"`

	// Request and addressing
	RequestText     string `json:"request_text"`
	ConsumedRequest string `json:"consumed_request,omitempty"`
	RequesterID     string `json:"requester_id"`
	ChatChannel     string `json:"chat_channel"`
	ChatThreadRef   string `json:"chat_thread_ref,omitempty"`

	// Repository reference
	RepositoryRef        string `json:"repository_ref,omitempty"`
	ReviewFocus          Focus  `json:"review_focus"`
	NeedsRepositoryInput bool   `json:"needs_repository_input"`
	RepositoryIsValid    bool   `json:"repository_is_valid"`
	ValidationError      string `json:"validation_error,omitempty"`

	// Ticket
	TicketID      string `json:"ticket_id,omitempty"`
	TicketCreated bool   `json:"ticket_created"`

	// Workspace
	LocalRepositoryPath string   `json:"local_repository_path,omitempty"`
	FilesToReview       []string `json:"files_to_review,omitempty"`

	// Progress flags
	ChatStarted       bool `json:"chat_started"`
	ReviewStarted     bool `json:"review_started"`
	AnalysisCompleted bool `json:"analysis_completed"`
	ReportGenerated   bool `json:"report_generated"`
	TicketUpdated     bool `json:"ticket_updated"`
	ChatUpdated       bool `json:"chat_updated"`

	// Results
	Findings           []Finding    `json:"findings,omitempty"`
	ToolResults        []ToolResult `json:"tool_results,omitempty"`
	Report             *Report      `json:"review_report,omitempty"`
	Score              int          `json:"score"`
	CriticalIssues     []Issue      `json:"critical_issues,omitempty"`
	HighPriorityIssues []Issue      `json:"high_priority_issues,omitempty"`

	// Bookkeeping
	LastError string    `json:"last_error,omitempty"`
	Phase     string    `json:"workflow_phase,omitempty"`
	Status    Status    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewState creates the State for one incoming request.
func NewState(requestText, requesterID, chatChannel string) State {
	now := time.Now()
	return State{
		RunID:       NewRunID(now),
		RequestText: strings.TrimSpace(requestText),
		RequesterID: requesterID,
		ChatChannel: chatChannel,
		ReviewFocus: FocusGeneral,
		Status:      StatusRunning,
		StartedAt:   now,
		UpdatedAt:   now,
	}
}

// NewRunID returns a lexically sortable run identifier.
func NewRunID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.Monotonic(rand.Reader, 0)).String()
}

// Done reports whether the completion predicate of step holds.
// For StepTerminal it reports whether every step is done.
func (s State) Done(step Step) bool {
	switch step {
	case StepRequestRepository:
		return !s.NeedsRepositoryInput && s.RepositoryRef != ""
	case StepValidateRepository:
		return s.RepositoryIsValid
	case StepCreateTicket:
		return s.TicketCreated
	case StepStartChat:
		return s.ChatThreadRef != "" || s.ChatStarted
	case StepCloneRepository:
		return s.LocalRepositoryPath != ""
	case StepMarkInProgress:
		return s.ReviewStarted
	case StepAnalyze:
		return s.AnalysisCompleted
	case StepSynthesizeReport:
		return s.ReportGenerated
	case StepPublishTicket:
		return s.TicketUpdated
	case StepPublishChat:
		return s.ChatUpdated
	case StepTerminal:
		return Route(s) == StepTerminal
	default:
		return false
	}
}

// markDone forces the completion flag of a best-effort step.
func (s *State) markDone(step Step) {
	switch step {
	case StepStartChat:
		s.ChatStarted = true
	case StepMarkInProgress:
		s.ReviewStarted = true
	case StepPublishTicket:
		s.TicketUpdated = true
	case StepPublishChat:
		s.ChatUpdated = true
	}
}

// flagSet is a snapshot of the write-once flags.
type flagSet map[string]bool

func (s State) flags() flagSet {
	return flagSet{
		"ticket_created":     s.TicketCreated,
		"chat_started":       s.ChatStarted,
		"review_started":     s.ReviewStarted,
		"analysis_completed": s.AnalysisCompleted,
		"report_generated":   s.ReportGenerated,
		"ticket_updated":     s.TicketUpdated,
		"chat_updated":       s.ChatUpdated,
	}
}

// resetFrom returns the names of flags that were true in before and are false now.
func (f flagSet) resetFrom(before flagSet) []string {
	var reset []string
	for name, was := range before {
		if was && !f[name] {
			reset = append(reset, name)
		}
	}
	slices.Sort(reset)
	return reset
}

// SetError records err as the latest degradation. A nil error is ignored.
func (s *State) SetError(err error) {
	if err != nil {
		s.LastError = err.Error()
	}
}

// HasError reports whether any step recorded a failure.
func (s State) HasError() bool {
	return s.LastError != ""
}

// Clone returns a copy that shares no slices or maps with s.
func (s State) Clone() State {
	out := s
	out.FilesToReview = slices.Clone(s.FilesToReview)
	out.Findings = cloneFindings(s.Findings)
	out.ToolResults = slices.Clone(s.ToolResults)
	out.CriticalIssues = slices.Clone(s.CriticalIssues)
	out.HighPriorityIssues = slices.Clone(s.HighPriorityIssues)
	if s.Report != nil {
		r := *s.Report
		r.Findings = cloneFindings(s.Report.Findings)
		r.CriticalIssues = slices.Clone(s.Report.CriticalIssues)
		r.HighPriorityIssues = slices.Clone(s.Report.HighPriorityIssues)
		r.DetailedLineByLine = slices.Clone(s.Report.DetailedLineByLine)
		r.Strengths = slices.Clone(s.Report.Strengths)
		r.Improvements = slices.Clone(s.Report.Improvements)
		r.ToolResults = slices.Clone(s.Report.ToolResults)
		out.Report = &r
	}
	return out
}

func cloneFindings(in []Finding) []Finding {
	if in == nil {
		return nil
	}
	out := make([]Finding, len(in))
	for i, f := range in {
		f.Issues = slices.Clone(f.Issues)
		f.LineByLine = maps.Clone(f.LineByLine)
		f.Strengths = slices.Clone(f.Strengths)
		f.Improvements = slices.Clone(f.Improvements)
		f.Tools = slices.Clone(f.Tools)
		out[i] = f
	}
	return out
}

// Summary returns a one-line human readable description of the run.
func (s State) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run=%s status=%s", s.RunID, s.Status)
	if s.RepositoryRef != "" {
		fmt.Fprintf(&b, " repo=%s", s.RepositoryRef)
	}
	if s.TicketID != "" {
		fmt.Fprintf(&b, " ticket=%s", s.TicketID)
	}
	if s.ReportGenerated {
		fmt.Fprintf(&b, " score=%d critical=%d high=%d", s.Score, len(s.CriticalIssues), len(s.HighPriorityIssues))
	}
	if s.LastError != "" {
		fmt.Fprintf(&b, " error=%q", s.LastError)
	}
	return b.String()
}
