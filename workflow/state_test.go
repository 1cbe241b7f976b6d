package workflow

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFocus(t *testing.T) {
	tests := []struct {
		in     string
		want   Focus
		wantOK bool
	}{
		{"security", FocusSecurity, true},
		{"security_focused", FocusSecurity, true},
		{" Performance-Focused ", FocusPerformance, true},
		{"quality_check", FocusQuality, true},
		{"deep_review", FocusGeneral, true},
		{"general", FocusGeneral, true},
		{"", "", false},
		{"style", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseFocus(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, FocusGeneral, NormalizeFocus("null"))
	assert.True(t, NormalizeFocus("perf").Valid())
}

func TestLineRef_JSON(t *testing.T) {
	var issues []Issue
	data := `[{"line": 42, "severity": "high", "issue": "a"},
	          {"line": "10-15", "severity": "low", "issue": "b"},
	          {"line": null, "severity": "low", "issue": "c"}]`
	require.NoError(t, json.Unmarshal([]byte(data), &issues))

	assert.Equal(t, LineRef("42"), issues[0].Line)
	assert.Equal(t, LineRef("10-15"), issues[1].Line)
	assert.Equal(t, "N/A", issues[2].Line.String())

	out, err := json.Marshal(issues[0].Line)
	require.NoError(t, err)
	assert.Equal(t, "42", string(out))
	out, err = json.Marshal(issues[1].Line)
	require.NoError(t, err)
	assert.Equal(t, `"10-15"`, string(out))
}

func TestIssue_HasSeverity(t *testing.T) {
	assert.True(t, Issue{Severity: " CRITICAL "}.HasSeverity(SeverityCritical))
	assert.False(t, Issue{Severity: "medium"}.HasSeverity(SeverityHigh))
}

func TestNewState(t *testing.T) {
	s := NewState("  review https://github.com/a/b  ", "U1", "#c")
	assert.Equal(t, "review https://github.com/a/b", s.RequestText)
	assert.Equal(t, FocusGeneral, s.ReviewFocus)
	assert.Equal(t, StatusRunning, s.Status)
	assert.Len(t, s.RunID, 26)
	assert.False(t, s.Done(StepRequestRepository))
}

func TestNewRunID_Sortable(t *testing.T) {
	a := NewRunID(time.Unix(1000, 0))
	b := NewRunID(time.Unix(2000, 0))
	assert.Less(t, a, b)
}

func TestState_Clone(t *testing.T) {
	s := State{
		FilesToReview: []string{"a.go"},
		Findings: []Finding{{
			File:       "a.go",
			Issues:     []Issue{{Issue: "x"}},
			LineByLine: map[string]string{"1-3": "ok"},
		}},
		Report: &Report{Strengths: []string{"tests"}},
	}
	c := s.Clone()
	c.FilesToReview[0] = "b.go"
	c.Findings[0].Issues[0].Issue = "y"
	c.Findings[0].LineByLine["1-3"] = "bad"
	c.Report.Strengths[0] = "none"

	assert.Equal(t, "a.go", s.FilesToReview[0])
	assert.Equal(t, "x", s.Findings[0].Issues[0].Issue)
	assert.Equal(t, "ok", s.Findings[0].LineByLine["1-3"])
	assert.Equal(t, "tests", s.Report.Strengths[0])
}

func TestState_Summary(t *testing.T) {
	s := State{RunID: "r1", Status: StatusCompleted, RepositoryRef: "https://github.com/a/b",
		TicketID: "REV-1", ReportGenerated: true, Score: 80}
	got := s.Summary()
	assert.Contains(t, got, "ticket=REV-1")
	assert.Contains(t, got, "score=80")
}
