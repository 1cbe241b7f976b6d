package artifact

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/reviewflow/workflow"
)

func sampleReport() *workflow.Report {
	return &workflow.Report{
		OverallScore:        80,
		CriticalIssuesCount: 1,
		FilesReviewed:       3,
		Repository:          "https://github.com/acme/api",
		ReviewFocus:         workflow.FocusSecurity,
		TicketID:            "REV-42",
		CriticalIssues: []workflow.Issue{
			{File: "db.py", Line: "10", Severity: "critical", Issue: "SQL injection"},
		},
	}
}

func TestFileName(t *testing.T) {
	tests := map[string]string{
		"REV-42":   "code_review_REV-42.json",
		" REV-42 ": "code_review_REV-42.json",
		"a/b c":    "code_review_a_b_c.json",
		"":         "code_review_unticketed.json",
	}
	for in, want := range tests {
		assert.Equal(t, want, FileName(in), in)
	}
}

func TestWriter_WriteReport(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := NewWriter(fs, "reports")

	name, content, err := w.WriteReport(context.Background(), "REV-42", sampleReport())
	require.NoError(t, err)
	assert.Equal(t, "code_review_REV-42.json", name)

	onDisk, err := afero.ReadFile(fs, filepath.Join("reports", name))
	require.NoError(t, err)
	assert.Equal(t, content, onDisk)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(content, &decoded))
	assert.EqualValues(t, 80, decoded["overall_score"])
	assert.Equal(t, "REV-42", decoded["ticket_id"])

	entries, err := afero.ReadDir(fs, "reports")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestWriter_WriteReport_Errors(t *testing.T) {
	w := NewWriter(afero.NewMemMapFs(), "reports")

	_, _, err := w.WriteReport(context.Background(), "REV-1", nil)
	assert.ErrorIs(t, err, ErrNilReport)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = w.WriteReport(ctx, "REV-1", sampleReport())
	assert.ErrorIs(t, err, context.Canceled)

	ro := NewWriter(afero.NewReadOnlyFs(afero.NewMemMapFs()), "reports")
	_, _, err = ro.WriteReport(context.Background(), "REV-1", sampleReport())
	assert.Error(t, err)
}

func TestWriter_Load(t *testing.T) {
	w := NewWriter(afero.NewMemMapFs(), "reports")
	_, _, err := w.WriteReport(context.Background(), "REV-42", sampleReport())
	require.NoError(t, err)

	for _, key := range []string{"REV-42", "code_review_REV-42.json"} {
		r, err := w.Load(key)
		require.NoError(t, err, key)
		assert.Equal(t, 80, r.OverallScore)
		require.Len(t, r.CriticalIssues, 1)
		assert.Equal(t, "10", r.CriticalIssues[0].Line.String())
	}

	_, err = w.Load("REV-404")
	assert.ErrorIs(t, err, ErrArtifactNotFound)
}

func TestWriter_ListAndPrune(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := NewWriter(fs, "reports")
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ages := map[string]time.Duration{
		"REV-1": 90 * 24 * time.Hour,
		"REV-2": 60 * 24 * time.Hour,
		"REV-3": 40 * 24 * time.Hour,
		"REV-4": 24 * time.Hour,
	}
	for id, age := range ages {
		name, _, err := w.WriteReport(ctx, id, sampleReport())
		require.NoError(t, err)
		require.NoError(t, fs.Chtimes(filepath.Join("reports", name), now.Add(-age), now.Add(-age)))
	}
	require.NoError(t, afero.WriteFile(fs, "reports/notes.txt", []byte("x"), 0o644))

	infos, err := w.List()
	require.NoError(t, err)
	require.Len(t, infos, 4)
	assert.Equal(t, "REV-4", infos[0].TicketID)
	assert.Equal(t, "REV-1", infos[3].TicketID)

	cutoff := now.Add(-30 * 24 * time.Hour)

	dry, err := w.Prune(cutoff, 2, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"code_review_REV-2.json", "code_review_REV-1.json"}, dry.Deleted)
	infos, _ = w.List()
	assert.Len(t, infos, 4, "dry run must not delete")

	res, err := w.Prune(cutoff, 2, false)
	require.NoError(t, err)
	assert.Equal(t, dry.Deleted, res.Deleted)
	assert.Equal(t, []string{"code_review_REV-4.json", "code_review_REV-3.json"}, res.Kept)

	infos, _ = w.List()
	assert.Len(t, infos, 2)
}

func TestWriter_ListMissingDir(t *testing.T) {
	infos, err := NewWriter(afero.NewMemMapFs(), "nope").List()
	require.NoError(t, err)
	assert.Empty(t, infos)
}
