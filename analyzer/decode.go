package analyzer

import (
	"encoding/json"
	"strings"

	"github.com/randalmurphal/reviewflow/prompt"
	"github.com/randalmurphal/reviewflow/workflow"
)

// PlaceholderScore is assigned when a model answer cannot be decoded.
const PlaceholderScore = 70

// DecodeFinding decodes a model answer about file. It first decodes the
// answer strictly (after stripping code fences), then retries on the
// outermost {...} span. When both fail it returns a placeholder finding
// carrying the raw text, and ok is false.
func DecodeFinding(raw, file string) (finding workflow.Finding, ok bool) {
	if f, err := decodeStrict(prompt.StripFences(raw)); err == nil {
		return normalize(f, file), true
	}
	if obj, found := prompt.OutermostObject(raw); found {
		if f, err := decodeStrict(obj); err == nil {
			return normalize(f, file), true
		}
	}
	return workflow.Finding{File: file, Score: PlaceholderScore, RawText: raw}, false
}

func decodeStrict(s string) (workflow.Finding, error) {
	var f workflow.Finding
	err := json.Unmarshal([]byte(s), &f)
	return f, err
}

// normalize pins the file to the one that was reviewed and clamps the score.
func normalize(f workflow.Finding, file string) workflow.Finding {
	if file != "" {
		f.File = file
	}
	switch {
	case f.Score < 0:
		f.Score = 0
	case f.Score > 100:
		f.Score = 100
	}
	for i := range f.Issues {
		f.Issues[i].Severity = strings.ToLower(strings.TrimSpace(f.Issues[i].Severity))
		if f.Issues[i].File == "" {
			f.Issues[i].File = f.File
		}
	}
	return f
}
