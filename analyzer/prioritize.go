package analyzer

import (
	"context"
	"encoding/json"

	llm "github.com/randalmurphal/llmkit/claude"

	"github.com/randalmurphal/reviewflow/prompt"
	"github.com/randalmurphal/reviewflow/workflow"
)

// Prioritize asks the model which of files matter most for a review with
// the given focus and returns at most maxFiles of them. Only names from
// files are accepted. On any failure, or when the model picks nothing
// usable, the first maxFiles files in discovery order are kept. A
// non-positive maxFiles, or a list already within the limit, is returned
// unchanged without calling the model.
func (a *LLMAnalyzer) Prioritize(ctx context.Context, files []string, focus workflow.Focus, maxFiles int) []string {
	if maxFiles <= 0 || len(files) <= maxFiles {
		return files
	}
	fallback := append([]string(nil), files[:maxFiles]...)

	system, err := a.prompts.LoadWithVars(prompt.PrioritizeFiles, map[string]any{
		"Files":    files,
		"Focus":    string(focus),
		"MaxFiles": maxFiles,
	})
	if err != nil {
		a.logger.Warn("prioritize prompt failed, keeping discovery order", "error", err)
		return fallback
	}

	resp, err := a.client.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: system,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: "Decide"}},
	})
	if err != nil {
		a.logger.Warn("prioritize call failed, keeping discovery order", "error", err)
		return fallback
	}

	var plan struct {
		Files []string `json:"files_to_review"`
	}
	raw := prompt.StripFences(resp.Content)
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		obj, ok := prompt.OutermostObject(resp.Content)
		if !ok || json.Unmarshal([]byte(obj), &plan) != nil {
			a.logger.Warn("prioritize answer not decodable, keeping discovery order", "error", err)
			return fallback
		}
	}

	known := make(map[string]bool, len(files))
	for _, f := range files {
		known[f] = true
	}
	picked := make([]string, 0, maxFiles)
	for _, f := range plan.Files {
		if known[f] && len(picked) < maxFiles {
			picked = append(picked, f)
			delete(known, f)
		}
	}
	if len(picked) == 0 {
		return fallback
	}
	a.logger.Info("files prioritized", "selected", picked)
	return picked
}
