package analyzer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	llm "github.com/randalmurphal/llmkit/claude"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/reviewflow/workflow"
)

// scriptedClient answers per file path found in the user message.
func scriptedClient(t *testing.T, answers map[string]string, errs map[string]error) (*llm.MockClient, *[]llm.CompletionRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []llm.CompletionRequest
	)
	client := llm.NewMockClient("").WithCompleteFunc(func(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		mu.Lock()
		seen = append(seen, req)
		mu.Unlock()
		for file, err := range errs {
			if strings.Contains(req.SystemPrompt, file) {
				return nil, err
			}
		}
		for file, answer := range answers {
			if strings.Contains(req.SystemPrompt, file) {
				return &llm.CompletionResponse{Content: answer}, nil
			}
		}
		return &llm.CompletionResponse{Content: "no opinion"}, nil
	})
	return client, &seen
}

func TestLLMAnalyzer_Analyze(t *testing.T) {
	client, seen := scriptedClient(t, map[string]string{
		"a.py": `{"score": 90, "issues": []}`,
		"b.py": "```json\n{\"score\": 70, \"issues\": [{\"line\": 3, \"severity\": \"critical\", \"issue\": \"eval\"}]}\n```",
	}, map[string]error{
		"c.py": errors.New("model unavailable"),
	})

	tools := []workflow.ToolResult{{Tool: "ruff", Command: "ruff check .", ReturnCode: 1, Stdout: "E501"}}
	a := NewLLMAnalyzer(client)
	findings, err := a.Analyze(context.Background(), Request{
		Files: []SourceFile{
			{Path: "a.py", Content: "import os"},
			{Path: "b.py", Content: "x = 1\ny = 2\neval(z)"},
			{Path: "c.py", Content: "pass"},
			{Path: "d.py", Content: "pass"},
		},
		Focus: workflow.FocusSecurity,
		Tools: tools,
	})
	require.NoError(t, err)
	require.Len(t, findings, 3, "c.py is skipped, d.py gets a placeholder")

	assert.Equal(t, "a.py", findings[0].File)
	assert.Equal(t, 90, findings[0].Score)
	assert.Equal(t, 1, findings[0].TotalLines)
	assert.Equal(t, "b.py", findings[1].File)
	assert.Equal(t, "critical", findings[1].Issues[0].Severity)
	assert.Equal(t, "d.py", findings[2].File)
	assert.Equal(t, PlaceholderScore, findings[2].Score)
	assert.Equal(t, "no opinion", findings[2].RawText)

	for _, f := range findings {
		assert.Equal(t, tools, f.Tools)
	}

	require.Len(t, *seen, 4)
	first := (*seen)[0]
	assert.Contains(t, first.SystemPrompt, "security focus")
	assert.Contains(t, first.SystemPrompt, "[ruff] exit 1")
	assert.Contains(t, first.SystemPrompt, "(Python source)")
	assert.Equal(t, "Review with line numbers:\n\n  1: import os", first.Messages[0].Content)
}

func TestLLMAnalyzer_TruncatesLongFiles(t *testing.T) {
	client, seen := scriptedClient(t, nil, nil)
	content := strings.TrimSuffix(strings.Repeat("line\n", 150), "\n")

	a := NewLLMAnalyzer(client)
	findings, err := a.Analyze(context.Background(), Request{Files: []SourceFile{{Path: "big.go", Content: content}}})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, 150, findings[0].TotalLines)

	msg := (*seen)[0].Messages[0].Content
	assert.Contains(t, msg, "100: line")
	assert.NotContains(t, msg, "101: line")
	assert.True(t, strings.HasSuffix(msg, "... [50 more lines]"))
}

func TestLLMAnalyzer_AllFail(t *testing.T) {
	boom := errors.New("boom")
	client, _ := scriptedClient(t, nil, map[string]error{"a.py": boom, "b.py": boom})

	_, err := NewLLMAnalyzer(client).Analyze(context.Background(), Request{Files: []SourceFile{
		{Path: "a.py"}, {Path: "b.py"},
	}})
	assert.ErrorIs(t, err, ErrAllFilesFailed)
	assert.ErrorIs(t, err, boom)
}

func TestLLMAnalyzer_NoFiles(t *testing.T) {
	_, err := NewLLMAnalyzer(llm.NewMockClient("")).Analyze(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestLLMAnalyzer_RunsToolsWhenMissing(t *testing.T) {
	client, _ := scriptedClient(t, map[string]string{"a.py": `{"score": 80}`}, nil)
	runner := NewToolRunner([]Tool{{Name: "echo", Command: "echo lint-ok"}}, 0)

	findings, err := NewLLMAnalyzer(client, WithTools(runner)).Analyze(context.Background(), Request{
		RepositoryPath: t.TempDir(),
		Files:          []SourceFile{{Path: "a.py", Content: "x"}},
	})
	require.NoError(t, err)
	require.Len(t, findings[0].Tools, 1)
	assert.Equal(t, "lint-ok\n", findings[0].Tools[0].Stdout)
}

func TestLLMAnalyzer_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client, _ := scriptedClient(t, nil, nil)

	_, err := NewLLMAnalyzer(client).Analyze(ctx, Request{Files: []SourceFile{{Path: "a.py"}}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrioritize(t *testing.T) {
	files := []string{"a.py", "b.py", "c.py", "d.py"}

	tests := []struct {
		name     string
		answer   string
		err      error
		maxFiles int
		want     []string
	}{
		{"within limit skips model", "", nil, 4, files},
		{"disabled", "", nil, 0, files},
		{"model picks", `{"files_to_review": ["d.py", "b.py"]}`, nil, 2, []string{"d.py", "b.py"}},
		{"unknown and duplicate names dropped", `{"files_to_review": ["x.py", "c.py", "c.py", "a.py", "b.py"]}`, nil, 2, []string{"c.py", "a.py"}},
		{"embedded json", "Sure: {\"files_to_review\": [\"b.py\"]} done", nil, 3, []string{"b.py"}},
		{"garbage falls back", "pick the important ones", nil, 2, []string{"a.py", "b.py"}},
		{"nothing usable falls back", `{"files_to_review": ["zzz.py"]}`, nil, 3, []string{"a.py", "b.py", "c.py"}},
		{"model error falls back", "", errors.New("down"), 1, []string{"a.py"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			client := llm.NewMockClient("").WithCompleteFunc(func(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
				calls++
				assert.Contains(t, req.SystemPrompt, "- c.py")
				if tt.err != nil {
					return nil, tt.err
				}
				return &llm.CompletionResponse{Content: tt.answer}, nil
			})

			got := NewLLMAnalyzer(client).Prioritize(context.Background(), files, workflow.FocusGeneral, tt.maxFiles)
			assert.Equal(t, tt.want, got)
			if tt.maxFiles <= 0 || tt.maxFiles >= len(files) {
				assert.Zero(t, calls)
			}
		})
	}
}

func TestLanguage(t *testing.T) {
	assert.Equal(t, "Python", Language("a/b.py"))
	assert.Equal(t, "TypeScript", Language("x.TSX"))
	assert.Equal(t, "", Language("README"))
}
