package intent

import (
	"context"
	"errors"
	"strings"
	"testing"

	llm "github.com/randalmurphal/llmkit/claude"

	"github.com/randalmurphal/reviewflow/workflow"
)

func TestRegexParser(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantRef   string
		wantFocus workflow.Focus
		wantErr   error
	}{
		{
			name:      "github with security keyword",
			text:      "please do a security review of https://github.com/acme/api thanks",
			wantRef:   "https://github.com/acme/api",
			wantFocus: workflow.FocusSecurity,
		},
		{
			name:      "gitlab defaults to general",
			text:      "review https://gitlab.com/team/web-app.git",
			wantRef:   "https://gitlab.com/team/web-app",
			wantFocus: workflow.FocusGeneral,
		},
		{
			name:      "first URL wins",
			text:      "https://github.com/a/one or https://github.com/b/two, it's slow",
			wantRef:   "https://github.com/a/one",
			wantFocus: workflow.FocusPerformance,
		},
		{
			name:    "no url",
			text:    "can you review my code?",
			wantErr: ErrNoRepository,
		},
		{
			name:    "unsupported host",
			text:    "https://bitbucket.org/acme/api",
			wantErr: ErrNoRepository,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RegexParser{}.Parse(context.Background(), tt.text)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got.RepositoryRef != tt.wantRef || got.Focus != tt.wantFocus || got.Source != SourceRegex {
				t.Errorf("Parse = %+v, want ref %q focus %q", got, tt.wantRef, tt.wantFocus)
			}
		})
	}
}

func TestDetectFocus(t *testing.T) {
	tests := map[string]workflow.Focus{
		"check for vulnerabilities": workflow.FocusSecurity,
		"Performance please":        workflow.FocusPerformance,
		"improve readability":       workflow.FocusQuality,
		"just look at it":           workflow.FocusGeneral,
		"run a perf pass":           workflow.FocusPerformance,
		"perfectly normal request":  workflow.FocusGeneral,
	}
	for text, want := range tests {
		if got := DetectFocus(text); got != want {
			t.Errorf("DetectFocus(%q) = %q, want %q", text, got, want)
		}
	}
}

func TestLLMParser(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		text      string
		wantRef   string
		wantFocus workflow.Focus
		wantSrc   Source
		wantErr   error
	}{
		{
			name:      "strict json",
			response:  `{"repository_url": "https://github.com/acme/api", "review_focus": "security_focused"}`,
			text:      "security review acme/api",
			wantRef:   "https://github.com/acme/api",
			wantFocus: workflow.FocusSecurity,
			wantSrc:   SourceLLM,
		},
		{
			name:      "fenced legacy keys",
			response:  "```json\n{\"repo_url\": \"https://github.com/acme/api\", \"review_intent\": \"deep_review\"}\n```",
			wantRef:   "https://github.com/acme/api",
			wantFocus: workflow.FocusGeneral,
			wantSrc:   SourceLLM,
		},
		{
			name:      "unknown focus passed through",
			response:  `{"repository_url": "https://github.com/acme/api", "review_focus": "style"}`,
			wantRef:   "https://github.com/acme/api",
			wantFocus: workflow.Focus("style"),
			wantSrc:   SourceLLM,
		},
		{
			name:      "null focus left empty",
			response:  `{"repository_url": "https://github.com/acme/api", "review_focus": null}`,
			wantRef:   "https://github.com/acme/api",
			wantFocus: workflow.Focus(""),
			wantSrc:   SourceLLM,
		},
		{
			name:     "null repository",
			response: `{"repository_url": "null", "review_focus": "general"}`,
			wantErr:  ErrNoRepository,
		},
		{
			name:      "garbage falls back to regex",
			response:  "I think you mean the api repo",
			text:      "quality review of https://github.com/acme/api please",
			wantRef:   "https://github.com/acme/api",
			wantFocus: workflow.FocusQuality,
			wantSrc:   SourceRegex,
		},
		{
			name:     "garbage without url",
			response: "no idea",
			text:     "review my stuff",
			wantErr:  ErrNoRepository,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen llm.CompletionRequest
			client := llm.NewMockClient("").WithCompleteFunc(func(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
				seen = req
				return &llm.CompletionResponse{Content: tt.response}, nil
			})

			got, err := NewLLMParser(client).Parse(context.Background(), tt.text)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got.RepositoryRef != tt.wantRef || got.Focus != tt.wantFocus || got.Source != tt.wantSrc {
				t.Errorf("Parse = %+v", got)
			}
			if !strings.Contains(seen.SystemPrompt, "repository_url") {
				t.Errorf("system prompt not rendered: %q", seen.SystemPrompt)
			}
			if len(seen.Messages) != 1 || seen.Messages[0].Content != tt.text {
				t.Errorf("messages = %+v", seen.Messages)
			}
		})
	}
}

func TestLLMParser_ModelError(t *testing.T) {
	client := llm.NewMockClient("").WithCompleteFunc(func(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return nil, errors.New("claude exited 1")
	})

	got, err := NewLLMParser(client).Parse(context.Background(), "https://github.com/acme/api")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Source != SourceRegex || got.RepositoryRef != "https://github.com/acme/api" {
		t.Errorf("Parse = %+v, want regex fallback", got)
	}
}

func TestLLMParser_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := llm.NewMockClient("").WithCompleteFunc(func(ctx context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return nil, ctx.Err()
	})

	if _, err := NewLLMParser(client).Parse(ctx, "https://github.com/acme/api"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
