package jira

import (
	"encoding/json"
	"testing"
)

func TestValidateIssueKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"REV-1", true},
		{"CODE_REVIEW-42", true},
		{"A1-99", true},
		{"rev-1", false},
		{"REV", false},
		{"-1", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidateIssueKey(tt.key); got != tt.want {
			t.Errorf("ValidateIssueKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestCreateIssueFields_CustomFields(t *testing.T) {
	fields := CreateIssueFields{
		Project:   ProjectRef{Key: "REV"},
		IssueType: IssueTypeRef{Name: "Task"},
		Summary:   "AI Code Review: acme/widget",
		Labels:    []string{"review"},
		CustomFields: map[string]any{
			"customfield_10042": "https://github.com/acme/widget",
		},
	}
	data, err := json.Marshal(CreateIssueRequest{Fields: fields})
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Fields map[string]any `json:"fields"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Fields["customfield_10042"] != "https://github.com/acme/widget" {
		t.Errorf("custom field missing: %s", data)
	}
	if got.Fields["summary"] != "AI Code Review: acme/widget" {
		t.Errorf("summary missing: %s", data)
	}
	if _, ok := got.Fields["CustomFields"]; ok {
		t.Errorf("CustomFields leaked into payload: %s", data)
	}
}
