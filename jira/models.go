package jira

import (
	"encoding/json"
	"maps"
	"regexp"
)

// Transition is a workflow transition available on an issue.
type Transition struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	To   *Status `json:"to,omitempty"`
}

// Status is an issue status.
type Status struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type transitionsResponse struct {
	Transitions []Transition `json:"transitions"`
}

// CreateIssueRequest is the body of POST /issue.
type CreateIssueRequest struct {
	Fields CreateIssueFields `json:"fields"`
}

// CreateIssueFields are the fields of a new issue. Description is ADF for v3
// and a wiki string for v2; the client fills it from Markdown.
type CreateIssueFields struct {
	Project     ProjectRef   `json:"project"`
	IssueType   IssueTypeRef `json:"issuetype"`
	Summary     string       `json:"summary"`
	Description any          `json:"description,omitempty"`
	Labels      []string     `json:"labels,omitempty"`

	// CustomFields are merged into the fields object by ID, e.g.
	// "customfield_10042": "https://github.com/acme/widget".
	CustomFields map[string]any `json:"-"`
}

// MarshalJSON merges CustomFields next to the standard fields.
func (f CreateIssueFields) MarshalJSON() ([]byte, error) {
	type plain CreateIssueFields
	data, err := json.Marshal(plain(f))
	if err != nil || len(f.CustomFields) == 0 {
		return data, err
	}
	merged := make(map[string]any)
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	maps.Copy(merged, f.CustomFields)
	return json.Marshal(merged)
}

// ProjectRef references a project by key.
type ProjectRef struct {
	Key string `json:"key"`
}

// IssueTypeRef references an issue type by name.
type IssueTypeRef struct {
	Name string `json:"name"`
}

// CreateIssueResponse identifies a created issue.
type CreateIssueResponse struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

type transitionRequest struct {
	Transition struct {
		ID string `json:"id"`
	} `json:"transition"`
}

type commentRequest struct {
	Body any `json:"body"`
}

// Comment is a created comment.
type Comment struct {
	ID      string `json:"id"`
	Created string `json:"created,omitempty"`
}

// Attachment is an uploaded attachment.
type Attachment struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Size     int    `json:"size"`
	Content  string `json:"content,omitempty"`
}

// Field describes a system or custom field from GET /field.
type Field struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Custom bool   `json:"custom"`
}

var issueKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*-\d+$`)

// ValidateIssueKey reports whether key looks like PROJ-123.
func ValidateIssueKey(key string) bool {
	return issueKeyPattern.MatchString(key)
}
