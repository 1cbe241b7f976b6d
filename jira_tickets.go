package reviewflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/randalmurphal/reviewflow/jira"
)

// JiraTicketsConfig selects where review tickets are created.
type JiraTicketsConfig struct {
	Project   string
	IssueType string // defaults to "Task"

	// RepositoryField is the custom field ID that receives the repository
	// URL. When empty the field is looked up once by name ("repository"
	// and "url"); a Jira without such a field gets no custom field.
	RepositoryField string

	Logger *slog.Logger
}

// JiraTickets implements TicketClient on top of jira.Client.
type JiraTickets struct {
	client *jira.Client
	cfg    JiraTicketsConfig

	mu       sync.Mutex
	fieldID  string
	resolved bool
}

var _ TicketClient = (*JiraTickets)(nil)

// NewJiraTickets creates a JiraTickets adapter.
func NewJiraTickets(client *jira.Client, cfg JiraTicketsConfig) *JiraTickets {
	if cfg.IssueType == "" {
		cfg.IssueType = "Task"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &JiraTickets{client: client, cfg: cfg, fieldID: cfg.RepositoryField, resolved: cfg.RepositoryField != ""}
}

// CreateTicket creates an issue and returns its key.
func (t *JiraTickets) CreateTicket(ctx context.Context, fields TicketFields) (string, error) {
	req := &jira.CreateIssueRequest{Fields: jira.CreateIssueFields{
		Project:     jira.ProjectRef{Key: t.cfg.Project},
		IssueType:   jira.IssueTypeRef{Name: t.cfg.IssueType},
		Summary:     fields.Summary,
		Description: fields.Description,
		Labels:      fields.Labels,
	}}
	if id := t.repositoryField(ctx); id != "" && fields.RepositoryURL != "" {
		req.Fields.CustomFields = map[string]any{id: fields.RepositoryURL}
	}

	resp, err := t.client.CreateIssue(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Key, nil
}

// AddComment adds a Markdown comment.
func (t *JiraTickets) AddComment(ctx context.Context, id, text string) error {
	_, err := t.client.AddComment(ctx, id, text)
	return err
}

// ListTransitions lists the transitions currently available on the issue.
func (t *JiraTickets) ListTransitions(ctx context.Context, id string) ([]Transition, error) {
	transitions, err := t.client.GetTransitions(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]Transition, 0, len(transitions))
	for _, tr := range transitions {
		out = append(out, Transition{ID: tr.ID, Name: tr.Name})
	}
	return out, nil
}

// ApplyTransition moves the issue through the given transition.
func (t *JiraTickets) ApplyTransition(ctx context.Context, id, transitionID string) error {
	return t.client.TransitionIssue(ctx, id, transitionID)
}

// AddAttachment attaches content to the issue as filename.
func (t *JiraTickets) AddAttachment(ctx context.Context, id, filename string, content []byte) error {
	_, err := t.client.AddAttachment(ctx, id, filename, content)
	return err
}

// repositoryField returns the repository URL field ID, discovering it on
// first use. Lookup failures other than a missing field are retried on the
// next call.
func (t *JiraTickets) repositoryField(ctx context.Context) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.resolved {
		return t.fieldID
	}

	id, err := t.client.FindFieldID(ctx, "repository", "url")
	switch {
	case err == nil:
		t.fieldID, t.resolved = id, true
		t.cfg.Logger.Debug("jira repository field discovered", "field", id)
	case errors.Is(err, jira.ErrFieldNotFound):
		t.resolved = true
		t.cfg.Logger.Debug("jira has no repository url field")
	default:
		t.cfg.Logger.Warn("jira field discovery failed", "error", fmt.Errorf("find repository field: %w", err))
	}
	return t.fieldID
}
