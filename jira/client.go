package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	rfhttp "github.com/randalmurphal/reviewflow/http"
)

// Client is a Jira REST client covering what a review run needs: issues,
// comments, transitions, attachments and field lookup.
type Client struct {
	cfg        *Config
	baseURL    string
	apiVersion APIVersion
	http       *rfhttp.Client
	httpClient *http.Client
	logger     *slog.Logger
	signer     *ConnectSigner
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying *http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient validates cfg and creates a client.
func NewClient(cfg *Config, opts ...ClientOption) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		cfg:        cfg,
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiVersion: cfg.version(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = rfhttp.DefaultTimeout
		}
		c.httpClient = &http.Client{Timeout: timeout}
	}
	if cfg.Auth.Type == AuthConnect {
		c.signer = NewConnectSigner(cfg.Auth.AppKey, cfg.Auth.SharedSecret, c.baseURL)
	}
	c.http = rfhttp.NewClient(rfhttp.ClientConfig{
		Client:        c.httpClient,
		BaseURL:       c.baseURL,
		ServiceName:   "jira",
		MaxRetries:    cfg.MaxRetries,
		RetryWait:     cfg.RetryWait,
		BeforeRequest: c.authorize,
		Logger:        c.logger,
	})
	return c, nil
}

// APIVersion returns the REST API version in use.
func (c *Client) APIVersion() APIVersion {
	return c.apiVersion
}

// IssueURL returns the browser URL of an issue.
func (c *Client) IssueURL(key string) string {
	return c.baseURL + "/browse/" + key
}

// RichText converts Markdown into the body format of the API version in use.
func (c *Client) RichText(markdown string) any {
	if c.apiVersion == APIVersionV2 {
		return MarkdownToWiki(markdown)
	}
	return MarkdownToADF(markdown)
}

// =============================================================================
// Issues
// =============================================================================

// CreateIssue creates an issue. A string Description is treated as Markdown.
func (c *Client) CreateIssue(ctx context.Context, req *CreateIssueRequest) (*CreateIssueResponse, error) {
	if req.Fields.Project.Key == "" {
		return nil, ErrProjectRequired
	}
	if md, ok := req.Fields.Description.(string); ok && md != "" {
		req.Fields.Description = c.RichText(md)
	}
	var out CreateIssueResponse
	if err := c.call(ctx, http.MethodPost, c.apiPath("/issue"), req, &out); err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}
	c.logger.Debug("jira issue created", "key", out.Key)
	return &out, nil
}

// AddComment adds a Markdown comment to an issue.
func (c *Client) AddComment(ctx context.Context, key, markdown string) (*Comment, error) {
	if !ValidateIssueKey(key) {
		return nil, fmt.Errorf("%w: %q", ErrIssueKeyInvalid, key)
	}
	var out Comment
	body := commentRequest{Body: c.RichText(markdown)}
	if err := c.call(ctx, http.MethodPost, c.apiPath("/issue/"+key+"/comment"), body, &out); err != nil {
		return nil, fmt.Errorf("add comment to %s: %w", key, err)
	}
	return &out, nil
}

// GetTransitions lists the transitions currently available on an issue.
func (c *Client) GetTransitions(ctx context.Context, key string) ([]Transition, error) {
	if !ValidateIssueKey(key) {
		return nil, fmt.Errorf("%w: %q", ErrIssueKeyInvalid, key)
	}
	var out transitionsResponse
	if err := c.call(ctx, http.MethodGet, c.apiPath("/issue/"+key+"/transitions"), nil, &out); err != nil {
		return nil, fmt.Errorf("get transitions of %s: %w", key, err)
	}
	return out.Transitions, nil
}

// TransitionIssue applies a transition by ID.
func (c *Client) TransitionIssue(ctx context.Context, key, transitionID string) error {
	if transitionID == "" {
		return ErrTransitionIDRequired
	}
	var body transitionRequest
	body.Transition.ID = transitionID
	if err := c.call(ctx, http.MethodPost, c.apiPath("/issue/"+key+"/transitions"), body, nil); err != nil {
		return fmt.Errorf("transition %s: %w", key, err)
	}
	return nil
}

// AddAttachment uploads content as a file attachment.
func (c *Client) AddAttachment(ctx context.Context, key, filename string, content []byte) ([]Attachment, error) {
	body, err := rfhttp.FileBody("file", filename, content)
	if err != nil {
		return nil, err
	}
	req := rfhttp.Request{
		Method:  http.MethodPost,
		Path:    c.apiPath("/issue/" + key + "/attachments"),
		Body:    body,
		Headers: map[string]string{"X-Atlassian-Token": "no-check"},
	}
	var out []Attachment
	if err := c.do(ctx, req, &out); err != nil {
		return nil, fmt.Errorf("attach %s to %s: %w", filename, key, err)
	}
	return out, nil
}

// =============================================================================
// Fields
// =============================================================================

// ListFields returns every system and custom field.
func (c *Client) ListFields(ctx context.Context) ([]Field, error) {
	var out []Field
	if err := c.call(ctx, http.MethodGet, c.apiPath("/field"), nil, &out); err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}
	return out, nil
}

// FindFieldID returns the ID of the first field whose name contains every
// term, compared case-insensitively.
func (c *Client) FindFieldID(ctx context.Context, terms ...string) (string, error) {
	fields, err := c.ListFields(ctx)
	if err != nil {
		return "", err
	}
	for _, f := range fields {
		name := strings.ToLower(f.Name)
		match := true
		for _, t := range terms {
			if !strings.Contains(name, strings.ToLower(t)) {
				match = false
				break
			}
		}
		if match {
			return f.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrFieldNotFound, strings.Join(terms, " "))
}

// =============================================================================
// Transport
// =============================================================================

func (c *Client) apiPath(endpoint string) string {
	if c.apiVersion == APIVersionV2 {
		return "/rest/api/2" + endpoint
	}
	return "/rest/api/3" + endpoint
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	req := rfhttp.Request{Method: method, Path: path}
	if body != nil {
		b, err := rfhttp.JSONBody(body)
		if err != nil {
			return err
		}
		req.Body = b
	}
	return c.do(ctx, req, out)
}

func (c *Client) do(ctx context.Context, req rfhttp.Request, out any) error {
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return parseAPIError(resp, req.Path)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.Path, err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) error {
	auth := c.cfg.Auth
	switch auth.Type {
	case AuthAPIToken:
		req.SetBasicAuth(auth.Email, auth.Token)
	case AuthBasic:
		req.SetBasicAuth(auth.Username, auth.Password)
	case AuthPAT:
		req.Header.Set("Authorization", "Bearer "+auth.Token)
	case AuthOAuth2:
		req.Header.Set("Authorization", "Bearer "+auth.AccessToken)
	case AuthConnect:
		return c.signer.Sign(req)
	}
	return nil
}
