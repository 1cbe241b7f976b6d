package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/randalmurphal/reviewflow/jira"
	"github.com/randalmurphal/reviewflow/slack"
)

// Configuration errors.
var (
	ErrJiraNotConfigured  = errors.New("jira is not configured (set jira_url and credentials)")
	ErrSlackNotConfigured = errors.New("slack is not configured (set slack_token)")
)

// Settings is the typed view of a Resolved configuration.
type Settings struct {
	Jira    JiraSettings
	Slack   SlackSettings
	LLM     LLMSettings
	Hosting HostingSettings

	WorkspaceRoot string
	KeepWorkspace bool
	StorePath     string
	ReportDir     string
	MaxFiles      int
	MaxIterations int
	ToolList      string
	NoColor       bool

	Timeouts Timeouts
}

// JiraSettings configures the ticket system.
type JiraSettings struct {
	URL             string
	Email           string
	Token           string
	Auth            jira.AuthType
	Project         string
	IssueType       string
	AppKey          string
	SharedSecret    string
	RepositoryField string
}

// SlackSettings configures the chat system.
type SlackSettings struct {
	Token   string
	Channel string
	Webhook string

	// EventWebhook and EventWebhookToken configure the generic JSON
	// event sink.
	EventWebhook      string
	EventWebhookToken string
}

// LLMSettings configures the model backend.
type LLMSettings struct {
	Model  string
	Binary string
}

// HostingSettings holds repository host credentials.
type HostingSettings struct {
	GitHubToken  string
	GitHubAPIURL string
	GitLabToken  string
	GitLabAPIURL string
}

// Timeouts bounds each kind of external call.
type Timeouts struct {
	Ticket time.Duration
	Chat   time.Duration
	Clone  time.Duration
	Tool   time.Duration
	LLM    time.Duration
}

// Settings parses the resolved values. Every malformed value is reported.
func (c *Resolved) Settings() (Settings, error) {
	p := parser{c: c}
	s := Settings{
		Jira: JiraSettings{
			URL:             strings.TrimRight(c.Get(KeyJiraURL), "/"),
			Email:           c.Get(KeyJiraEmail),
			Token:           c.Get(KeyJiraToken),
			Auth:            jira.AuthType(c.Get(KeyJiraAuth)),
			Project:         c.Get(KeyJiraProject),
			IssueType:       c.Get(KeyJiraIssueType),
			AppKey:          c.Get(KeyJiraAppKey),
			SharedSecret:    c.Get(KeyJiraSharedSecret),
			RepositoryField: c.Get(KeyJiraRepoField),
		},
		Slack: SlackSettings{
			Token:             c.Get(KeySlackToken),
			Channel:           c.Get(KeySlackChannel),
			Webhook:           c.Get(KeySlackWebhook),
			EventWebhook:      c.Get(KeyEventWebhook),
			EventWebhookToken: c.Get(KeyEventWebhookToken),
		},
		LLM: LLMSettings{
			Model:  c.Get(KeyLLMModel),
			Binary: c.Get(KeyLLMBinary),
		},
		Hosting: HostingSettings{
			GitHubToken:  c.Get(KeyGitHubToken),
			GitHubAPIURL: c.Get(KeyGitHubAPIURL),
			GitLabToken:  c.Get(KeyGitLabToken),
			GitLabAPIURL: c.Get(KeyGitLabAPIURL),
		},
		WorkspaceRoot: c.Get(KeyWorkspaceRoot),
		KeepWorkspace: p.bool(KeyKeepWorkspace),
		StorePath:     c.Get(KeyStorePath),
		ReportDir:     c.Get(KeyReportDir),
		MaxFiles:      p.int(KeyMaxFiles),
		MaxIterations: p.int(KeyMaxIterations),
		ToolList:      c.Get(KeyToolList),
		NoColor:       p.bool(KeyNoColor),
		Timeouts: Timeouts{
			Ticket: p.duration(KeyTimeoutTicket),
			Chat:   p.duration(KeyTimeoutChat),
			Clone:  p.duration(KeyTimeoutClone),
			Tool:   p.duration(KeyTimeoutTool),
			LLM:    p.duration(KeyTimeoutLLM),
		},
	}
	if s.StorePath == "" {
		s.StorePath = DefaultStorePath()
	}
	return s, errors.Join(p.errs...)
}

// DefaultStorePath returns ~/.local/share/reviewflow/runs.db.
func DefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName, "runs.db")
	}
	return filepath.Join(home, ".local", "share", AppName, "runs.db")
}

// JiraEnabled reports whether enough is set to attempt a Jira client.
func (s Settings) JiraEnabled() bool {
	return s.Jira.URL != ""
}

// SlackEnabled reports whether a Slack bot token is set.
func (s Settings) SlackEnabled() bool {
	return s.Slack.Token != ""
}

// JiraConfig maps the Jira settings onto a client configuration. The
// shared jira_token key feeds whichever credential the auth scheme reads.
func (s Settings) JiraConfig() (*jira.Config, error) {
	if !s.JiraEnabled() {
		return nil, ErrJiraNotConfigured
	}
	cfg := jira.DefaultConfig()
	cfg.URL = s.Jira.URL
	if s.Timeouts.Ticket > 0 {
		cfg.Timeout = s.Timeouts.Ticket
	}

	cfg.Auth.Type = s.Jira.Auth
	switch s.Jira.Auth {
	case jira.AuthBasic:
		cfg.Auth.Username = s.Jira.Email
		cfg.Auth.Password = s.Jira.Token
	case jira.AuthOAuth2:
		cfg.Auth.AccessToken = s.Jira.Token
	case jira.AuthConnect:
		cfg.Auth.AppKey = s.Jira.AppKey
		cfg.Auth.SharedSecret = s.Jira.SharedSecret
	default:
		cfg.Auth.Email = s.Jira.Email
		cfg.Auth.Token = s.Jira.Token
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("jira config: %w", err)
	}
	return cfg, nil
}

// SlackConfig maps the Slack settings onto a client configuration.
func (s Settings) SlackConfig() (slack.Config, error) {
	if !s.SlackEnabled() {
		return slack.Config{}, ErrSlackNotConfigured
	}
	return slack.Config{Token: s.Slack.Token, Timeout: s.Timeouts.Chat}, nil
}

type parser struct {
	c    *Resolved
	errs []error
}

func (p *parser) int(key string) int {
	v := p.c.Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a non-negative integer", key, v))
		return 0
	}
	return n
}

func (p *parser) bool(key string) bool {
	v := p.c.Get(key)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a boolean", key, v))
	}
	return b
}

func (p *parser) duration(key string) time.Duration {
	v := p.c.Get(key)
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a duration", key, v))
		return 0
	}
	return d
}
