package config

import (
	"sort"
	"strings"
)

// Configuration keys.
const (
	KeyJiraURL           = "jira_url"
	KeyJiraEmail         = "jira_email"
	KeyJiraToken         = "jira_token"
	KeyJiraAuth          = "jira_auth"
	KeyJiraProject       = "jira_project"
	KeyJiraIssueType     = "jira_issue_type"
	KeyJiraAppKey        = "jira_app_key"
	KeyJiraSharedSecret  = "jira_shared_secret"
	KeyJiraRepoField     = "jira_repository_field"
	KeySlackToken        = "slack_token"
	KeySlackChannel      = "slack_channel"
	KeySlackWebhook      = "slack_webhook"
	KeyEventWebhook      = "event_webhook"
	KeyEventWebhookToken = "event_webhook_token"
	KeyLLMModel          = "llm_model"
	KeyLLMBinary         = "llm_binary"
	KeyGitHubToken       = "github_token"
	KeyGitHubAPIURL      = "github_api_url"
	KeyGitLabToken       = "gitlab_token"
	KeyGitLabAPIURL      = "gitlab_api_url"
	KeyWorkspaceRoot     = "workspace_root"
	KeyKeepWorkspace     = "keep_workspace"
	KeyStorePath         = "store_path"
	KeyReportDir         = "report_dir"
	KeyMaxFiles          = "max_files"
	KeyMaxIterations     = "max_iterations"
	KeyToolList          = "tool_list"
	KeyTimeoutTicket     = "timeout_ticket"
	KeyTimeoutChat       = "timeout_chat"
	KeyTimeoutClone      = "timeout_clone"
	KeyTimeoutTool       = "timeout_tool"
	KeyTimeoutLLM        = "timeout_llm"
	KeyNoColor           = "no_color"
)

// KeyInfo describes one configuration key.
type KeyInfo struct {
	Name        string
	Default     string
	Description string

	// Secret keys are masked when displayed and refused in the shared
	// local config file.
	Secret bool
}

var keyTable = []KeyInfo{
	{Name: KeyJiraURL, Description: "Jira base URL, e.g. https://acme.atlassian.net"},
	{Name: KeyJiraEmail, Description: "Jira account email (api_token and basic auth)"},
	{Name: KeyJiraToken, Description: "Jira API token, PAT, password or OAuth2 access token", Secret: true},
	{Name: KeyJiraAuth, Default: "api_token", Description: "Jira auth scheme: api_token, basic, pat, oauth2, connect"},
	{Name: KeyJiraProject, Default: "REV", Description: "Jira project key for review tickets"},
	{Name: KeyJiraIssueType, Default: "Task", Description: "Issue type of review tickets"},
	{Name: KeyJiraAppKey, Description: "Atlassian Connect app key"},
	{Name: KeyJiraSharedSecret, Description: "Atlassian Connect shared secret", Secret: true},
	{Name: KeyJiraRepoField, Description: "Custom field ID for the repository URL (discovered when empty)"},
	{Name: KeySlackToken, Description: "Slack bot token", Secret: true},
	{Name: KeySlackChannel, Description: "Default Slack channel ID for review threads"},
	{Name: KeySlackWebhook, Description: "Slack incoming webhook for operator run events", Secret: true},
	{Name: KeyEventWebhook, Description: "URL receiving every run and step event as JSON"},
	{Name: KeyEventWebhookToken, Description: "Bearer token sent to event_webhook", Secret: true},
	{Name: KeyLLMModel, Description: "Model override for every LLM task (empty uses per-task defaults)"},
	{Name: KeyLLMBinary, Default: "claude", Description: "Path to the Claude CLI binary"},
	{Name: KeyGitHubToken, Description: "GitHub token for private clones and repository lookups", Secret: true},
	{Name: KeyGitHubAPIURL, Description: "GitHub API base URL (GitHub Enterprise)"},
	{Name: KeyGitLabToken, Description: "GitLab token for private clones and project lookups", Secret: true},
	{Name: KeyGitLabAPIURL, Description: "GitLab API base URL (self-managed GitLab)"},
	{Name: KeyWorkspaceRoot, Description: "Directory for clone workspaces (default: system temp dir)"},
	{Name: KeyKeepWorkspace, Default: "false", Description: "Keep the clone workspace after a run finishes"},
	{Name: KeyStorePath, Description: "SQLite run store path (default: ~/.local/share/reviewflow/runs.db)"},
	{Name: KeyReportDir, Default: "reviews", Description: "Directory for local JSON review reports"},
	{Name: KeyMaxFiles, Default: "0", Description: "Files reviewed per run; below the discovered count the model picks which (0 reviews all)"},
	{Name: KeyMaxIterations, Default: "0", Description: "Engine iteration ceiling (0 uses the built-in default)"},
	{Name: KeyToolList, Description: "External tools as name:command,name:command"},
	{Name: KeyTimeoutTicket, Default: "30s", Description: "Timeout for each ticket-system call"},
	{Name: KeyTimeoutChat, Default: "15s", Description: "Timeout for each chat call"},
	{Name: KeyTimeoutClone, Default: "5m", Description: "Timeout for cloning the repository"},
	{Name: KeyTimeoutTool, Default: "2m", Description: "Timeout for each external tool"},
	{Name: KeyTimeoutLLM, Default: "10m", Description: "Timeout for the whole analysis step"},
	{Name: KeyNoColor, Default: "false", Description: "Disable colored output"},
}

// Keys returns every known key, sorted by name.
func Keys() []KeyInfo {
	out := make([]KeyInfo, len(keyTable))
	copy(out, keyTable)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// KeyNames returns the sorted key names.
func KeyNames() []string {
	keys := Keys()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.Name
	}
	return names
}

// LookupKey returns the description of name.
func LookupKey(name string) (KeyInfo, bool) {
	for _, k := range keyTable {
		if k.Name == name {
			return k, true
		}
	}
	return KeyInfo{}, false
}

// LocalKeyNames returns the keys allowed in the local config file.
func LocalKeyNames() []string {
	var names []string
	for _, k := range Keys() {
		if !k.Secret {
			names = append(names, k.Name)
		}
	}
	return names
}

// Defaults returns the built-in default of every key that has one.
func Defaults() map[string]string {
	out := make(map[string]string)
	for _, k := range keyTable {
		if k.Default != "" {
			out[k.Name] = k.Default
		}
	}
	return out
}

// Mask hides all but the last four characters of a secret value.
func Mask(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", 8) + value[len(value)-4:]
}
