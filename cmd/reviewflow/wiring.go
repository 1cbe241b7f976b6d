package main

import (
	"errors"
	"fmt"
	"os/exec"

	llm "github.com/randalmurphal/llmkit/claude"
	"github.com/spf13/afero"

	"github.com/randalmurphal/reviewflow"
	"github.com/randalmurphal/reviewflow/analyzer"
	"github.com/randalmurphal/reviewflow/artifact"
	"github.com/randalmurphal/reviewflow/config"
	rferrors "github.com/randalmurphal/reviewflow/errors"
	"github.com/randalmurphal/reviewflow/git"
	"github.com/randalmurphal/reviewflow/intent"
	"github.com/randalmurphal/reviewflow/jira"
	"github.com/randalmurphal/reviewflow/notify"
	"github.com/randalmurphal/reviewflow/prompt"
	"github.com/randalmurphal/reviewflow/repo"
	"github.com/randalmurphal/reviewflow/slack"
	"github.com/randalmurphal/reviewflow/store"
	"github.com/randalmurphal/reviewflow/task"
	"github.com/randalmurphal/reviewflow/workflow"
)

// openStore opens the run database from the resolved settings.
func (a *app) openStore() (*store.SQLite, error) {
	st, err := store.Open(a.settings.StorePath)
	if err != nil {
		return nil, fmt.Errorf("open run store: %w", err)
	}
	return st, nil
}

// newReviewer wires every collaborator from configuration. The returned
// store must be closed by the caller.
func (a *app) newReviewer() (*reviewflow.Reviewer, *store.SQLite, error) {
	services, err := a.newServices()
	if err != nil {
		return nil, nil, err
	}
	st, err := a.openStore()
	if err != nil {
		return nil, nil, err
	}

	opts := []workflow.Option{workflow.WithNotifier(a.notifier(st))}
	if a.settings.MaxIterations > 0 {
		opts = append(opts, workflow.WithMaxIterations(a.settings.MaxIterations))
	}
	reviewer, err := reviewflow.NewReviewer(services, st, opts...)
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}
	return reviewer, st, nil
}

// notifier fans events out to the log and the run store, plus Slack and
// the event webhook when they are configured.
func (a *app) notifier(st *store.SQLite) notify.Notifier {
	sinks := []notify.Notifier{notify.NewLogNotifier(a.logger), st}
	if hook := a.settings.Slack.Webhook; hook != "" {
		opts := []notify.SlackOption{notify.WithSlackUsername("reviewflow")}
		if ch := a.settings.Slack.Channel; ch != "" {
			opts = append(opts, notify.WithSlackChannel(ch))
		}
		sinks = append(sinks, notify.OnlyRunEvents(notify.NewSlackNotifier(hook, opts...)))
	}
	if url := a.settings.Slack.EventWebhook; url != "" {
		var headers map[string]string
		if token := a.settings.Slack.EventWebhookToken; token != "" {
			headers = map[string]string{"Authorization": "Bearer " + token}
		}
		sinks = append(sinks, notify.NewWebhookNotifier(url, headers))
	}
	return notify.NewMultiNotifier(sinks...)
}

func (a *app) newServices() (*reviewflow.Services, error) {
	s := a.settings

	if _, err := exec.LookPath(s.LLM.Binary); err != nil {
		return nil, rferrors.NewLLMUnavailableError(s.LLM.Binary, err)
	}
	overrides := map[task.Type]string{task.ReviewFile: s.LLM.Model}
	reviewClient := llm.NewClaudeCLI(
		llm.WithModel(string(task.SelectModel(task.ReviewFile, overrides))),
		llm.WithDangerouslySkipPermissions(),
	)
	fastClient := llm.NewClaudeCLI(
		llm.WithModel(string(task.SelectModel(task.ParseRequest, overrides))),
		llm.WithDangerouslySkipPermissions(),
	)
	prompts := prompt.NewLoader(a.resolver.GitRoot())

	tickets, err := a.newTickets()
	if err != nil {
		return nil, err
	}
	chat, err := a.newChat()
	if err != nil {
		return nil, err
	}
	hosts, err := newHosts(s.Hosting)
	if err != nil {
		return nil, err
	}

	tools, err := analyzer.ParseToolList(s.ToolList)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.KeyToolList, err)
	}

	gitClient := git.NewClient(
		git.WithLogger(a.logger),
		git.WithToken("github.com", s.Hosting.GitHubToken),
		git.WithToken("gitlab.com", s.Hosting.GitLabToken),
	)
	fetcher := repo.NewFetcher(s.WorkspaceRoot, repo.WithGit(gitClient), repo.WithFetcherLogger(a.logger))

	llmAnalyzer := analyzer.NewLLMAnalyzer(reviewClient, analyzer.WithPrompts(prompts), analyzer.WithLogger(a.logger))
	services := &reviewflow.Services{
		Parser:      intent.NewLLMParser(fastClient, intent.WithPrompts(prompts), intent.WithLogger(a.logger)),
		Hosting:     hosts,
		Tickets:     tickets,
		Fetcher:     fetcher,
		Analyzer:    llmAnalyzer,
		Prioritizer: llmAnalyzer,
		Tools:       analyzer.NewToolRunner(tools, s.Timeouts.Tool),
		Artifacts:   artifact.NewWriter(afero.NewOsFs(), s.ReportDir),
		MaxFiles:    s.MaxFiles,
		Timeouts: reviewflow.Timeouts{
			Ticket: s.Timeouts.Ticket,
			Chat:   s.Timeouts.Chat,
			Clone:  s.Timeouts.Clone,
			LLM:    s.Timeouts.LLM,
		},
		Logger: a.logger,
	}
	if chat != nil {
		services.Chat = chat
	}
	if !s.KeepWorkspace {
		services.Cleanup = fetcher.Remove
	}
	return services, nil
}

func (a *app) newTickets() (reviewflow.TicketClient, error) {
	cfg, err := a.settings.JiraConfig()
	if errors.Is(err, config.ErrJiraNotConfigured) {
		return nil, rferrors.NewNotConfiguredError("Jira", config.KeyJiraURL, config.KeyJiraEmail, config.KeyJiraToken)
	}
	if err != nil {
		return nil, err
	}
	client, err := jira.NewClient(cfg, jira.WithLogger(a.logger))
	if err != nil {
		return nil, rferrors.Explain(err, "Jira", cfg.URL)
	}
	return reviewflow.NewJiraTickets(client, reviewflow.JiraTicketsConfig{
		Project:         a.settings.Jira.Project,
		IssueType:       a.settings.Jira.IssueType,
		RepositoryField: a.settings.Jira.RepositoryField,
		Logger:          a.logger,
	}), nil
}

// newChat returns nil when Slack is not configured; chat steps then
// degrade without stopping the review.
func (a *app) newChat() (*reviewflow.SlackChat, error) {
	cfg, err := a.settings.SlackConfig()
	if errors.Is(err, config.ErrSlackNotConfigured) {
		a.logger.Warn("slack is not configured, chat updates are skipped")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	client, err := slack.NewClient(cfg, slack.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	return reviewflow.NewSlackChat(client), nil
}

func newHosts(h config.HostingSettings) (repo.Hosts, error) {
	gh, err := repo.NewGitHubHost(h.GitHubToken, h.GitHubAPIURL)
	if err != nil {
		return nil, err
	}
	gl, err := repo.NewGitLabHost(h.GitLabToken, h.GitLabAPIURL)
	if err != nil {
		return nil, err
	}
	return repo.Hosts{repo.PlatformGitHub: gh, repo.PlatformGitLab: gl}, nil
}
