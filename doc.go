// Package reviewflow runs automated code reviews of GitHub and GitLab
// repositories as a resumable, step-by-step workflow.
//
// A review request in free text ("review https://github.com/acme/api for
// security") becomes a State Record that the workflow Engine drives through
// ten steps: parse and validate the repository, open a ticket, start a chat
// thread, clone, mark the ticket in progress, analyze every file with a
// language model, synthesize the report, and publish it to the ticket and
// the chat.
//
// The package is organized into subpackages by domain:
//
//   - workflow: State Record, Router and Engine
//   - intent: request parsing (LLM with regex fallback)
//   - analyzer: per-file LLM review and external tools
//   - repo, git: cloning, file discovery, hosting metadata
//   - jira, slack: ticket and chat clients
//   - artifact: JSON report files
//   - store: persisted runs for resume
//   - notify: progress events
//   - mcpserver: review tools for MCP clients
//   - config: layered configuration
//   - prompt, task: prompt templates and model selection
//   - http: HTTP client utilities and error taxonomy
//   - testutil: test helpers
//
// # Quick Start
//
//	services := &reviewflow.Services{
//	    Parser:   intent.NewLLMParser(client),
//	    Tickets:  reviewflow.NewJiraTickets(jiraClient, reviewflow.JiraTicketsConfig{Project: "REV"}),
//	    Chat:     reviewflow.NewSlackChat(slackClient),
//	    Fetcher:  repo.NewFetcher(""),
//	    Analyzer: analyzer.NewLLMAnalyzer(client),
//	}
//	reviewer, err := reviewflow.NewReviewer(services, runStore)
//	if err != nil {
//	    return err
//	}
//	state, err := reviewer.Start(ctx, "review https://github.com/acme/api", "U123", "C456")
//
// A run that needs a repository reference stops with Status
// workflow.StatusAwaitingInput; Reviewer.Resume continues it with the
// requester's answer.
package reviewflow
