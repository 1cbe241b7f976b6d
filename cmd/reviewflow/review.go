package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/user"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/reviewflow/workflow"
)

// reviewRunner is the part of reviewflow.Reviewer the commands drive.
type reviewRunner interface {
	Start(ctx context.Context, requestText, requesterID, channel string) (workflow.State, error)
	Resume(ctx context.Context, runID, input string) (workflow.State, error)
	Continue(ctx context.Context, runID string) (workflow.State, error)
}

const (
	repoQuestion    = "Which repository should be reviewed?"
	repoPlaceholder = "https://github.com/org/repo"
)

func newReviewCmd(a *app) *cobra.Command {
	var repoURL, channel, requester string

	cmd := &cobra.Command{
		Use:   "review [request...]",
		Short: "Start a code review",
		Long: `Start a code review from a free-text request.

The request names the repository URL and optionally a focus such as
security, performance or style. When no repository can be found the run
waits for one; in a terminal you are asked for it directly.`,
		Example: `  reviewflow review "security review of https://github.com/acme/api"
  reviewflow review --repo https://gitlab.com/acme/web`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(append(args, repoURL), " "))
			if text == "" {
				if a.ask == nil {
					return errors.New("a review request is required (pass it as an argument or use --repo)")
				}
				answer, err := a.ask("What should be reviewed?", "security review of "+repoPlaceholder, "")
				if err != nil {
					return err
				}
				text = answer
			}
			if channel == "" {
				channel = a.settings.Slack.Channel
			}
			if requester == "" {
				requester = currentUser()
			}

			reviewer, st, err := a.newReviewer()
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			state, runErr := reviewer.Start(ctx, text, requester, channel)
			return drive(ctx, reviewer, state, runErr, a.ask, a.out, a.styles)
		},
	}
	cmd.Flags().StringVar(&repoURL, "repo", "", "repository URL to review")
	cmd.Flags().StringVar(&channel, "channel", "", "chat channel for progress updates (default: slack_channel)")
	cmd.Flags().StringVar(&requester, "requester", "", "requester recorded on the run (default: current user)")
	return cmd
}

func newResumeCmd(a *app) *cobra.Command {
	var repoURL string
	cmd := &cobra.Command{
		Use:   "resume <run-id> [repository]",
		Short: "Resume a waiting or failed review",
		Long: `Resume a stored review run.

With a repository (argument or --repo) the text is fed to a run that is waiting for
input. Without one the run continues from its last completed step, which
retries a failed step.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reviewer, st, err := a.newReviewer()
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			runID, err := st.Resolve(ctx, args[0])
			if err != nil {
				return err
			}

			input := repoURL
			if len(args) == 2 {
				input = args[1]
			}

			var state workflow.State
			if input != "" {
				state, err = reviewer.Resume(ctx, runID, input)
			} else {
				state, err = st.Load(ctx, runID)
				if err == nil && state.Status != workflow.StatusAwaitingInput {
					state, err = reviewer.Continue(ctx, runID)
				}
			}
			if errors.Is(err, workflow.ErrRunCompleted) {
				return fmt.Errorf("run %s has already completed", runID)
			}
			return drive(ctx, reviewer, state, err, a.ask, a.out, a.styles)
		},
	}
	cmd.Flags().StringVar(&repoURL, "repo", "", "repository URL for a run waiting for input")
	return cmd
}

// drive prompts for a repository for as long as the run waits for one,
// then prints the outcome.
func drive(ctx context.Context, r reviewRunner, state workflow.State, err error, ask prompter, out io.Writer, st styles) error {
	for err == nil && state.Status == workflow.StatusAwaitingInput && ask != nil {
		answer, perr := ask(repoQuestion, repoPlaceholder, state.ValidationError)
		if errors.Is(perr, errPromptCancelled) {
			break
		}
		if perr != nil {
			return perr
		}
		state, err = r.Resume(ctx, state.RunID, answer)
	}

	if state.RunID != "" {
		fmt.Fprint(out, renderState(state, st))
	}
	if err == nil && state.Status == workflow.StatusAwaitingInput {
		fmt.Fprintf(out, "\nWaiting for a repository. Resume with:\n  reviewflow resume %s %s\n", state.RunID, repoPlaceholder)
	}
	// A failed step is an outcome of the run, not of the command.
	if step, ok := workflow.FailedStep(err); ok {
		fmt.Fprintf(out, "\nReview stopped at %s. Fix the problem and retry with:\n  reviewflow resume %s\n", step, state.RunID)
		return nil
	}
	return err
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "cli"
}
