package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/reviewflow/store"
	"github.com/randalmurphal/reviewflow/workflow"
)

func newRunsCmd(a *app) *cobra.Command {
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored review runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := store.ListOptions{Status: workflow.Status(status), Limit: limit}
			switch opts.Status {
			case "", workflow.StatusRunning, workflow.StatusAwaitingInput, workflow.StatusCompleted, workflow.StatusFailed:
			default:
				return fmt.Errorf("invalid --status %q", status)
			}

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.List(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Fprint(a.out, renderRuns(runs, a.styles, time.Now()))
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only runs with this status (running, awaiting_input, completed, failed)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")
	cmd.AddCommand(newRunsDeleteCmd(a))
	return cmd
}

func newRunsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <run-id>...",
		Aliases: []string{"rm"},
		Short:   "Delete stored runs and their events",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			for _, arg := range args {
				runID, err := st.Resolve(ctx, arg)
				if err != nil {
					return err
				}
				if err := st.Delete(ctx, runID); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Deleted %s\n", runID)
			}
			return nil
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	var events, asJSON bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one review run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			runID, err := st.Resolve(ctx, args[0])
			if err != nil {
				return err
			}
			state, err := st.Load(ctx, runID)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(state)
			}
			fmt.Fprint(a.out, renderState(state, a.styles))
			if events {
				evs, err := st.Events(ctx, runID)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out)
				fmt.Fprint(a.out, renderEvents(evs, a.styles))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&events, "events", false, "include the run's event history")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the stored state as JSON")
	return cmd
}
