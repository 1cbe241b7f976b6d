package main

import (
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/reviewflow/artifact"
)

func (a *app) reportWriter() *artifact.Writer {
	return artifact.NewWriter(afero.NewOsFs(), a.settings.ReportDir)
}

func newReportsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List saved JSON review reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos, err := a.reportWriter().List()
			if err != nil {
				return err
			}
			fmt.Fprint(a.out, renderReports(infos, a.styles, time.Now()))
			return nil
		},
	}
	cmd.AddCommand(newReportsShowCmd(a), newReportsPruneCmd(a))
	return cmd
}

func newReportsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <ticket-or-file>",
		Short: "Summarize a saved report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.reportWriter().Load(args[0])
			if err != nil {
				return err
			}
			st := a.styles
			fmt.Fprintln(a.out, st.title.Render(report.Repository))
			fmt.Fprintf(a.out, "  score     %s\n", st.score(report.OverallScore))
			fmt.Fprintf(a.out, "  files     %d\n", report.FilesReviewed)
			fmt.Fprintf(a.out, "  critical  %s\n", countStyle(st.bad, report.CriticalIssuesCount))
			fmt.Fprintf(a.out, "  high      %s\n", countStyle(st.warn, report.HighIssuesCount))
			for _, f := range report.Findings {
				fmt.Fprintf(a.out, "  %s %s\n", st.score(f.Score), f.File)
			}
			return nil
		},
	}
}

func newReportsPruneCmd(a *app) *cobra.Command {
	var olderThan time.Duration
	var keep int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.reportWriter().Prune(time.Now().Add(-olderThan), keep, dryRun)
			if err != nil {
				return err
			}
			verb := "Deleted"
			if dryRun {
				verb = "Would delete"
			}
			for _, name := range res.Deleted {
				fmt.Fprintf(a.out, "%s %s\n", verb, name)
			}
			for _, e := range res.Errors {
				fmt.Fprintln(a.errOut, a.styles.bad.Render(e))
			}
			fmt.Fprintf(a.out, "%d deleted, %d kept\n", len(res.Deleted), len(res.Kept))
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "delete reports last modified before this age")
	cmd.Flags().IntVar(&keep, "keep", 10, "always keep this many newest reports")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list what would be deleted")
	return cmd
}
