package main

import (
	"github.com/spf13/cobra"

	"github.com/randalmurphal/reviewflow/mcpserver"
)

func newMCPCmd(a *app) *cobra.Command {
	var channel string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve review tools over MCP on stdio",
		Long: `Run an MCP server on stdin/stdout exposing review_repository,
review_status and resume_review, for use from an MCP-capable assistant.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reviewer, st, err := a.newReviewer()
			if err != nil {
				return err
			}
			defer st.Close()

			if channel == "" {
				channel = a.settings.Slack.Channel
			}
			s := mcpserver.New(reviewer, st, mcpserver.Options{Channel: channel})
			return mcpserver.Serve(s)
		},
	}
	cmd.Flags().StringVar(&channel, "channel", "", "chat channel for reviews started over MCP (default: slack_channel)")
	return cmd
}
