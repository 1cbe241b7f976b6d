package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/reviewflow/config"
)

// app carries what every command needs once flags are parsed.
type app struct {
	resolver *config.Resolver
	resolved *config.Resolved
	settings config.Settings
	logger   *slog.Logger
	out      io.Writer
	errOut   io.Writer
	styles   styles

	// ask is nil when the session is not interactive.
	ask prompter
}

type rootOptions struct {
	logLevel  string
	logFormat string
	overrides []string // key=value
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	a := &app{}

	cmd := &cobra.Command{
		Use:           "reviewflow",
		Short:         "AI code reviews with ticket and chat reporting",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd, opts)
		},
		RunE: func(c *cobra.Command, _ []string) error { return c.Help() },
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	flags.StringArrayVar(&opts.overrides, "set", nil, "override a config key for this run (key=value, repeatable)")

	cmd.AddCommand(newReviewCmd(a))
	cmd.AddCommand(newResumeCmd(a))
	cmd.AddCommand(newRunsCmd(a))
	cmd.AddCommand(newShowCmd(a))
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newReportsCmd(a))
	cmd.AddCommand(newMCPCmd(a))

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return fmt.Errorf("%w\n\n%s", err, c.UsageString())
	})
	return cmd
}

func (a *app) init(cmd *cobra.Command, opts *rootOptions) error {
	a.out = cmd.OutOrStdout()
	a.errOut = cmd.ErrOrStderr()

	logger, err := newLogger(a.errOut, opts.logLevel, opts.logFormat)
	if err != nil {
		return err
	}
	a.logger = logger
	slog.SetDefault(logger)

	flags, err := parseOverrides(opts.overrides)
	if err != nil {
		return err
	}
	a.resolver = config.NewResolver(config.Options{ErrWriter: a.errOut})
	a.resolved = a.resolver.Resolve(flags)
	a.settings, err = a.resolved.Settings()
	if err != nil {
		if !tolerantOfConfig(cmd) {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		a.logger.Warn("invalid configuration", "error", err)
	}
	a.styles = newStyles(a.settings.NoColor)
	if interactive() {
		a.ask = teaPrompter(cmd.InOrStdin(), a.out, a.styles)
	}
	return nil
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", level)
	}
	handlerOpts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text", "":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q (want text or json)", format)
	}
}

func parseOverrides(pairs []string) (map[string]string, error) {
	flags := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q (want key=value)", p)
		}
		if _, known := config.LookupKey(key); !known {
			return nil, fmt.Errorf("unknown config key %q", key)
		}
		flags[key] = value
	}
	return flags, nil
}

// annotationConfigTolerant marks commands that must run even when the
// configuration does not parse, so it can be repaired.
const annotationConfigTolerant = "config-tolerant"

func tolerantOfConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationConfigTolerant] == "true" {
			return true
		}
	}
	return false
}
