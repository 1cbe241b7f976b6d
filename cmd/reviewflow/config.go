package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/reviewflow/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Show configuration with the source of each value",
		Annotations: map[string]string{annotationConfigTolerant: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tVALUE\tSOURCE")
			for _, key := range config.KeyNames() {
				value := a.resolved.Display(key)
				if value == "" {
					value = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", key, value, a.resolved.Source(key))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "\nglobal: %s\n", orDash(a.resolver.GlobalPath()))
			fmt.Fprintf(a.out, "local:  %s\n", orDash(a.resolver.LocalPath()))
			return nil
		},
	}
	cmd.AddCommand(newConfigGetCmd(a), newConfigSetCmd(a), newConfigUnsetCmd(a), newConfigKeysCmd(a))
	return cmd
}

func newConfigGetCmd(a *app) *cobra.Command {
	var reveal bool
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print one configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if _, ok := config.LookupKey(key); !ok {
				return fmt.Errorf("unknown config key %q", key)
			}
			value := a.resolved.Display(key)
			if reveal {
				value = a.resolved.Get(key)
			}
			fmt.Fprintln(a.out, value)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "print secrets unmasked")
	return cmd
}

func newConfigSetCmd(a *app) *cobra.Command {
	var local bool
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value in the global or local file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			save := config.NewSaveConfig(a.resolver)
			target := save.GlobalPath
			var err error
			if local {
				target = save.LocalPath
				err = save.SaveLocal(args[0], args[1])
			} else {
				err = save.SaveGlobal(args[0], args[1])
			}
			if err != nil {
				return err
			}
			if target == "" {
				target = config.DefaultGlobalPath()
			}
			fmt.Fprintf(a.out, "Set %s in %s\n", args[0], target)
			return nil
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "write to the repository's .reviewflow.yaml")
	return cmd
}

func newConfigUnsetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a value from the global configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.NewSaveConfig(a.resolver).DeleteGlobalKey(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Removed %s\n", args[0])
			return nil
		},
	}
}

func newConfigKeysCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Describe every configuration key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tDEFAULT\tDESCRIPTION")
			for _, k := range config.Keys() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", k.Name, orDash(k.Default), k.Description)
			}
			return w.Flush()
		},
	}
}
