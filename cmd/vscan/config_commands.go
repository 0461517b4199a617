package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"violence-scanner/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Settings utilities",
	}

	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigPathCommand(ctx))
	configCmd.AddCommand(newConfigSetServiceCommand(ctx))

	return configCmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.ensureSettings()
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, settings)
			}

			rows := [][]string{
				{"service_url", settings.ServiceURL},
				{"request_timeout_seconds", strconv.Itoa(settings.RequestTimeoutSeconds)},
				{"log_level", settings.LogLevel},
				{"log_format", settings.LogFormat},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Key", "Value"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print settings as JSON")
	return cmd
}

func newConfigPathCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "path",
		Short:       "Print the settings file location",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), ctx.settingsStore().Path())
			return nil
		},
	}
}

func newConfigSetServiceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "set-service <url>",
		Short:       "Persist the classification service address",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := strings.TrimSpace(args[0])
			parsed, err := url.Parse(raw)
			if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
				return fmt.Errorf("service address must be an http(s) URL: %q", raw)
			}

			store := ctx.settingsStore()
			settings, err := store.Load()
			if err != nil {
				return fmt.Errorf("load settings: %w", err)
			}
			settings.ServiceURL = raw
			settings = config.Normalize(settings)
			if err := store.Save(settings); err != nil {
				return fmt.Errorf("save settings: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Service address set to %s in %s\n", settings.ServiceURL, store.Path())
			return nil
		},
	}
}
