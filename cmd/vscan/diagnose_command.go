package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"violence-scanner/internal/classifier"
	"violence-scanner/internal/diagnostics"
)

func newDiagnoseCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Check the service address, service health, and settings directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.ensureSettings()
			if err != nil {
				return err
			}

			checker := diagnostics.NewChecker(classifier.Probe, ctx.settingsStore().Path())
			report := checker.Run(cmd.Context(), settings)

			if jsonOutput {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), renderDiagnostics(report, shouldColorize(cmd.OutOrStdout())))
			}
			if report.HasFailures {
				return errors.New("diagnostics reported failures")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON")
	return cmd
}
