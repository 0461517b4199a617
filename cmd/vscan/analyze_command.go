package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"violence-scanner/internal/classifier"
	"violence-scanner/internal/domain"
	"violence-scanner/internal/scan"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "analyze <video>",
		Short: "Classify a local video for violent content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.ensureSettings()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}

			video, err := domain.VideoFromPath(args[0])
			if err != nil {
				return err
			}

			timeout := time.Duration(settings.RequestTimeoutSeconds) * time.Second
			controller := scan.NewController(scan.Config{
				Classifier: classifier.NewClient(settings.ServiceURL, timeout, logger),
				Logger:     logger,
			})
			defer controller.Close()

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			snap, err := runScan(sigCtx, controller, video)
			if err != nil && !errors.Is(err, scan.ErrFileTooLarge) {
				return err
			}

			if jsonOutput {
				if err := writeJSON(cmd, snap); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), renderScanSnapshot(snap, shouldColorize(cmd.OutOrStdout())))
			}
			return scanExitError(snap)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the final state as JSON")
	return cmd
}

// runScan selects and submits video, cancelling the scan when ctx ends first.
func runScan(ctx context.Context, controller *scan.Controller, video domain.Video) (domain.Snapshot, error) {
	if _, err := controller.SelectFile(video); err != nil {
		return domain.Snapshot{}, err
	}
	session, err := controller.Submit()
	if err != nil {
		return controller.Snapshot(), err
	}

	select {
	case <-session.Done():
	case <-ctx.Done():
		_ = controller.Cancel()
		<-session.Done()
	}
	return controller.Snapshot(), nil
}

// scanExitError maps the final state to the command's exit status.
func scanExitError(snap domain.Snapshot) error {
	switch {
	case snap.Status == domain.StatusError:
		return errors.New(snap.Error)
	case snap.Result.IsStopped():
		return context.Canceled
	default:
		return nil
	}
}
