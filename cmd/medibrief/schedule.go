// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

const defaultSchedule = "0 0 6 * * *"

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on a cron schedule",
	Long: `Schedule runs the pipeline whenever the cron expression fires, until
interrupted. The expression has a leading seconds field. A run that is
still in progress when the next one is due causes that tick to be skipped.`,
	RunE: runSchedule,
}

func init() {
	addRunFlags(scheduleCmd)
	scheduleCmd.Flags().String("cron", defaultSchedule, "cron expression with seconds field")
	rootCmd.AddCommand(scheduleCmd)
}

// cronLogger routes cron's logging to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	expr, _ := cmd.Flags().GetString("cron")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, logger, closeLog, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeLog()
	defer a.Close()

	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	_, err = c.AddFunc(expr, func() {
		sum, err := a.orch.Run(ctx)
		if err != nil {
			logger.Error("scheduled run failed", "error", err)
			return
		}
		printSummary(cmd.OutOrStdout(), sum)
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}

	logger.Info("scheduler started", "cron", expr)
	c.Start()
	<-ctx.Done()
	logger.Info("scheduler stopping, waiting for the current run")
	<-c.Stop().Done()
	return nil
}
