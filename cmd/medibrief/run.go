// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/medibrief/internal/pipeline"
	"github.com/pdiddy/medibrief/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Discover, process and publish papers once",
	Long: `Run executes one pass of the pipeline: for each topic it discovers recent
papers, then extracts, summarizes, narrates, renders and publishes each one.
Item failures are recorded in error.json and the ledger and do not fail the
run; the command exits non-zero only for configuration or setup errors.`,
	RunE: runRun,
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

// addRunFlags registers the per-run overrides shared by run and schedule.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("topic", "", "process only this topic instead of the configured specialties")
	cmd.Flags().Int("days", 0, "look back this many days (default: pubmed.time_period_days)")
	cmd.Flags().Int("max-papers", 0, "maximum papers per topic (default: pubmed.max_results_per_query)")
	cmd.Flags().Bool("dry-run", false, "render videos but do not publish them")
}

// setup loads configuration, applies the run flags and builds the logger
// and application.
func setup(ctx context.Context, cmd *cobra.Command) (*app, *slog.Logger, func() error, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	opts := runFlags(cmd, cfg)

	debug, _ := cmd.Flags().GetBool("debug")
	logger, closeLog, err := newLogger(cfg.Logging, debug)
	if err != nil {
		return nil, nil, nil, err
	}

	a, err := buildApp(ctx, cfg, opts, logger)
	if err != nil {
		_ = closeLog()
		return nil, nil, nil, err
	}
	return a, logger, closeLog, nil
}

func runFlags(cmd *cobra.Command, cfg *types.Config) runOptions {
	var opts runOptions
	if topic, _ := cmd.Flags().GetString("topic"); strings.TrimSpace(topic) != "" {
		opts.topics = []string{strings.TrimSpace(topic)}
	}
	opts.days, _ = cmd.Flags().GetInt("days")
	opts.maxResults, _ = cmd.Flags().GetInt("max-papers")
	if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
		cfg.YouTube.DryRun = true
	}
	return opts
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, _, closeLog, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeLog()
	defer a.Close()

	sum, err := a.orch.Run(ctx)
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), sum)
	return nil
}

// printSummary writes the per-topic outcome table.
func printSummary(w io.Writer, sum pipeline.RunSummary) {
	fmt.Fprintf(w, "Run %s finished in %s\n\n", sum.RunID, sum.FinishedAt.Sub(sum.StartedAt).Round(time.Second))
	fmt.Fprintf(w, "%-30s  %6s  %9s  %6s\n", "Topic", "Total", "Succeeded", "Failed")
	fmt.Fprintln(w, strings.Repeat("-", 57))
	for _, t := range sum.Topics {
		fmt.Fprintf(w, "%-30s  %6d  %9d  %6d\n", t.Topic, t.Total, t.Succeeded, t.Failed)
	}
	for _, t := range sum.Skipped {
		fmt.Fprintf(w, "%-30s  %s\n", t, "discovery failed")
	}
	fmt.Fprintf(w, "\n%d succeeded, %d failed\n", sum.Succeeded(), sum.Failed())
}
