// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/medibrief/internal/ledger"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent runs and per-item outcomes from the ledger",
	Long: `Status lists recent runs with their success and failure counts, then the
items of one run (the latest unless --run is given) with the stage each
reached and any error.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().String("topic", "", "show only items for this topic")
	statusCmd.Flags().String("run", "", "show items for this run ID (default: latest run)")
	statusCmd.Flags().Int("limit", 10, "number of runs to list")
	statusCmd.Flags().Bool("yaml", false, "output as YAML")
	rootCmd.AddCommand(statusCmd)
}

// statusReport is the YAML form of the status output.
type statusReport struct {
	Runs  []ledger.Run   `yaml:"runs"`
	RunID string         `yaml:"run_id,omitempty"`
	Items []ledger.Entry `yaml:"items"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	led, err := ledger.Open(filepath.Join(cfg.OutputDir, ledger.DBFile))
	if err != nil {
		return err
	}
	defer led.Close()

	topic, _ := cmd.Flags().GetString("topic")
	runID, _ := cmd.Flags().GetString("run")
	limit, _ := cmd.Flags().GetInt("limit")
	asYAML, _ := cmd.Flags().GetBool("yaml")

	rep, err := collectStatus(cmd.Context(), led, runID, topic, limit)
	if err != nil {
		return err
	}
	if asYAML {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		defer enc.Close()
		return enc.Encode(rep)
	}
	printStatus(cmd.OutOrStdout(), rep)
	return nil
}

func collectStatus(ctx context.Context, led *ledger.Ledger, runID, topic string, limit int) (statusReport, error) {
	var rep statusReport
	runs, err := led.Runs(ctx, limit)
	if err != nil {
		return rep, err
	}
	rep.Runs = runs

	if runID == "" {
		if runID, err = led.LatestRunID(ctx); err != nil {
			return rep, err
		}
	}
	if runID == "" {
		return rep, nil
	}
	rep.RunID = runID
	rep.Items, err = led.Items(ctx, runID, topic)
	return rep, err
}

func printStatus(w io.Writer, rep statusReport) {
	if len(rep.Runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	fmt.Fprintf(w, "%-36s  %-20s  %-8s  %9s  %6s  %s\n", "Run", "Started", "State", "Succeeded", "Failed", "Topics")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, r := range rep.Runs {
		state := "running"
		if r.FinishedAt != nil {
			state = "finished"
		}
		fmt.Fprintf(w, "%-36s  %-20s  %-8s  %9d  %6d  %s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), state,
			r.Succeeded, r.Failed, strings.Join(r.Topics, ", "))
	}

	if rep.RunID == "" {
		return
	}
	fmt.Fprintf(w, "\nItems for run %s:\n", rep.RunID)
	if len(rep.Items) == 0 {
		fmt.Fprintln(w, "No items recorded.")
		return
	}
	fmt.Fprintf(w, "%-16s  %-14s  %-9s  %-14s  %s\n", "Topic", "Document", "Status", "Stage", "Detail")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, e := range rep.Items {
		detail := e.PlatformURL
		if e.Status == ledger.StatusFailed {
			detail = e.Error
		}
		if len(detail) > 60 {
			detail = detail[:57] + "..."
		}
		fmt.Fprintf(w, "%-16s  %-14s  %-9s  %-14s  %s\n", e.Topic, e.DocID, e.Status, e.Stage, detail)
	}
}
