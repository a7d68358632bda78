// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/medibrief/internal/ledger"
	"github.com/pdiddy/medibrief/internal/pipeline"
	"github.com/pdiddy/medibrief/pkg/types"
)

func writeConfig(t *testing.T, mutate func(map[string]any)) string {
	t.Helper()
	data, err := yaml.Marshal(types.DefaultConfig())
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(data, &raw))
	if mutate != nil {
		mutate(raw)
	}
	data, err = yaml.Marshal(raw)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "medibrief.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func useConfig(t *testing.T, path string) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	configureViper(path)
}

func TestLoadConfig(t *testing.T) {
	useConfig(t, writeConfig(t, nil))
	t.Setenv("MEDIBRIEF_PIPELINE_MAX_CONCURRENT_PAPERS", "4")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"cardiology", "oncology", "neurology"}, cfg.Topics())
	assert.Equal(t, 4, cfg.Pipeline.MaxConcurrentPapers, "environment overrides the file")
	assert.Equal(t, "medibrief-videos", cfg.Storage.Buckets.Videos)
	assert.Equal(t, 10.0, cfg.Video.Timing.SlideDuration)
}

func TestLoadConfig_MissingSection(t *testing.T) {
	useConfig(t, writeConfig(t, func(raw map[string]any) { delete(raw, "tts") }))

	_, err := loadConfig()
	var ce *types.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "tts", ce.Section)
}

func TestLoadConfig_InvalidField(t *testing.T) {
	useConfig(t, writeConfig(t, func(raw map[string]any) {
		raw["pipeline"].(map[string]any)["max_concurrent_papers"] = 0
	}))

	_, err := loadConfig()
	var ce *types.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "max_concurrent_papers", ce.Field)
}

func TestInitWorkspace(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	require.NoError(t, initWorkspace(dir, false, &out))
	assert.Contains(t, out.String(), "Wrote")
	for _, d := range []string{"output", "temp", "credentials", "logs", ".secrets"} {
		assert.DirExists(t, filepath.Join(dir, d))
	}

	data, err := os.ReadFile(filepath.Join(dir, defaultConfigFile))
	require.NoError(t, err)
	cfg, err := types.ParseConfig(data)
	require.NoError(t, err, "the scaffold is a valid config")
	assert.True(t, cfg.YouTube.DryRun)

	require.NoError(t, os.WriteFile(filepath.Join(dir, defaultConfigFile), []byte("custom"), 0o644))
	out.Reset()
	require.NoError(t, initWorkspace(dir, false, &out))
	assert.Contains(t, out.String(), "already exists")
	data, _ = os.ReadFile(filepath.Join(dir, defaultConfigFile))
	assert.Equal(t, "custom", string(data))

	require.NoError(t, initWorkspace(dir, true, &out))
	data, _ = os.ReadFile(filepath.Join(dir, defaultConfigFile))
	assert.NotEqual(t, "custom", string(data))
}

func TestNewLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "m.log")
	logger, closeFn, err := newLogger(types.LoggingConfig{Level: "warn", File: path, Format: "json"}, false)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), `"msg":"shown"`)

	logger, closeFn, err = newLogger(types.LoggingConfig{Level: "error"}, true)
	require.NoError(t, err)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug), "--debug wins over the configured level")
	assert.NoError(t, closeFn())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, 3, orDefault(3, 7))
	assert.Equal(t, 7, orDefault(0, 7))
	assert.Equal(t, 7, orDefault(-1, 7))
}

func TestPrintSummary(t *testing.T) {
	start := time.Date(2026, 10, 1, 6, 0, 0, 0, time.UTC)
	var out bytes.Buffer
	printSummary(&out, pipeline.RunSummary{
		RunID:      "r1",
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
		Topics: []pipeline.TopicSummary{
			{Topic: "cardiology", Total: 3, Succeeded: 2, Failed: 1},
		},
		Skipped: []string{"oncology"},
	})
	s := out.String()
	assert.Contains(t, s, "Run r1 finished in 1m30s")
	assert.Contains(t, s, "cardiology")
	assert.Contains(t, s, fmt.Sprintf("%-30s  discovery failed", "oncology"))
	assert.Contains(t, s, "2 succeeded, 1 failed")
}

func TestStatus(t *testing.T) {
	led, err := ledger.Open(filepath.Join(t.TempDir(), ledger.DBFile))
	require.NoError(t, err)
	defer led.Close()
	ctx := context.Background()

	var out bytes.Buffer
	rep, err := collectStatus(ctx, led, "", "", 10)
	require.NoError(t, err)
	printStatus(&out, rep)
	assert.Equal(t, "No runs recorded.\n", out.String())

	t0 := time.Date(2026, 10, 1, 6, 0, 0, 0, time.UTC)
	require.NoError(t, led.StartRun(ctx, "old", []string{"cardiology"}, t0))
	require.NoError(t, led.StartRun(ctx, "new", []string{"cardiology", "oncology"}, t0.Add(time.Hour)))
	require.NoError(t, led.Record(ctx, ledger.Entry{RunID: "new", Topic: "cardiology", DocID: "1",
		Stage: types.StageSucceeded, Status: ledger.StatusSucceeded, PlatformURL: "https://youtu.be/x", UpdatedAt: t0}))
	require.NoError(t, led.Record(ctx, ledger.Entry{RunID: "new", Topic: "oncology", DocID: "2",
		Stage: types.StageSummarized, Status: ledger.StatusFailed, Error: strings.Repeat("e", 80), UpdatedAt: t0}))

	rep, err = collectStatus(ctx, led, "", "", 10)
	require.NoError(t, err)
	assert.Equal(t, "new", rep.RunID, "defaults to the latest run")
	require.Len(t, rep.Runs, 2)
	assert.Len(t, rep.Items, 2)

	out.Reset()
	printStatus(&out, rep)
	s := out.String()
	assert.Contains(t, s, "Items for run new:")
	assert.Contains(t, s, "https://youtu.be/x")
	assert.Contains(t, s, strings.Repeat("e", 57)+"...")

	rep, err = collectStatus(ctx, led, "new", "oncology", 10)
	require.NoError(t, err)
	require.Len(t, rep.Items, 1)
	assert.Equal(t, "2", rep.Items[0].DocID)
}
