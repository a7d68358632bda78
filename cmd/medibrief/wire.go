// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/auth/credentials"
	"google.golang.org/api/option"

	"github.com/pdiddy/medibrief/internal/acquire"
	"github.com/pdiddy/medibrief/internal/adapter"
	"github.com/pdiddy/medibrief/internal/container"
	"github.com/pdiddy/medibrief/internal/convert"
	"github.com/pdiddy/medibrief/internal/discovery"
	"github.com/pdiddy/medibrief/internal/extract"
	"github.com/pdiddy/medibrief/internal/figures"
	"github.com/pdiddy/medibrief/internal/layout"
	"github.com/pdiddy/medibrief/internal/ledger"
	"github.com/pdiddy/medibrief/internal/narration"
	"github.com/pdiddy/medibrief/internal/pipeline"
	"github.com/pdiddy/medibrief/internal/publish"
	"github.com/pdiddy/medibrief/internal/storage"
	"github.com/pdiddy/medibrief/internal/summarize"
	"github.com/pdiddy/medibrief/internal/video"
	"github.com/pdiddy/medibrief/pkg/types"
)

const (
	httpTimeout        = 60 * time.Second
	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
)

// requiredPrograms must be on PATH before a run starts.
var requiredPrograms = []string{"ffmpeg", "ffprobe", "pdftoppm", "tesseract"}

// app holds the wired orchestrator and the resources it owns.
type app struct {
	orch   *pipeline.Orchestrator
	ledger *ledger.Ledger
}

func (a *app) Close() error {
	if a.ledger != nil {
		return a.ledger.Close()
	}
	return nil
}

// runOptions are the per-invocation overrides from the command line.
type runOptions struct {
	topics     []string
	days       int
	maxResults int
}

// googleOptions authenticates Google API clients with the configured
// credentials file or Application Default Credentials.
func googleOptions(cfg *types.Config) ([]option.ClientOption, error) {
	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		Scopes:          []string{cloudPlatformScope},
		CredentialsFile: cfg.Credentials.GoogleApplicationCredentials,
	})
	if err != nil {
		return nil, fmt.Errorf("detecting Google credentials: %w", err)
	}
	return []option.ClientOption{option.WithAuthCredentials(creds)}, nil
}

// buildApp constructs every stage from cfg.
func buildApp(ctx context.Context, cfg *types.Config, opts runOptions, logger *slog.Logger) (*app, error) {
	exec := container.OSExecutor{}
	if err := container.Require(exec, requiredPrograms...); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	retries := adapter.Options{MaxAttempts: cfg.Pipeline.MaxRetries, BaseDelay: cfg.Pipeline.RetryDelay()}
	aiOpts := func(rate float64) adapter.Options {
		return adapter.Options{RateLimit: rate, MaxAttempts: adapter.AIAttempts, BaseDelay: cfg.Pipeline.RetryDelay()}
	}
	uploads := adapter.Options{MaxAttempts: adapter.UploadAttempts, BaseDelay: cfg.Pipeline.RetryDelay()}

	client := &http.Client{Timeout: httpTimeout}

	discOpts := retries
	discOpts.RateLimit = cfg.PubMed.RateLimit
	backend, err := discovery.NewBackend(cfg, client, adapter.New(cfg.PubMed.Backend, discOpts, logger))
	if err != nil {
		return nil, err
	}

	resolver := &acquire.OpenAlexResolver{
		Client:    client,
		Adapter:   adapter.New("openalex", retries, logger),
		Email:     cfg.APIKeys.OpenAlexEmail,
		UserAgent: cfg.PubMed.UserAgent,
	}

	conv, err := convert.New(ctx, cfg.PDFProcessing.Converter, exec)
	if err != nil {
		return nil, err
	}

	gen, err := summarize.NewGenAIGenerator(ctx, cfg, summarize.GenAIOptions{})
	if err != nil {
		return nil, err
	}

	gopts, err := googleOptions(cfg)
	if err != nil {
		return nil, err
	}
	vision, err := figures.NewVisionAnalyzer(ctx, cfg.ImageAnalysis.VisionAI, gopts...)
	if err != nil {
		return nil, err
	}
	tts, err := narration.NewTTSSynthesizer(ctx, cfg.TTS, gopts...)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewGCS(ctx, cfg.APIKeys.GCPProjectID, cfg.Storage,
		adapter.New("storage", uploads, logger), logger, gopts...)
	if err != nil {
		return nil, err
	}

	publisher, err := newPublisher(ctx, cfg, adapter.New("youtube", uploads, logger), logger)
	if err != nil {
		return nil, err
	}

	led, err := ledger.Open(filepath.Join(cfg.OutputDir, ledger.DBFile))
	if err != nil {
		return nil, err
	}

	p := &pipeline.Pipeline{
		Config:   cfg,
		Layout:   layout.New(cfg.OutputDir),
		Resolver: resolver,
		Extractor: &extract.Extractor{
			Converter: conv,
			Exec:      exec,
			Config:    cfg.PDFProcessing,
			Logger:    logger,
		},
		Summarizer: &summarize.Summarizer{
			Generator: gen,
			Adapter:   adapter.New("genai", aiOpts(cfg.AIProcessing.RateLimit), logger),
			Config:    cfg.AIProcessing,
			Logger:    logger,
		},
		Ranker: &figures.Ranker{
			Analyzer: vision,
			Adapter:  adapter.New("vision", aiOpts(cfg.ImageAnalysis.RateLimit), logger),
			Config:   cfg.ImageAnalysis.FigureSelection,
			Logger:   logger,
		},
		Narrator: &narration.Narrator{
			Synthesizer: tts,
			Adapter:     adapter.New("tts", aiOpts(cfg.TTS.RateLimit), logger),
			Exec:        exec,
			Config:      cfg.TTS,
			Logger:      logger,
		},
		Renderer:  &video.FFmpegRenderer{Exec: exec, Config: cfg.Video, Logger: logger},
		Store:     store,
		Publisher: publisher,
		Ledger:    led,
		Logger:    logger,
	}

	topics := opts.topics
	if len(topics) == 0 {
		topics = cfg.Topics()
	}
	return &app{
		orch: &pipeline.Orchestrator{
			Pipeline:   p,
			Backend:    backend,
			Topics:     topics,
			Days:       orDefault(opts.days, cfg.PubMed.TimePeriodDays),
			MaxResults: orDefault(opts.maxResults, cfg.PubMed.MaxResultsPerQuery),
			Logger:     logger,
		},
		ledger: led,
	}, nil
}

// orDefault returns override when it is positive, otherwise def.
func orDefault(override, def int) int {
	if override > 0 {
		return override
	}
	return def
}

// newPublisher returns the dry-run publisher or an authorized YouTube
// client.
func newPublisher(ctx context.Context, cfg *types.Config, a *adapter.Adapter, logger *slog.Logger) (publish.Publisher, error) {
	if cfg.YouTube.DryRun {
		logger.Info("dry run: videos will not be published")
		return publish.DryRunPublisher{Logger: logger}, nil
	}
	oc, err := publish.OAuthConfig(cfg.Credentials.YouTubeClientSecrets)
	if err != nil {
		return nil, err
	}
	hc, err := publish.OAuthClient(ctx, oc, cfg.Credentials.YouTubeTokenFile, logger)
	if err != nil {
		return nil, err
	}
	yt, err := publish.NewYouTubePublisher(ctx, a, logger, option.WithHTTPClient(hc))
	if err != nil {
		return nil, err
	}
	return yt, nil
}
