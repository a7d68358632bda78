// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline turns discovered documents into published videos. A
// Pipeline runs the per-item stage sequence, RunTopic fans items out over a
// bounded pool, and the Orchestrator walks the configured topics.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pdiddy/medibrief/internal/acquire"
	"github.com/pdiddy/medibrief/internal/layout"
	"github.com/pdiddy/medibrief/internal/ledger"
	"github.com/pdiddy/medibrief/internal/publish"
	"github.com/pdiddy/medibrief/internal/storage"
	"github.com/pdiddy/medibrief/internal/video"
	"github.com/pdiddy/medibrief/pkg/types"
)

// Extractor turns a downloaded PDF into an extraction result.
type Extractor interface {
	Extract(ctx context.Context, doc types.DocumentRecord, pdfPath, workDir string) (types.ExtractionResult, error)
}

// Summarizer generates the four AI texts for a document.
type Summarizer interface {
	Summarize(ctx context.Context, doc types.DocumentRecord, ext types.ExtractionResult) (types.AIResult, error)
}

// FigureRanker analyzes and selects figures.
type FigureRanker interface {
	Rank(ctx context.Context, cands []types.FigureCandidate) (types.FiguresResult, error)
}

// Narrator synthesizes a narration script into one audio file.
type Narrator interface {
	Narrate(ctx context.Context, script, workDir, outPath string) (types.NarrationResult, error)
}

// Ledger indexes run and item outcomes.
type Ledger interface {
	StartRun(ctx context.Context, runID string, topics []string, at time.Time) error
	FinishRun(ctx context.Context, runID string, at time.Time) error
	Record(ctx context.Context, e ledger.Entry) error
}

// Pipeline holds the collaborators for every stage. All fields except
// Ledger are required.
type Pipeline struct {
	Config *types.Config
	Layout layout.Layout

	Resolver   acquire.Resolver
	Extractor  Extractor
	Summarizer Summarizer
	Ranker     FigureRanker
	Narrator   Narrator
	Renderer   video.Renderer
	Store      storage.Store
	Publisher  publish.Publisher
	Ledger     Ledger

	// RunID tags result and error records.
	RunID string

	Logger *slog.Logger
}

var now = time.Now

// StageError records which stage an item failed in.
type StageError struct {
	Stage types.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Outcome is the terminal result of one item.
type Outcome struct {
	DocumentID string
	Title      string
	Topic      string

	// Stage is StageSucceeded or StageFailed.
	Stage types.Stage

	// Err is a *StageError when Stage is StageFailed.
	Err error

	Result *types.PaperProcessingResult
}

// Succeeded reports whether the item reached StageSucceeded.
func (o Outcome) Succeeded() bool { return o.Stage == types.StageSucceeded }

// FailedStage returns the stage the item failed in, or "".
func (o Outcome) FailedStage() types.Stage {
	var se *StageError
	if errors.As(o.Err, &se) {
		return se.Stage
	}
	return ""
}

func (o Outcome) entry(runID string) ledger.Entry {
	e := ledger.Entry{
		RunID:     runID,
		Topic:     o.Topic,
		DocID:     o.DocumentID,
		Title:     o.Title,
		Stage:     o.Stage,
		Status:    ledger.StatusSucceeded,
		UpdatedAt: now(),
	}
	if !o.Succeeded() {
		e.Status = ledger.StatusFailed
		e.Stage = o.FailedStage()
		if o.Err != nil {
			e.Error = o.Err.Error()
		}
	}
	if o.Result != nil {
		e.VideoURL = o.Result.VideoURL
		e.PlatformURL = o.Result.PlatformURL
	}
	return e
}
