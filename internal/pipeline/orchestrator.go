// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/medibrief/internal/discovery"
	"github.com/pdiddy/medibrief/pkg/types"
)

// RunSummary reports one orchestrator run.
type RunSummary struct {
	RunID      string         `json:"run_id" yaml:"run_id"`
	StartedAt  time.Time      `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time      `json:"finished_at" yaml:"finished_at"`
	Topics     []TopicSummary `json:"topics" yaml:"topics"`

	// Skipped lists topics whose discovery failed before finding any document.
	Skipped []string `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Succeeded sums the succeeded items across topics.
func (r RunSummary) Succeeded() int {
	n := 0
	for _, t := range r.Topics {
		n += t.Succeeded
	}
	return n
}

// Failed sums the failed items across topics.
func (r RunSummary) Failed() int {
	n := 0
	for _, t := range r.Topics {
		n += t.Failed
	}
	return n
}

// Orchestrator runs discovery and the pipeline for each topic in turn.
type Orchestrator struct {
	Pipeline *Pipeline
	Backend  discovery.Backend

	Topics     []string
	Days       int
	MaxResults int

	Logger *slog.Logger
}

// Run executes one pass over every topic. It returns an error only when
// storage setup fails; a topic whose discovery fails before finding any
// document is skipped.
func (o *Orchestrator) Run(ctx context.Context) (RunSummary, error) {
	p := *o.Pipeline
	p.RunID = uuid.NewString()
	p.Logger = o.Logger.With("run_id", p.RunID)

	sum := RunSummary{RunID: p.RunID, StartedAt: now().UTC()}
	logger := p.Logger
	logger.Info("run starting", "topics", o.Topics, "days", o.Days, "max_results", o.MaxResults)

	if err := p.Store.EnsureBuckets(ctx); err != nil {
		return sum, fmt.Errorf("preparing storage: %w", err)
	}

	if p.Ledger != nil {
		if err := p.Ledger.StartRun(ctx, p.RunID, o.Topics, sum.StartedAt); err != nil {
			logger.Warn("ledger start failed", "error", err)
		}
	}

	for _, topic := range o.Topics {
		if ctx.Err() != nil {
			logger.Warn("run interrupted", "error", ctx.Err())
			break
		}
		docs, err := o.discover(ctx, topic)
		if err != nil {
			logger.Error("discovery failed, skipping topic", "topic", topic, "error", err)
			sum.Skipped = append(sum.Skipped, topic)
			continue
		}
		sum.Topics = append(sum.Topics, p.RunTopic(ctx, topic, docs))
	}

	sum.FinishedAt = now().UTC()
	if p.Ledger != nil {
		if err := p.Ledger.FinishRun(context.WithoutCancel(ctx), p.RunID, sum.FinishedAt); err != nil {
			logger.Warn("ledger finish failed", "error", err)
		}
	}
	logger.Info("run complete", "succeeded", sum.Succeeded(), "failed", sum.Failed(),
		"skipped_topics", len(sum.Skipped), "elapsed", sum.FinishedAt.Sub(sum.StartedAt).Round(time.Second))
	return sum, nil
}

// discover collects and snapshots the documents for topic. When the
// backend fails after yielding records, the partial list is snapshotted and
// returned with a warning; an error is returned only when nothing was found.
func (o *Orchestrator) discover(ctx context.Context, topic string) ([]types.DocumentRecord, error) {
	q := discovery.NewQuery(topic, o.Days, o.MaxResults, now())
	docs, err := discovery.Collect(ctx, o.Backend, q, o.Logger)
	if err != nil {
		if len(docs) == 0 {
			return nil, err
		}
		o.Logger.Warn("discovery incomplete, processing partial results", "topic", topic, "documents", len(docs), "error", err)
	}
	path, err := discovery.WriteSnapshot(o.Pipeline.Layout, o.Backend.Name(), q, docs)
	if err != nil {
		return nil, err
	}
	o.Logger.Debug("snapshot written", "topic", topic, "path", path)
	return docs, nil
}
