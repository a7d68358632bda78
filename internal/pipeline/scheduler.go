// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"

	"github.com/sourcegraph/conc/pool"

	"github.com/pdiddy/medibrief/pkg/types"
)

// TopicSummary tallies the outcomes for one topic.
type TopicSummary struct {
	Topic     string `json:"topic" yaml:"topic"`
	Total     int    `json:"total" yaml:"total"`
	Succeeded int    `json:"succeeded" yaml:"succeeded"`
	Failed    int    `json:"failed" yaml:"failed"`
}

// RunTopic processes docs on a pool of at most
// Config.Pipeline.MaxConcurrentPapers workers. Outcomes are consumed in
// arrival order; a failed item never stops its siblings.
func (p *Pipeline) RunTopic(ctx context.Context, topic string, docs []types.DocumentRecord) TopicSummary {
	sum := TopicSummary{Topic: topic, Total: len(docs)}
	if len(docs) == 0 {
		p.Logger.Info("no documents to process", "topic", topic)
		return sum
	}

	workers := max(p.Config.Pipeline.MaxConcurrentPapers, 1)
	p.Logger.Info("processing topic", "topic", topic, "documents", len(docs), "workers", workers)

	outcomes := make(chan Outcome, len(docs))
	wp := pool.New().WithMaxGoroutines(workers)
	for _, doc := range docs {
		wp.Go(func() {
			outcomes <- p.ProcessItem(ctx, topic, doc)
		})
	}

	go func() {
		wp.Wait()
		close(outcomes)
	}()

	for o := range outcomes {
		p.record(ctx, o)
		if o.Succeeded() {
			sum.Succeeded++
		} else {
			sum.Failed++
		}
	}

	p.Logger.Info("topic complete", "topic", topic,
		"total", sum.Total, "succeeded", sum.Succeeded, "failed", sum.Failed)
	return sum
}

func (p *Pipeline) record(ctx context.Context, o Outcome) {
	if o.Succeeded() {
		p.Logger.Info("item succeeded", "topic", o.Topic, "doc_id", o.DocumentID,
			"video_url", o.Result.VideoURL, "platform_url", o.Result.PlatformURL)
	} else {
		p.Logger.Warn("item failed", "topic", o.Topic, "doc_id", o.DocumentID,
			"stage", o.FailedStage(), "error", o.Err)
	}
	if p.Ledger == nil {
		return
	}
	if err := p.Ledger.Record(context.WithoutCancel(ctx), o.entry(p.RunID)); err != nil {
		p.Logger.Warn("ledger record failed", "doc_id", o.DocumentID, "error", err)
	}
}
