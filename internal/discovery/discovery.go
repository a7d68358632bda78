// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discovery finds recent papers for a topic. Backends return a lazy
// sequence of document records; Collect drains it up to the result cap and
// WriteSnapshot persists the topic's discovery list.
package discovery

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"time"

	"github.com/pdiddy/medibrief/internal/adapter"
	"github.com/pdiddy/medibrief/internal/layout"
	"github.com/pdiddy/medibrief/pkg/types"
)

// Backend searches a single literature source.
type Backend interface {
	Name() string

	// Search yields matching records lazily, newest first. A non-nil error
	// ends the sequence.
	Search(ctx context.Context, q Query) iter.Seq2[types.DocumentRecord, error]
}

// Query holds the search parameters for one topic.
type Query struct {
	Topic      string
	From       time.Time
	To         time.Time
	MaxResults int
}

// NewQuery builds a query covering the last days days up to now.
func NewQuery(topic string, days, maxResults int, now time.Time) Query {
	return Query{
		Topic:      topic,
		From:       now.AddDate(0, 0, -days),
		To:         now,
		MaxResults: maxResults,
	}
}

// NewBackend returns the backend selected by cfg.PubMed.Backend. Every
// request the backend makes goes through a.
func NewBackend(cfg *types.Config, client *http.Client, a *adapter.Adapter) (Backend, error) {
	switch cfg.PubMed.Backend {
	case "", "pubmed":
		return &PubMedBackend{
			Client:    client,
			Adapter:   a,
			APIKey:    cfg.APIKeys.PubMed,
			UserAgent: cfg.PubMed.UserAgent,
		}, nil
	case "openalex":
		return &OpenAlexBackend{
			Client:    client,
			Adapter:   a,
			Email:     cfg.APIKeys.OpenAlexEmail,
			UserAgent: cfg.PubMed.UserAgent,
		}, nil
	default:
		return nil, &types.ConfigError{Section: "pubmed", Field: "backend", Msg: fmt.Sprintf("unknown backend %q", cfg.PubMed.Backend)}
	}
}

// Collect drains b's sequence for q, keeping at most q.MaxResults records
// with distinct IDs. Records without an ID are skipped. When the sequence
// fails midway, the records gathered so far are returned with the error.
func Collect(ctx context.Context, b Backend, q Query, logger *slog.Logger) ([]types.DocumentRecord, error) {
	var docs []types.DocumentRecord
	seen := make(map[string]bool)

	for doc, err := range b.Search(ctx, q) {
		if err != nil {
			return docs, fmt.Errorf("%s search for %q: %w", b.Name(), q.Topic, err)
		}
		if doc.ID == "" {
			logger.Warn("skipping record without identifier", "backend", b.Name(), "title", doc.Title)
			continue
		}
		if seen[doc.ID] {
			continue
		}
		seen[doc.ID] = true
		docs = append(docs, doc)
		if q.MaxResults > 0 && len(docs) >= q.MaxResults {
			break
		}
	}
	logger.Info("discovery complete", "backend", b.Name(), "topic", q.Topic, "documents", len(docs))
	return docs, nil
}

// Snapshot is the <topic>_papers.json record.
type Snapshot struct {
	Topic        string                 `json:"topic"`
	Backend      string                 `json:"backend"`
	From         string                 `json:"from"`
	To           string                 `json:"to"`
	DiscoveredAt time.Time              `json:"discovered_at"`
	Documents    []types.DocumentRecord `json:"documents"`
}

// WriteSnapshot persists the discovery list for a topic and returns its path.
func WriteSnapshot(l layout.Layout, backend string, q Query, docs []types.DocumentRecord) (string, error) {
	if docs == nil {
		docs = []types.DocumentRecord{}
	}
	snap := Snapshot{
		Topic:        q.Topic,
		Backend:      backend,
		From:         q.From.Format("2006-01-02"),
		To:           q.To.Format("2006-01-02"),
		DiscoveredAt: time.Now().UTC(),
		Documents:    docs,
	}
	path := l.SnapshotPath(q.Topic)
	if err := layout.WriteJSON(path, snap); err != nil {
		return "", fmt.Errorf("writing discovery snapshot: %w", err)
	}
	return path, nil
}
