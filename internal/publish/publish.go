// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package publish uploads finished videos to a video platform.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/pdiddy/medibrief/pkg/types"
)

// Video is the upload request for one finished video.
type Video struct {
	Path          string
	Title         string
	Description   string
	Tags          []string
	CategoryID    string
	PrivacyStatus string
}

// Published identifies an uploaded video.
type Published struct {
	ID  string
	URL string
}

// Publisher uploads a video and returns its platform identity.
type Publisher interface {
	Publish(ctx context.Context, v Video) (Published, error)
}

const (
	maxTitle      = 95
	truncatedKeep = 92
)

// WatchURL returns the public watch URL for a video ID.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// Title shortens titles longer than 95 characters to 92 plus "...".
func Title(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Unknown Title"
	}
	r := []rune(title)
	if len(r) <= maxTitle {
		return title
	}
	return string(r[:truncatedKeep]) + "..."
}

type descriptionData struct {
	Title           string
	Authors         string
	Journal         string
	PublicationDate string
	DOI             string
	KeyTakeaways    string
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// Description renders tmpl with the document fields and the takeaways as
// "• " bullet lines.
func Description(tmpl string, doc types.DocumentRecord, takeaways []string) (string, error) {
	t, err := template.New("description").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parsing description template: %w", err)
	}
	bullets := make([]string, len(takeaways))
	for i, k := range takeaways {
		bullets[i] = "• " + k
	}
	var sb strings.Builder
	err = t.Execute(&sb, descriptionData{
		Title:           orDefault(doc.Title, "Unknown Title"),
		Authors:         doc.DisplayAuthors(),
		Journal:         orDefault(doc.Journal, "Unknown Journal"),
		PublicationDate: orDefault(doc.PublicationDate, "Unknown Date"),
		DOI:             doc.DOI,
		KeyTakeaways:    strings.Join(bullets, "\n"),
	})
	if err != nil {
		return "", fmt.Errorf("rendering description: %w", err)
	}
	return sb.String(), nil
}

// NewVideo builds the upload request for a document's video.
func NewVideo(cfg types.PublishConfig, doc types.DocumentRecord, ai types.AIResult, path string) (Video, error) {
	tmpl := cfg.DescriptionTemplate
	if tmpl == "" {
		tmpl = types.DefaultDescriptionTemplate
	}
	desc, err := Description(tmpl, doc, ai.KeyTakeaways)
	if err != nil {
		return Video{}, err
	}
	return Video{
		Path:          path,
		Title:         Title(doc.Title),
		Description:   desc,
		Tags:          cfg.Video.Tags,
		CategoryID:    cfg.Video.CategoryID,
		PrivacyStatus: cfg.Video.PrivacyStatus,
	}, nil
}

// DryRunID is the placeholder video ID returned in dry-run mode.
const DryRunID = "dry_run_video_id"

// DryRunPublisher logs the would-be upload and returns a placeholder.
type DryRunPublisher struct {
	Logger *slog.Logger
}

// Publish implements Publisher without calling the platform.
func (d DryRunPublisher) Publish(_ context.Context, v Video) (Published, error) {
	d.Logger.Info("dry run: skipping upload", "path", v.Path, "title", v.Title)
	return Published{ID: DryRunID, URL: WatchURL(DryRunID)}, nil
}
