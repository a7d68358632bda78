// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/sourcegraph/conc/panics"

	"github.com/pdiddy/medibrief/internal/acquire"
	"github.com/pdiddy/medibrief/internal/extract"
	"github.com/pdiddy/medibrief/internal/layout"
	"github.com/pdiddy/medibrief/internal/publish"
	"github.com/pdiddy/medibrief/internal/storage"
	"github.com/pdiddy/medibrief/internal/video"
	"github.com/pdiddy/medibrief/pkg/types"
)

// item carries one document through the stages.
type item struct {
	p      *Pipeline
	topic  string
	doc    types.DocumentRecord
	logger *slog.Logger

	ext       types.ExtractionResult
	ai        types.AIResult
	figures   types.FiguresResult
	narration types.NarrationResult
	videoPath string
	videoURL  string
	published publish.Published
}

// ProcessItem runs every stage for doc in order. The first failing stage
// ends the item: its error is written to error.json and the item is
// Failed. On success result.json is written. Whichever of the two files
// is not written is removed, so exactly one exists afterwards.
func (p *Pipeline) ProcessItem(ctx context.Context, topic string, doc types.DocumentRecord) Outcome {
	it := &item{
		p:      p,
		topic:  topic,
		doc:    doc,
		logger: p.Logger.With("topic", topic, "doc_id", doc.ID),
	}
	out := Outcome{DocumentID: doc.ID, Title: doc.Title, Topic: topic}

	stages := []struct {
		stage types.Stage
		run   func(context.Context) error
	}{
		{types.StageExtracted, it.extract},
		{types.StageSummarized, it.summarize},
		{types.StageFiguresRanked, it.rankFigures},
		{types.StageNarrated, it.narrate},
		{types.StageAssembled, it.assemble},
		{types.StagePublished, it.publish},
	}
	for _, s := range stages {
		if err := runStage(ctx, s.run); err != nil {
			out.Stage = types.StageFailed
			out.Err = &StageError{Stage: s.stage, Err: err}
			it.fail(s.stage, err)
			return out
		}
		it.logger.Debug("stage complete", "stage", s.stage)
	}

	res := &types.PaperProcessingResult{
		DocumentID:  doc.ID,
		Title:       doc.Title,
		Topic:       topic,
		VideoPath:   it.videoPath,
		VideoURL:    it.videoURL,
		PlatformID:  it.published.ID,
		PlatformURL: it.published.URL,
		DryRun:      it.published.ID == publish.DryRunID,
		RunID:       p.RunID,
		Timestamp:   now().UTC(),
	}
	if err := it.writeTerminal(layout.ResultFile, layout.ErrorFile, res); err != nil {
		err = fmt.Errorf("writing result record: %w", err)
		out.Stage = types.StageFailed
		out.Err = &StageError{Stage: types.StagePublished, Err: err}
		it.fail(types.StagePublished, err)
		return out
	}
	out.Stage = types.StageSucceeded
	out.Result = res
	return out
}

// runStage runs one stage, turning a panic into an error for that stage.
func runStage(ctx context.Context, run func(context.Context) error) error {
	var err error
	if r := panics.Try(func() { err = run(ctx) }); r != nil {
		return r.AsError()
	}
	return err
}

func (it *item) file(name string) string {
	return it.p.Layout.ItemFile(it.topic, it.doc.ID, name)
}

func (it *item) objectName(path string) string {
	return layout.Slug(it.topic) + "/" + layout.Slug(it.doc.ID) + "/" + filepath.Base(path)
}

func (it *item) fail(stage types.Stage, err error) {
	it.logger.Error("item failed", "stage", stage, "error", err)
	rec := types.ErrorRecord{
		DocumentID: it.doc.ID,
		Title:      it.doc.Title,
		Topic:      it.topic,
		Stage:      stage,
		Error:      err.Error(),
		RunID:      it.p.RunID,
		Timestamp:  now().UTC(),
	}
	if werr := it.writeTerminal(layout.ErrorFile, layout.ResultFile, rec); werr != nil {
		it.logger.Error("writing error record failed", "error", werr)
	}
}

// writeTerminal writes v to name and removes the stale counterpart.
func (it *item) writeTerminal(name, stale string, v any) error {
	if err := layout.WriteJSON(it.file(name), v); err != nil {
		return err
	}
	return layout.Remove(it.file(stale))
}

// uploadBestEffort copies an auxiliary artifact to storage, logging
// failures. It returns "" when the upload failed.
func (it *item) uploadBestEffort(ctx context.Context, kind storage.Kind, path string) string {
	url, err := it.p.Store.Upload(ctx, kind, path, it.objectName(path))
	if err != nil {
		it.logger.Warn("auxiliary upload failed", "kind", kind, "path", path, "error", err)
		return ""
	}
	return url
}

func (it *item) extract(ctx context.Context) error {
	if !it.doc.HasLocator() {
		it.logger.Warn("no DOI, using abstract only")
		it.ext = extract.FromAbstract(it.doc)
		return it.writePaperData()
	}

	pdfPath := filepath.Join(it.p.Layout.WorkDir(it.topic, it.doc.ID, "extract"), "paper.pdf")
	err := it.p.Resolver.Fetch(ctx, it.doc.DOI, pdfPath)
	switch {
	case errors.Is(err, acquire.ErrNoOpenAccess):
		it.logger.Warn("no open-access PDF, using abstract only", "doi", it.doc.DOI)
		it.ext = extract.FromAbstract(it.doc)
		return it.writePaperData()
	case err != nil:
		return fmt.Errorf("acquiring PDF: %w", err)
	}

	ext, err := it.p.Extractor.Extract(ctx, it.doc, pdfPath, it.file("figures"))
	if err != nil {
		return fmt.Errorf("extracting PDF: %w", err)
	}
	it.ext = ext
	it.uploadBestEffort(ctx, storage.PDFs, pdfPath)
	return it.writePaperData()
}

func (it *item) writePaperData() error {
	return layout.WriteJSON(it.file(layout.PaperDataFile), types.PaperData{Document: it.doc, Extraction: it.ext})
}

func (it *item) summarize(ctx context.Context) error {
	ai, err := it.p.Summarizer.Summarize(ctx, it.doc, it.ext)
	if err != nil {
		return err
	}
	it.ai = ai
	return layout.WriteJSON(it.file(layout.AIResultFile), ai)
}

func (it *item) rankFigures(ctx context.Context) error {
	fr, err := it.p.Ranker.Rank(ctx, it.ext.Figures)
	if err != nil {
		return err
	}
	if len(fr.Selected) == 0 {
		it.logger.Warn("no figures selected")
	}
	for i := range fr.Selected {
		fr.Selected[i].ImageURL = it.uploadBestEffort(ctx, storage.Images, fr.Selected[i].Path)
	}
	it.figures = fr
	return layout.WriteJSON(it.file(layout.FiguresResultFile), fr)
}

func (it *item) narrate(ctx context.Context) error {
	nr, err := it.p.Narrator.Narrate(ctx, it.ai.NarrationScript,
		it.p.Layout.WorkDir(it.topic, it.doc.ID, "narration"),
		it.p.Layout.AudioPath(it.topic, it.doc.ID))
	if err != nil {
		return err
	}
	if nr.Synthesized < nr.Chunks {
		it.logger.Warn("narration is missing chunks", "chunks", nr.Chunks, "synthesized", nr.Synthesized)
	}
	it.narration = nr
	it.uploadBestEffort(ctx, storage.Audio, nr.AudioPath)
	return nil
}

func (it *item) assemble(ctx context.Context) error {
	slides := video.PlanSlides(it.doc, it.ai, it.figures.Selected, it.p.Config.Video.Timing)
	it.videoPath = it.p.Layout.VideoPath(it.topic, it.doc.ID)
	return it.p.Renderer.Render(ctx, video.Job{
		Slides:        slides,
		AudioPath:     it.narration.AudioPath,
		AudioDuration: it.narration.Duration,
		WorkDir:       it.p.Layout.WorkDir(it.topic, it.doc.ID, "video"),
		OutPath:       it.videoPath,
	})
}

func (it *item) publish(ctx context.Context) error {
	url, err := it.p.Store.Upload(ctx, storage.Videos, it.videoPath, it.objectName(it.videoPath))
	if err != nil {
		return fmt.Errorf("uploading video: %w", err)
	}
	it.videoURL = url

	v, err := publish.NewVideo(it.p.Config.YouTube, it.doc, it.ai, it.videoPath)
	if err != nil {
		return err
	}
	pub, err := it.p.Publisher.Publish(ctx, v)
	if err != nil {
		return fmt.Errorf("publishing video: %w", err)
	}
	it.published = pub
	return nil
}
