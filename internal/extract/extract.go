// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract derives text, an abstract, figure candidates, and table
// candidates from a document. Documents without a PDF produce an
// abstract-only result.
package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pdiddy/medibrief/internal/container"
	"github.com/pdiddy/medibrief/internal/convert"
	"github.com/pdiddy/medibrief/pkg/types"
)

// Extractor converts a downloaded PDF and mines it for figures and tables.
type Extractor struct {
	Converter convert.Converter
	Exec      container.Executor
	Config    types.ExtractionConfig
	Logger    *slog.Logger
}

// FromAbstract builds the abstract-only result used when no PDF is
// available: the text is the title followed by the abstract.
func FromAbstract(doc types.DocumentRecord) types.ExtractionResult {
	text := doc.Title
	if doc.Abstract != "" {
		text += "\n\n" + doc.Abstract
	}
	return types.ExtractionResult{
		Text:     text,
		Abstract: doc.Abstract,
		Figures:  []types.FigureCandidate{},
		Tables:   []types.TableCandidate{},
	}
}

// Extract converts pdfPath to text and extracts the abstract, tables, and
// figures. Figure images are written under workDir. A conversion failure
// is returned; a figure extraction failure is logged and yields no figures.
func (e *Extractor) Extract(ctx context.Context, doc types.DocumentRecord, pdfPath, workDir string) (types.ExtractionResult, error) {
	raw, err := e.Converter.Convert(ctx, pdfPath)
	if err != nil {
		return types.ExtractionResult{}, fmt.Errorf("extracting text: %w", err)
	}
	text := CleanText(raw)
	e.Logger.Info("extracted text", "doc_id", doc.ID, "chars", len(text))

	abstract := FindAbstract(text)
	if abstract == "" {
		e.Logger.Warn("no abstract found in text, using record abstract", "doc_id", doc.ID)
		abstract = doc.Abstract
	}

	tables := FindTables(text)

	figures, err := e.extractFigures(ctx, pdfPath, workDir)
	if err != nil {
		if ctx.Err() != nil {
			return types.ExtractionResult{}, ctx.Err()
		}
		e.Logger.Warn("figure extraction failed", "doc_id", doc.ID, "error", err)
		figures = nil
	}
	if figures == nil {
		figures = []types.FigureCandidate{}
	}

	e.Logger.Info("extraction complete", "doc_id", doc.ID, "figures", len(figures), "tables", len(tables))
	return types.ExtractionResult{
		PDFPath:  pdfPath,
		Text:     text,
		Abstract: abstract,
		Figures:  figures,
		Tables:   tables,
	}, nil
}
