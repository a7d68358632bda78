// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data model for the medibrief pipeline:
// discovered documents, derived per-stage records, and configuration.
package types

import "strings"

// DocumentRecord is a paper returned by discovery. It is never mutated after
// fetch; later stages produce derived records keyed by ID.
type DocumentRecord struct {
	// ID is the stable source identifier (PubMed PMID or OpenAlex work ID).
	// It names every per-item artifact path.
	ID string `json:"id" yaml:"id"`

	Title string `json:"title" yaml:"title"`

	// Authors is ordered as listed by the source.
	Authors []string `json:"authors" yaml:"authors"`

	// Journal is the venue name.
	Journal string `json:"journal" yaml:"journal"`

	// PublicationDate is kept as the source formats it (e.g. "2025 Mar 14").
	PublicationDate string `json:"publication_date" yaml:"publication_date"`

	Abstract string `json:"abstract" yaml:"abstract"`

	// DOI is the bare DOI without resolver prefix. Empty when the source
	// carries none; extraction then falls back to the abstract.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// URL is the canonical landing page.
	URL string `json:"url" yaml:"url"`
}

// DisplayAuthors joins the author list for display, falling back to
// "Unknown Authors" when the list is empty.
func (d DocumentRecord) DisplayAuthors() string {
	if len(d.Authors) == 0 {
		return "Unknown Authors"
	}
	return strings.Join(d.Authors, ", ")
}

// HasLocator reports whether the record carries an external document
// locator that binary extraction can resolve.
func (d DocumentRecord) HasLocator() bool {
	return strings.TrimSpace(d.DOI) != ""
}

// FigureType is the classified kind of a figure.
type FigureType string

const (
	FigureChart      FigureType = "chart"
	FigureTable      FigureType = "table"
	FigureMicroscopy FigureType = "microscopy"
	FigureOther      FigureType = "other"
)

// FigureCandidate is a figure found during extraction. Score, Type, and the
// analysis fields are filled in by figure ranking.
type FigureCandidate struct {
	// Order is the zero-based extraction index, used as the ranking tie-break.
	Order int `json:"order"`

	Page int `json:"page"`

	// Caption is nil when no caption was detected.
	Caption *string `json:"caption"`

	// Path is the local image file.
	Path string `json:"path"`

	// Text is the OCR'd text of the figure.
	Text string `json:"text"`

	Score        float64    `json:"score"`
	Type         FigureType `json:"type,omitempty"`
	Labels       []string   `json:"labels,omitempty"`
	DetectedText string     `json:"detected_text,omitempty"`
	Objects      []string   `json:"objects,omitempty"`

	// ImageURL is set when the figure image was copied to object storage.
	ImageURL string `json:"image_url,omitempty"`
}

// HasCaption reports whether a non-empty caption was detected.
func (f FigureCandidate) HasCaption() bool {
	return f.Caption != nil && strings.TrimSpace(*f.Caption) != ""
}

// TableCandidate is a table caption and the text that follows it.
type TableCandidate struct {
	Caption string `json:"caption"`
	Content string `json:"content"`
}

// ExtractionResult is the text, abstract, figures, and tables derived from
// one document. PDFPath is empty for abstract-only results.
type ExtractionResult struct {
	PDFPath  string            `json:"pdf_path,omitempty"`
	Text     string            `json:"text"`
	Abstract string            `json:"abstract"`
	Figures  []FigureCandidate `json:"figures"`
	Tables   []TableCandidate  `json:"tables"`
}

// PaperData is the paper_data.json record: the source document together
// with its extraction.
type PaperData struct {
	Document   DocumentRecord   `json:"document"`
	Extraction ExtractionResult `json:"extraction"`
}
