// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package figures analyzes extracted figure candidates, classifies and
// scores them, and selects the best few for the video.
package figures

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/pdiddy/medibrief/internal/adapter"
	"github.com/pdiddy/medibrief/pkg/types"
)

// Annotation is one detected label, text block, or object.
type Annotation struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// Analysis is the image analysis of one figure. Texts[0], when present,
// holds the full detected text.
type Analysis struct {
	Labels  []Annotation `json:"labels"`
	Texts   []Annotation `json:"texts"`
	Objects []Annotation `json:"objects"`
}

// FullText returns the complete detected text, or "".
func (a Analysis) FullText() string {
	if len(a.Texts) == 0 {
		return ""
	}
	return strings.TrimSpace(a.Texts[0].Description)
}

// Analyzer annotates an image file.
type Analyzer interface {
	Analyze(ctx context.Context, imagePath string) (Analysis, error)
}

// rule classifies a figure when any keyword occurs in the selected field.
type rule struct {
	typ      types.FigureType
	keywords []string
	field    func(Analysis) []string
}

func labelTexts(a Analysis) []string {
	out := make([]string, len(a.Labels))
	for i, l := range a.Labels {
		out[i] = l.Description
	}
	return out
}

func detectedText(a Analysis) []string { return []string{a.FullText()} }

// rules are evaluated in order; the first match wins.
var rules = []rule{
	{types.FigureChart, []string{"chart", "graph", "plot", "diagram", "axis", "bar", "pie", "line"}, labelTexts},
	{types.FigureTable, []string{"table", "grid", "row", "column", "cell"}, detectedText},
	{types.FigureMicroscopy, []string{"microscopy", "cell", "tissue", "histology", "pathology", "specimen"}, labelTexts},
}

var medicalKeywords = []string{
	"medical", "clinical", "health", "patient", "treatment", "disease",
	"therapy", "diagnosis", "prognosis", "outcome", "survival", "mortality",
}

func containsAny(s string, keywords []string) bool {
	s = strings.ToLower(s)
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// Classify returns the type of the first matching rule, or FigureOther.
func Classify(a Analysis) types.FigureType {
	for _, r := range rules {
		for _, v := range r.field(a) {
			if containsAny(v, r.keywords) {
				return r.typ
			}
		}
	}
	return types.FigureOther
}

// Score rates a classified figure in [0,1]: 0.3 for a caption, 0.2 for any
// detected text, 0.3 for a chart or table (0.2 for microscopy), and 0.1 if
// any label mentions a medical term.
func Score(f types.FigureCandidate) float64 {
	score := 0.0
	if f.HasCaption() {
		score += 0.3
	}
	if strings.TrimSpace(f.DetectedText) != "" {
		score += 0.2
	}
	switch f.Type {
	case types.FigureChart, types.FigureTable:
		score += 0.3
	case types.FigureMicroscopy:
		score += 0.2
	}
	for _, l := range f.Labels {
		if containsAny(l, medicalKeywords) {
			score += 0.1
			break
		}
	}
	return min(max(score, 0), 1)
}

// SelectTop keeps candidates scoring at least minScore, ordered by
// descending score with ties in extraction order, capped at limit. A
// limit of zero or less means no cap.
func SelectTop(cands []types.FigureCandidate, minScore float64, limit int) []types.FigureCandidate {
	out := make([]types.FigureCandidate, 0, len(cands))
	for _, c := range cands {
		if c.Score >= minScore {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b types.FigureCandidate) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return a.Order - b.Order
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Ranker analyzes and selects figures for one document.
type Ranker struct {
	Analyzer Analyzer
	Adapter  *adapter.Adapter
	Config   types.FigureSelectionConfig
	Logger   *slog.Logger
}

// Rank analyzes every candidate through the adapter, then classifies,
// scores, and selects. A failed analysis is logged and the candidate is
// scored from its caption and OCR text as type other. Only context
// cancellation is returned as an error.
func (r *Ranker) Rank(ctx context.Context, cands []types.FigureCandidate) (types.FiguresResult, error) {
	analyzed := make([]types.FigureCandidate, 0, len(cands))
	for _, c := range cands {
		a, err := adapter.Call(ctx, r.Adapter, "annotate", func(ctx context.Context) (Analysis, error) {
			return r.Analyzer.Analyze(ctx, c.Path)
		})
		if err != nil {
			if ctx.Err() != nil {
				return types.FiguresResult{}, ctx.Err()
			}
			r.Logger.Warn("figure analysis failed, scoring from caption and OCR", "page", c.Page, "path", c.Path, "error", err)
			c.Type = types.FigureOther
			c.DetectedText = c.Text
		} else {
			c.Type = Classify(a)
			c.DetectedText = a.FullText()
			c.Labels = descriptions(a.Labels)
			c.Objects = descriptions(a.Objects)
		}
		c.Score = Score(c)
		analyzed = append(analyzed, c)
	}

	selected := SelectTop(analyzed, r.Config.MinQualityScore, r.Config.MaxFigures)
	if len(cands) > 0 && len(selected) == 0 {
		r.Logger.Warn("no figure met the quality threshold", "candidates", len(cands), "min_score", r.Config.MinQualityScore)
	}
	return types.FiguresResult{Analyzed: analyzed, Selected: selected}, nil
}

func descriptions(as []Annotation) []string {
	if len(as) == 0 {
		return nil
	}
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.Description
	}
	return out
}
