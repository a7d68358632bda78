// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize turns an extracted paper into the generated texts a
// video needs: a summary, a narration script, key takeaways, and a
// clinical relevance statement.
package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/pdiddy/medibrief/internal/adapter"
	"github.com/pdiddy/medibrief/pkg/types"
)

// maxPromptText bounds the paper text included in the summary prompt.
const maxPromptText = 10000

// Output token budgets per call.
const (
	narrationTokens = 2048
	takeawayTokens  = 1024
	relevanceTokens = 512
)

// Summarizer runs the four generation calls for one paper, in order, each
// through the text generation adapter.
type Summarizer struct {
	Generator TextGenerator
	Adapter   *adapter.Adapter
	Config    types.GenerationConfig
	Logger    *slog.Logger
}

type promptData struct {
	Doc      types.DocumentRecord
	Abstract string
	Text     string
	Summary  string
	MinWords int
	MaxWords int
	Count    int
	MaxChars int
}

// Summarize generates the AIResult for doc. Any failed call fails the
// whole result.
func (s *Summarizer) Summarize(ctx context.Context, doc types.DocumentRecord, ext types.ExtractionResult) (types.AIResult, error) {
	data := promptData{
		Doc:      doc,
		Abstract: ext.Abstract,
		Text:     truncate(ext.Text, maxPromptText),
		MinWords: s.Config.Summarization.MinLength,
		MaxWords: s.Config.Summarization.MaxLength,
		Count:    s.Config.KeyTakeaways.Count,
		MaxChars: s.Config.KeyTakeaways.MaxLengthEach,
	}

	summary, err := s.generate(ctx, "summary", data, int32(max(s.Config.Summarization.MaxLength*2, 256)))
	if err != nil {
		return types.AIResult{}, err
	}
	data.Summary = summary

	script, err := s.generate(ctx, "narration", data, narrationTokens)
	if err != nil {
		return types.AIResult{}, err
	}

	rawTakeaways, err := s.generate(ctx, "takeaways", data, takeawayTokens)
	if err != nil {
		return types.AIResult{}, err
	}

	relevance, err := s.generate(ctx, "relevance", data, relevanceTokens)
	if err != nil {
		return types.AIResult{}, err
	}

	res := types.AIResult{
		Summary:            summary,
		NarrationScript:    script,
		KeyTakeaways:       ParseTakeaways(rawTakeaways, data.Count, s.Logger),
		TakeawaysRequested: data.Count,
		ClinicalRelevance:  relevance,
	}
	s.Logger.Info("generated texts", "doc_id", doc.ID, "summary_words", len(strings.Fields(summary)),
		"takeaways", len(res.KeyTakeaways))
	return res, nil
}

func (s *Summarizer) generate(ctx context.Context, name string, data promptData, maxTokens int32) (string, error) {
	prompt, err := render(name, data)
	if err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", name, err)
	}
	s.Logger.Debug("generating text", "task", name, "prompt_chars", len(prompt))
	text, err := adapter.Call(ctx, s.Adapter, name, func(ctx context.Context) (string, error) {
		return s.Generator.Generate(ctx, prompt, maxTokens)
	})
	if err != nil {
		return "", fmt.Errorf("generating %s: %w", name, err)
	}
	return strings.TrimSpace(text), nil
}

// ParseTakeaways extracts list items from a generated numbered or bulleted
// list. Lines whose first character is a digit or a bullet (-, *, •) are
// kept with the marker stripped. The result is truncated to count; when
// fewer items are found a warning is logged and the list is returned as is.
func ParseTakeaways(text string, count int, logger *slog.Logger) []string {
	takeaways := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		first := []rune(line)[0]
		if !unicode.IsDigit(first) && first != '-' && first != '*' && first != '•' {
			continue
		}
		item := strings.TrimSpace(strings.TrimLeftFunc(line, isListMarker))
		if item != "" {
			takeaways = append(takeaways, item)
		}
	}

	if count > 0 && len(takeaways) > count {
		takeaways = takeaways[:count]
	}
	if len(takeaways) < count {
		logger.Warn("fewer key takeaways than requested", "found", len(takeaways), "requested", count)
	}
	return takeaways
}

func isListMarker(r rune) bool {
	return unicode.IsDigit(r) || unicode.IsSpace(r) || strings.ContainsRune(".)-*•", r)
}

func truncate(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
