// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package video plans the slide sequence for a paper and renders it, with
// the narration as soundtrack, into an MP4.
package video

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/medibrief/pkg/types"
)

// SlideKind identifies a slide's role in the sequence.
type SlideKind string

const (
	SlideTitle     SlideKind = "title"
	SlideSummary   SlideKind = "summary"
	SlideTakeaways SlideKind = "takeaways"
	SlideFigure    SlideKind = "figure"
	SlideRelevance SlideKind = "relevance"
	SlideOutro     SlideKind = "outro"
)

// Slide is one timed still with optional figure image.
type Slide struct {
	Kind    SlideKind
	Heading string

	// Body holds paragraphs; the renderer wraps them to the frame width.
	Body []string

	Image    string
	Duration time.Duration
	Fade     time.Duration
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// PlanSlides builds the fixed slide order: title, summary, key takeaways,
// one slide per selected figure, clinical relevance, outro.
func PlanSlides(doc types.DocumentRecord, ai types.AIResult, figures []types.FigureCandidate, timing types.TimingConfig) []Slide {
	fade := seconds(timing.TransitionDuration)
	body := seconds(timing.SlideDuration)

	meta := strings.Join(nonEmpty(doc.Journal, doc.PublicationDate), " • ")
	slides := []Slide{
		{Kind: SlideTitle, Heading: doc.Title, Body: nonEmpty(doc.DisplayAuthors(), meta), Duration: seconds(timing.IntroDuration), Fade: fade},
		{Kind: SlideSummary, Heading: "Summary", Body: nonEmpty(ai.Summary), Duration: body, Fade: fade},
	}

	takeaways := make([]string, len(ai.KeyTakeaways))
	for i, k := range ai.KeyTakeaways {
		takeaways[i] = fmt.Sprintf("%d. %s", i+1, k)
	}
	slides = append(slides, Slide{Kind: SlideTakeaways, Heading: "Key Takeaways", Body: takeaways, Duration: body, Fade: fade})

	for _, f := range figures {
		if f.Path == "" {
			continue
		}
		heading := fmt.Sprintf("Figure (page %d)", f.Page)
		if f.HasCaption() {
			heading = *f.Caption
		}
		slides = append(slides, Slide{Kind: SlideFigure, Heading: heading, Image: f.Path, Duration: body, Fade: fade})
	}

	outro := nonEmpty(doc.Title)
	if doc.DOI != "" {
		outro = append(outro, "DOI: "+doc.DOI)
	}
	return append(slides,
		Slide{Kind: SlideRelevance, Heading: "Clinical Relevance", Body: nonEmpty(ai.ClinicalRelevance), Duration: body, Fade: fade},
		Slide{Kind: SlideOutro, Heading: "Thank You for Watching", Body: outro, Duration: seconds(timing.OutroDuration), Fade: fade},
	)
}

func nonEmpty(ss ...string) []string {
	var out []string
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// TotalDuration sums the slide durations.
func TotalDuration(slides []Slide) time.Duration {
	var d time.Duration
	for _, s := range slides {
		d += s.Duration
	}
	return d
}

// PadDuration returns how long a blank clip must run after the slides so
// the audio is never cut short, or zero when the slides are long enough.
func PadDuration(audio, visual time.Duration) time.Duration {
	return max(audio-visual, 0)
}

// Resolution is a frame size in pixels.
type Resolution struct {
	Width, Height int
}

var presets = map[string]Resolution{
	"1080p": {1920, 1080},
	"720p":  {1280, 720},
	"480p":  {854, 480},
}

// ParseResolution maps a preset name to a frame size. Unknown presets
// render at 1080p.
func ParseResolution(preset string) Resolution {
	if r, ok := presets[preset]; ok {
		return r
	}
	return presets["1080p"]
}

// Wrap breaks text on word boundaries into lines of at most width runes.
// A word longer than width occupies its own line.
func Wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len([]rune(line))+1+len([]rune(w)) <= width {
			line += " " + w
			continue
		}
		lines = append(lines, line)
		line = w
	}
	return append(lines, line)
}
