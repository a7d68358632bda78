// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/medibrief/pkg/types"
)

var (
	blankRuns      = regexp.MustCompile(`\n{3,}`)
	spaceRuns      = regexp.MustCompile(` {2,}`)
	pageNumberLine = regexp.MustCompile(`\n\s*\d+\s*\n`)
	numericLine    = regexp.MustCompile(`^[\d\s\-.]+$`)
)

// minEdgeLine is the shortest first or last line kept by CleanText.
const minEdgeLine = 50

// CleanText normalizes converted PDF text. It collapses blank-line runs
// and repeated spaces, removes bare page numbers, drops a short first or
// last line (usually a running header or footer), and drops lines made only
// of digits and punctuation.
func CleanText(text string) string {
	text = blankRuns.ReplaceAllString(text, "\n\n")
	text = spaceRuns.ReplaceAllString(text, " ")
	text = pageNumberLine.ReplaceAllString(text, "\n")

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if (i == 0 || i == len(lines)-1) && utf8.RuneCountInString(trimmed) < minEdgeLine {
			continue
		}
		if numericLine.MatchString(trimmed) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

var abstractSection = regexp.MustCompile(`(?is)(?:abstract|summary)\s*\n\s*(.*?)\n\s*(?:introduction|background)`)

// FindAbstract returns the text between an Abstract (or Summary) heading
// and the following Introduction (or Background) heading. Without such a
// section it returns the first paragraph when it is 100 to 1000 characters
// long, and otherwise "".
func FindAbstract(text string) string {
	if m := abstractSection.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	first, _, _ := strings.Cut(text, "\n\n")
	first = strings.TrimSpace(first)
	if n := utf8.RuneCountInString(first); n >= 100 && n <= 1000 {
		return first
	}
	return ""
}

var (
	tableCaption = regexp.MustCompile(`(?i)Table\s*\d+[.:]\s*[^\n]+`)
	nextSection  = regexp.MustCompile(`\n\s*(?:[A-Z][a-z]+\s*)+\n`)
	nextTable    = regexp.MustCompile(`Table\s*\d+[.:]\s*`)
)

// maxTableContent bounds the text captured after a table caption.
const maxTableContent = 1000

// FindTables finds table captions and captures up to 1000 characters of the
// text after each, cut at the next section heading or table caption.
func FindTables(text string) []types.TableCandidate {
	tables := []types.TableCandidate{}
	for _, loc := range tableCaption.FindAllStringIndex(text, -1) {
		caption := text[loc[0]:loc[1]]
		content := truncateRunes(text[loc[1]:], maxTableContent)
		if m := nextSection.FindStringIndex(content); m != nil {
			content = content[:m[0]]
		}
		if m := nextTable.FindStringIndex(content); m != nil {
			content = content[:m[0]]
		}
		tables = append(tables, types.TableCandidate{
			Caption: strings.TrimSpace(caption),
			Content: strings.TrimSpace(content),
		})
	}
	return tables
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
