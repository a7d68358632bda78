// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package narration

import "strings"

// abbreviations are expanded in order so speech engines read them naturally.
var abbreviations = strings.NewReplacer(
	"Fig.", "Figure",
	"et al.", "and colleagues",
	"i.e.", "that is",
	"e.g.", "for example",
	"vs.", "versus",
	"approx.", "approximately",
	"Dr.", "Doctor",
	"Prof.", "Professor",
)

var pauseWords = []string{
	"however", "moreover", "furthermore", "in addition",
	"consequently", "therefore", "thus", "in conclusion",
}

// Preprocess expands abbreviations and sets transition words off with
// commas so the narration pauses around them.
func Preprocess(script string) string {
	out := abbreviations.Replace(script)
	for _, w := range pauseWords {
		out = strings.ReplaceAll(out, " "+w+" ", ", "+w+", ")
	}
	return out
}

// Sentences splits text after each '.', '!' or '?', keeping the terminator.
// Trailing text without a terminator is the last sentence.
func Sentences(text string) []string {
	var out []string
	var cur strings.Builder
	for _, r := range text {
		cur.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(cur.String()); s != "" {
				out = append(out, s)
			}
			cur.Reset()
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}

// SplitChunks packs whole sentences, joined by single spaces, into chunks of
// at most max runes. A sentence longer than max becomes its own chunk.
func SplitChunks(text string, max int) []string {
	var chunks []string
	var cur string
	for _, s := range Sentences(text) {
		if cur == "" {
			cur = s
			continue
		}
		if runeLen(cur)+1+runeLen(s) > max {
			chunks = append(chunks, cur)
			cur = s
			continue
		}
		cur += " " + s
	}
	if cur != "" {
		chunks = append(chunks, cur)
	}
	return chunks
}

func runeLen(s string) int { return len([]rune(s)) }
