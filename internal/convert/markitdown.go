// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/pdiddy/medibrief/internal/container"
)

const imageMarkitdown = "markitdown:latest"

// MarkitdownConverter converts PDFs with the markitdown container image and
// reduces its Markdown to the plain text the extractor expects.
type MarkitdownConverter struct {
	runtime container.Runtime
}

// NewMarkitdownConverter verifies that rt has the markitdown image.
func NewMarkitdownConverter(ctx context.Context, rt container.Runtime) (*MarkitdownConverter, error) {
	if err := rt.ImageExists(ctx, imageMarkitdown); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &MarkitdownConverter{runtime: rt}, nil
}

// Convert implements Converter.
func (m *MarkitdownConverter) Convert(ctx context.Context, pdfPath string) (string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := m.runtime.Run(ctx, imageMarkitdown, f, &out); err != nil {
		return "", fmt.Errorf("converting %s with markitdown: %w", pdfPath, err)
	}
	text := StripMarkdown(out.String())
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("markitdown produced empty output for %s", pdfPath)
	}
	return text, nil
}

var (
	mdHeading   = regexp.MustCompile(`(?m)^#{1,6}[ \t]+`)
	mdImage     = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	mdLink      = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	mdStrong    = regexp.MustCompile(`(\*\*|__)(.+?)(\*\*|__)`)
	mdEmphasis  = regexp.MustCompile(`(^|[^\w*])\*([^*\n]+)\*`)
	mdCode      = regexp.MustCompile("`([^`]*)`")
	mdTableRule = regexp.MustCompile(`(?m)^[ \t]*\|?[ \t]*:?-{3,}:?[ \t]*(\|[ \t]*:?-{3,}:?[ \t]*)*\|?[ \t]*\n?`)
)

// StripMarkdown removes Markdown markup while keeping the line structure:
// headings lose their markers, links and images keep their text, and
// table rows become space-separated cells.
func StripMarkdown(md string) string {
	s := mdTableRule.ReplaceAllString(md, "")
	s = mdHeading.ReplaceAllString(s, "")
	s = mdImage.ReplaceAllString(s, "$1")
	s = mdLink.ReplaceAllString(s, "$1")
	s = mdStrong.ReplaceAllString(s, "$2")
	s = mdEmphasis.ReplaceAllString(s, "$1$2")
	s = mdCode.ReplaceAllString(s, "$1")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if !strings.HasPrefix(t, "|") {
			continue
		}
		var cells []string
		for _, c := range strings.Split(strings.Trim(t, "|"), "|") {
			if c = strings.TrimSpace(c); c != "" {
				cells = append(cells, c)
			}
		}
		lines[i] = strings.Join(cells, "  ")
	}
	return strings.Join(lines, "\n")
}
