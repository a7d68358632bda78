// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"fmt"
	"image"
	_ "image/png" // page renders are PNG
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/medibrief/pkg/types"
)

const (
	binPdftoppm  = "pdftoppm"
	binTesseract = "tesseract"

	pagePrefix = "page"
	defaultDPI = 300
)

// CaptionPattern builds the figure caption regexp for the configured
// keywords, e.g. "Figure 2: ..." or "Fig. 3. ...".
func CaptionPattern(keywords []string) *regexp.Regexp {
	quoted := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			quoted = append(quoted, regexp.QuoteMeta(k))
		}
	}
	if len(quoted) == 0 {
		quoted = []string{"Figure", `Fig\.`}
	}
	return regexp.MustCompile(`(?i)(?:` + strings.Join(quoted, "|") + `)\s*\d+[.:]\s*[^\n]+`)
}

// extractFigures renders every page, OCRs the pages large enough to hold a
// figure, and emits one candidate per caption found. The page image stands
// in for the figure.
func (e *Extractor) extractFigures(ctx context.Context, pdfPath, workDir string) ([]types.FigureCandidate, error) {
	pagesDir := filepath.Join(workDir, "pages")
	if err := os.MkdirAll(pagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating page directory: %w", err)
	}
	dpi := e.Config.FigureExtraction.DPI
	if dpi <= 0 {
		dpi = defaultDPI
	}
	if err := e.Exec.RunSilent(ctx, binPdftoppm, "-png", "-r", strconv.Itoa(dpi), pdfPath, filepath.Join(pagesDir, pagePrefix)); err != nil {
		return nil, fmt.Errorf("rendering pages: %w", err)
	}

	pages, err := renderedPages(pagesDir)
	if err != nil {
		return nil, err
	}

	captions := CaptionPattern(e.Config.FigureExtraction.CaptionKeywords)
	minSize := e.Config.FigureExtraction.MinFigureSize
	var figures []types.FigureCandidate

	for _, p := range pages {
		w, h, err := imageSize(p.path)
		if err != nil {
			e.Logger.Warn("skipping unreadable page image", "page", p.num, "error", err)
			continue
		}
		if w < minSize || h < minSize {
			continue
		}

		ocr, err := e.ocr(ctx, p.path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.Logger.Warn("OCR failed", "page", p.num, "error", err)
			continue
		}

		for n, caption := range captions.FindAllString(ocr, -1) {
			dest := filepath.Join(workDir, fmt.Sprintf("figure_p%d_%d.png", p.num, n+1))
			if err := copyFile(p.path, dest); err != nil {
				return nil, err
			}
			caption = strings.TrimSpace(caption)
			figures = append(figures, types.FigureCandidate{
				Order:   len(figures),
				Page:    p.num,
				Caption: &caption,
				Path:    dest,
				Text:    ocr,
			})
		}
	}
	return figures, nil
}

func (e *Extractor) ocr(ctx context.Context, imagePath string) (string, error) {
	args := []string{imagePath, "stdout"}
	if lang := e.Config.OCR.Language; lang != "" {
		args = append(args, "-l", lang)
	}
	args = append(args, strings.Fields(e.Config.OCR.Config)...)
	out, err := e.Exec.Output(ctx, binTesseract, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

type renderedPage struct {
	num  int
	path string
}

// renderedPages lists pdftoppm output ("page-1.png" or zero-padded
// "page-01.png") in page order.
func renderedPages(dir string) ([]renderedPage, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pagePrefix+"-*.png"))
	if err != nil {
		return nil, err
	}
	pages := make([]renderedPage, 0, len(matches))
	for _, m := range matches {
		base := strings.TrimSuffix(filepath.Base(m), ".png")
		num, err := strconv.Atoi(strings.TrimPrefix(base, pagePrefix+"-"))
		if err != nil {
			continue
		}
		pages = append(pages, renderedPage{num: num, path: m})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].num < pages[j].num })
	return pages, nil
}

func imageSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating figure image: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying figure image: %w", err)
	}
	return out.Close()
}
