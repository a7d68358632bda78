// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns a PDF into plain text with a pluggable backend:
// pdftotext on the host, or the markitdown image run through a container
// runtime.
package convert

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/medibrief/internal/container"
)

// Converter transforms a PDF file into text.
type Converter interface {
	// Convert reads the PDF at pdfPath and returns its text content.
	Convert(ctx context.Context, pdfPath string) (string, error)
}

// New returns the converter named by backend ("pdftotext" or "markitdown").
// The markitdown backend detects a container runtime and checks its image.
func New(ctx context.Context, backend string, exec container.Executor) (Converter, error) {
	switch backend {
	case "", "pdftotext":
		if err := container.Require(exec, binPdftotext); err != nil {
			return nil, err
		}
		return &PdftotextConverter{exec: exec}, nil
	case "markitdown":
		rt, err := container.DetectRuntime(ctx, exec)
		if err != nil {
			return nil, err
		}
		return NewMarkitdownConverter(ctx, rt)
	default:
		return nil, fmt.Errorf("unknown converter %q", backend)
	}
}

const binPdftotext = "pdftotext"

// PdftotextConverter runs poppler's pdftotext, writing text to stdout.
type PdftotextConverter struct {
	exec container.Executor
}

// NewPdftotextConverter returns a converter that runs pdftotext through exec.
func NewPdftotextConverter(exec container.Executor) *PdftotextConverter {
	return &PdftotextConverter{exec: exec}
}

// Convert implements Converter.
func (p *PdftotextConverter) Convert(ctx context.Context, pdfPath string) (string, error) {
	out, err := p.exec.Output(ctx, binPdftotext, "-enc", "UTF-8", pdfPath, "-")
	if err != nil {
		return "", fmt.Errorf("converting %s with pdftotext: %w", pdfPath, err)
	}
	if strings.TrimSpace(string(out)) == "" {
		return "", fmt.Errorf("pdftotext produced empty output for %s", pdfPath)
	}
	return string(out), nil
}
