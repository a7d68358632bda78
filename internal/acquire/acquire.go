// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire locates and downloads open-access PDFs for documents that
// carry a DOI.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pdiddy/medibrief/internal/adapter"
	"github.com/pdiddy/medibrief/internal/httputil"
)

// ErrNoOpenAccess reports that no open-access PDF is known for a DOI.
// Callers fall back to the abstract.
var ErrNoOpenAccess = errors.New("no open-access PDF available")

// Resolver fetches the full-text PDF for a DOI.
type Resolver interface {
	// Fetch writes the PDF for doi to destPath. It returns an error wrapping
	// ErrNoOpenAccess when the document has no open-access copy.
	Fetch(ctx context.Context, doi, destPath string) error
}

// OpenAlexResolver looks up open-access locations in OpenAlex and downloads
// the PDF from the publisher or repository it names.
type OpenAlexResolver struct {
	Client  *http.Client
	Adapter *adapter.Adapter

	// Email is sent as the mailto parameter for polite pool access.
	Email     string
	UserAgent string
}

// Fetch implements Resolver.
func (r *OpenAlexResolver) Fetch(ctx context.Context, doi, destPath string) error {
	pdfURL, err := r.Resolve(ctx, doi)
	if err != nil {
		return err
	}
	if err := r.Download(ctx, pdfURL, destPath); err != nil {
		return fmt.Errorf("downloading %s: %w", pdfURL, err)
	}
	return nil
}

// Download fetches url to destPath through a temporary file that is renamed
// into place on success, so a partial download never appears at destPath.
func (r *OpenAlexResolver) Download(ctx context.Context, url, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", destPath, err)
	}
	return r.Adapter.Do(ctx, "download", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return adapter.Permanent("download", "get", 0, err)
		}
		req.Header.Set("Accept", "application/pdf")

		resp, err := httputil.Do(ctx, r.Client, req, r.UserAgent, "download", "get")
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if ct := resp.Header.Get("Content-Type"); ct != "" {
			if mt, _, _ := mime.ParseMediaType(ct); mt == "text/html" {
				return adapter.Permanent("download", "get", resp.StatusCode,
					fmt.Errorf("%s returned an HTML page instead of a PDF", url))
			}
		}
		return writeAtomic(destPath, resp.Body)
	})
}

func writeAtomic(destPath string, body io.Reader) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".acquire-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return adapter.Transient("download", "get", 0, fmt.Errorf("writing download: %w", copyErr))
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
