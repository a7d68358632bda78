// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/medibrief/internal/adapter"
	"github.com/pdiddy/medibrief/internal/httputil"
)

// openAlexAPIBase is the OpenAlex works endpoint. Declared as a var so tests
// can substitute an httptest server.
var openAlexAPIBase = "https://api.openalex.org/works/"

type openAlexWork struct {
	BestOALocation *openAlexLocation `json:"best_oa_location"`
	OpenAccess     struct {
		IsOA  bool   `json:"is_oa"`
		OAURL string `json:"oa_url"`
	} `json:"open_access"`
}

type openAlexLocation struct {
	PDFURL     string `json:"pdf_url"`
	LandingURL string `json:"landing_page_url"`
}

// Resolve queries OpenAlex for doi and returns the open-access PDF URL. It
// prefers best_oa_location.pdf_url and falls back to open_access.oa_url when
// that points at a PDF. An unknown DOI or a work without such a URL yields
// ErrNoOpenAccess.
func (r *OpenAlexResolver) Resolve(ctx context.Context, doi string) (string, error) {
	apiURL := openAlexAPIBase + "https://doi.org/" + doi
	if r.Email != "" {
		apiURL += "?" + url.Values{"mailto": {r.Email}}.Encode()
	}

	work, err := adapter.Call(ctx, r.Adapter, "resolve", func(ctx context.Context) (openAlexWork, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return openAlexWork{}, adapter.Permanent("openalex", "resolve", 0, err)
		}
		resp, err := httputil.Do(ctx, r.Client, req, r.UserAgent, "openalex", "resolve")
		if err != nil {
			return openAlexWork{}, err
		}
		defer resp.Body.Close()

		var w openAlexWork
		if err := json.NewDecoder(resp.Body).Decode(&w); err != nil {
			return openAlexWork{}, adapter.Permanent("openalex", "resolve", 0, fmt.Errorf("parsing OpenAlex response: %w", err))
		}
		return w, nil
	})
	if err != nil {
		var perr *adapter.PermanentError
		if errors.As(err, &perr) && perr.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("doi %s unknown to OpenAlex: %w", doi, ErrNoOpenAccess)
		}
		return "", err
	}

	if loc := work.BestOALocation; loc != nil && loc.PDFURL != "" {
		return loc.PDFURL, nil
	}
	if u := work.OpenAccess.OAURL; u != "" && strings.HasSuffix(strings.ToLower(u), ".pdf") {
		return u, nil
	}
	return "", fmt.Errorf("doi %s: %w", doi, ErrNoOpenAccess)
}
