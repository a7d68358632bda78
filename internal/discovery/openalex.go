// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/medibrief/internal/adapter"
	"github.com/pdiddy/medibrief/internal/httputil"
	"github.com/pdiddy/medibrief/pkg/types"
)

// openAlexWorksBase is the OpenAlex Works endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexWorksBase = "https://api.openalex.org/works"

const openAlexMaxPerPage = 200

// OpenAlexBackend searches OpenAlex works by topic and publication window,
// paging lazily with cursor pagination.
type OpenAlexBackend struct {
	Client  *http.Client
	Adapter *adapter.Adapter

	// Email is sent as mailto parameter for polite pool access.
	Email     string
	UserAgent string
}

// Name returns the backend identifier.
func (b *OpenAlexBackend) Name() string { return "openalex" }

// Search implements Backend.
func (b *OpenAlexBackend) Search(ctx context.Context, q Query) iter.Seq2[types.DocumentRecord, error] {
	return func(yield func(types.DocumentRecord, error) bool) {
		perPage := q.MaxResults
		if perPage <= 0 {
			perPage = 25
		}
		perPage = min(perPage, openAlexMaxPerPage)

		cursor := "*"
		for cursor != "" {
			page, err := b.fetchPage(ctx, q, perPage, cursor)
			if err != nil {
				yield(types.DocumentRecord{}, err)
				return
			}
			for _, w := range page.Results {
				if !yield(w.record(), nil) {
					return
				}
			}
			if len(page.Results) == 0 {
				return
			}
			cursor = page.Meta.NextCursor
		}
	}
}

func (b *OpenAlexBackend) fetchPage(ctx context.Context, q Query, perPage int, cursor string) (openAlexResponse, error) {
	params := url.Values{
		"search":   {q.Topic},
		"per_page": {strconv.Itoa(perPage)},
		"cursor":   {cursor},
		"sort":     {"publication_date:desc"},
		"filter": {strings.Join([]string{
			"from_publication_date:" + q.From.Format("2006-01-02"),
			"to_publication_date:" + q.To.Format("2006-01-02"),
			"has_abstract:true",
		}, ",")},
	}
	if b.Email != "" {
		params.Set("mailto", b.Email)
	}
	reqURL := openAlexWorksBase + "?" + params.Encode()

	return adapter.Call(ctx, b.Adapter, "works", func(ctx context.Context) (openAlexResponse, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return openAlexResponse{}, adapter.Permanent("openalex", "works", 0, err)
		}
		resp, err := httputil.Do(ctx, b.Client, req, b.UserAgent, "openalex", "works")
		if err != nil {
			return openAlexResponse{}, err
		}
		defer resp.Body.Close()

		var oar openAlexResponse
		if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
			return openAlexResponse{}, adapter.Permanent("openalex", "works", 0, fmt.Errorf("parsing OpenAlex response: %w", err))
		}
		return oar, nil
	})
}

func (w openAlexWork) record() types.DocumentRecord {
	d := types.DocumentRecord{
		ID:              strings.TrimPrefix(w.ID, "https://openalex.org/"),
		Title:           plainText(w.Title),
		PublicationDate: w.PublicationDate,
		Abstract:        reconstructAbstract(w.AbstractInvertedIndex),
		DOI:             strings.TrimPrefix(w.DOI, "https://doi.org/"),
		URL:             w.ID,
	}
	if w.PrimaryLocation != nil && w.PrimaryLocation.Source != nil {
		d.Journal = w.PrimaryLocation.Source.DisplayName
	}
	if w.DOI != "" {
		d.URL = w.DOI
	}
	for _, a := range w.Authorships {
		if a.Author.DisplayName != "" {
			d.Authors = append(d.Authors, a.Author.DisplayName)
		}
	}
	return d
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to a list of positions
// where that word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Meta    openAlexMeta   `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count      int    `json:"count"`
	NextCursor string `json:"next_cursor"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationDate       string               `json:"publication_date"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	PrimaryLocation       *openAlexLocation    `json:"primary_location"`
}

type openAlexAuthorship struct {
	Author struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

type openAlexLocation struct {
	Source *struct {
		DisplayName string `json:"display_name"`
	} `json:"source"`
}
