// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/medibrief/internal/adapter"
	"github.com/pdiddy/medibrief/internal/layout"
	"github.com/pdiddy/medibrief/pkg/types"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

var testQuery = Query{
	Topic:      "cardiology",
	From:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	To:         time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
	MaxResults: 10,
}

const esummaryJSON = `{
  "result": {
    "uids": ["111", "222"],
    "111": {
      "uid": "111",
      "title": "Beta blockers &amp; outcomes in <i>heart failure</i>",
      "authors": [{"name": "Smith J", "authtype": "Author"}, {"name": "CARDIO Group", "authtype": "CollectiveName"}],
      "fulljournalname": "Journal of Cardiology",
      "source": "J Cardiol",
      "pubdate": "2026 Mar 3",
      "elocationid": "",
      "articleids": [{"idtype": "pubmed", "value": "111"}, {"idtype": "doi", "value": "10.1000/abc"}]
    },
    "222": {
      "uid": "222",
      "title": "Statins revisited",
      "authors": [],
      "fulljournalname": "",
      "source": "Heart",
      "pubdate": "2026 Mar 5",
      "elocationid": "pii: S0001. doi: 10.2000/def",
      "articleids": []
    }
  }
}`

const efetchXML = `<?xml version="1.0"?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID Version="1">111</PMID>
      <Article>
        <Abstract>
          <AbstractText Label="BACKGROUND">Studies <i>in vivo</i> are rare.</AbstractText>
          <AbstractText Label="RESULTS">Mortality fell by 10%.</AbstractText>
        </Abstract>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
  <PubmedArticle>
    <MedlineCitation>
      <PMID Version="1">222</PMID>
      <Article>
        <Abstract>
          <AbstractText>Plain abstract text.</AbstractText>
        </Abstract>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

func pubmedServer(t *testing.T, esearchStatus int) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-123", r.URL.Query().Get("api_key"))
		switch {
		case strings.HasSuffix(r.URL.Path, "/esearch.fcgi"):
			if esearchStatus != http.StatusOK {
				w.WriteHeader(esearchStatus)
				return
			}
			term := r.URL.Query().Get("term")
			assert.Equal(t, "cardiology[MeSH Terms] AND 2026/03/01:2026/03/08[pdat] AND hasabstract[text]", term)
			fmt.Fprint(w, `{"esearchresult": {"count": "2", "idlist": ["111", "222"]}}`)
		case strings.HasSuffix(r.URL.Path, "/esummary.fcgi"):
			assert.Equal(t, "111,222", r.URL.Query().Get("id"))
			fmt.Fprint(w, esummaryJSON)
		case strings.HasSuffix(r.URL.Path, "/efetch.fcgi"):
			fmt.Fprint(w, efetchXML)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)

	orig := eutilsBase
	eutilsBase = ts.URL
	t.Cleanup(func() { eutilsBase = orig })
	return ts
}

func TestPubMed_Collect(t *testing.T) {
	ts := pubmedServer(t, http.StatusOK)
	b := &PubMedBackend{Client: ts.Client(), APIKey: "key-123", UserAgent: "medibrief-test"}

	docs, err := Collect(context.Background(), b, testQuery, discard)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	first := docs[0]
	assert.Equal(t, "111", first.ID)
	assert.Equal(t, "Beta blockers & outcomes in heart failure", first.Title)
	assert.Equal(t, []string{"Smith J"}, first.Authors)
	assert.Equal(t, "Journal of Cardiology", first.Journal)
	assert.Equal(t, "10.1000/abc", first.DOI)
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/111/", first.URL)
	assert.Equal(t, "BACKGROUND: Studies in vivo are rare. RESULTS: Mortality fell by 10%.", first.Abstract)

	second := docs[1]
	assert.Equal(t, "10.2000/def", second.DOI)
	assert.Equal(t, "Heart", second.Journal, "falls back to source abbreviation")
	assert.Equal(t, "Plain abstract text.", second.Abstract)
	assert.Equal(t, "Unknown Authors", second.DisplayAuthors())
}

func TestPubMed_CollectRespectsCap(t *testing.T) {
	ts := pubmedServer(t, http.StatusOK)
	b := &PubMedBackend{Client: ts.Client(), APIKey: "key-123"}

	q := testQuery
	q.MaxResults = 1
	docs, err := Collect(context.Background(), b, q, discard)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestPubMed_SearchFailureIsClassified(t *testing.T) {
	ts := pubmedServer(t, http.StatusServiceUnavailable)
	a := adapter.New("pubmed", adapter.Options{MaxAttempts: 1}, discard)
	b := &PubMedBackend{Client: ts.Client(), Adapter: a, APIKey: "key-123"}

	docs, err := Collect(context.Background(), b, testQuery, discard)
	require.Error(t, err)
	assert.Empty(t, docs)
	assert.True(t, adapter.IsTransient(err))
}

func TestTerm(t *testing.T) {
	assert.Equal(t, "oncology[MeSH Terms] AND 2026/03/01:2026/03/08[pdat] AND hasabstract[text]",
		Term(Query{Topic: "oncology", From: testQuery.From, To: testQuery.To}))
}

func TestNewQuery(t *testing.T) {
	now := time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)
	q := NewQuery("neurology", 7, 5, now)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), q.From)
	assert.Equal(t, now, q.To)
	assert.Equal(t, 5, q.MaxResults)
}

func TestOpenAlex_PagesWithCursor(t *testing.T) {
	var pages int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		q := r.URL.Query()
		assert.Equal(t, "cardiology", q.Get("search"))
		assert.Contains(t, q.Get("filter"), "from_publication_date:2026-03-01")
		assert.Equal(t, "me@example.com", q.Get("mailto"))
		switch q.Get("cursor") {
		case "*":
			fmt.Fprint(w, `{"meta": {"count": 3, "next_cursor": "page2"}, "results": [
				{"id": "https://openalex.org/W1", "title": "First", "doi": "https://doi.org/10.1/one",
				 "publication_date": "2026-03-02",
				 "authorships": [{"author": {"display_name": "Ada Smith"}}],
				 "abstract_inverted_index": {"Hello": [0], "world": [1]},
				 "primary_location": {"source": {"display_name": "Heart"}}},
				{"id": "https://openalex.org/W2", "title": "Second", "doi": null, "publication_date": "2026-03-03"}
			]}`)
		case "page2":
			fmt.Fprint(w, `{"meta": {"count": 3, "next_cursor": null}, "results": [
				{"id": "https://openalex.org/W3", "title": "Third", "publication_date": "2026-03-04"}
			]}`)
		default:
			t.Errorf("unexpected cursor %q", q.Get("cursor"))
		}
	}))
	defer ts.Close()
	orig := openAlexWorksBase
	openAlexWorksBase = ts.URL
	defer func() { openAlexWorksBase = orig }()

	b := &OpenAlexBackend{Client: ts.Client(), Email: "me@example.com"}
	docs, err := Collect(context.Background(), b, testQuery, discard)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, 2, pages)

	assert.Equal(t, "W1", docs[0].ID)
	assert.Equal(t, "10.1/one", docs[0].DOI)
	assert.Equal(t, "Hello world", docs[0].Abstract)
	assert.Equal(t, "Heart", docs[0].Journal)
	assert.Equal(t, []string{"Ada Smith"}, docs[0].Authors)
	assert.Equal(t, "", docs[1].DOI)
	assert.Equal(t, "https://openalex.org/W2", docs[1].URL)
}

func TestReconstructAbstract(t *testing.T) {
	got := reconstructAbstract(map[string][]int{"the": {0, 3}, "cat": {1}, "saw": {2}, "dog": {4}})
	assert.Equal(t, "the cat saw the dog", got)
	assert.Equal(t, "", reconstructAbstract(nil))
}

// stubBackend yields fixed records and then an optional error.
type stubBackend struct {
	docs []types.DocumentRecord
	err  error
}

func (s *stubBackend) Name() string { return "stub" }

func (s *stubBackend) Search(context.Context, Query) iter.Seq2[types.DocumentRecord, error] {
	return func(yield func(types.DocumentRecord, error) bool) {
		for _, d := range s.docs {
			if !yield(d, nil) {
				return
			}
		}
		if s.err != nil {
			yield(types.DocumentRecord{}, s.err)
		}
	}
}

func TestCollect_SkipsEmptyAndDuplicateIDs(t *testing.T) {
	b := &stubBackend{docs: []types.DocumentRecord{{ID: "1"}, {ID: ""}, {ID: "1"}, {ID: "2"}}}
	docs, err := Collect(context.Background(), b, Query{Topic: "x"}, discard)
	require.NoError(t, err)
	assert.Equal(t, []types.DocumentRecord{{ID: "1"}, {ID: "2"}}, docs)
}

func TestCollect_ReturnsPartialOnError(t *testing.T) {
	boom := errors.New("boom")
	b := &stubBackend{docs: []types.DocumentRecord{{ID: "1"}}, err: boom}
	docs, err := Collect(context.Background(), b, Query{Topic: "x"}, discard)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, docs, 1)
}

func TestWriteSnapshot(t *testing.T) {
	l := layout.New(t.TempDir())
	docs := []types.DocumentRecord{{ID: "111", Title: "A"}}

	path, err := WriteSnapshot(l, "pubmed", testQuery, docs)
	require.NoError(t, err)
	assert.Equal(t, l.SnapshotPath("cardiology"), path)

	var snap Snapshot
	require.NoError(t, layout.ReadJSON(path, &snap))
	assert.Equal(t, "cardiology", snap.Topic)
	assert.Equal(t, "2026-03-01", snap.From)
	assert.Equal(t, docs, snap.Documents)
}

func TestNewBackend(t *testing.T) {
	cfg := types.DefaultConfig()
	b, err := NewBackend(&cfg, http.DefaultClient, nil)
	require.NoError(t, err)
	assert.Equal(t, "pubmed", b.Name())

	cfg.PubMed.Backend = "openalex"
	b, err = NewBackend(&cfg, http.DefaultClient, nil)
	require.NoError(t, err)
	assert.Equal(t, "openalex", b.Name())

	cfg.PubMed.Backend = "scopus"
	_, err = NewBackend(&cfg, http.DefaultClient, nil)
	var cerr *types.ConfigError
	assert.ErrorAs(t, err, &cerr)
}
