// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/medibrief/internal/adapter"
	"github.com/pdiddy/medibrief/internal/httputil"
	"github.com/pdiddy/medibrief/pkg/types"
)

// eutilsBase is the NCBI E-utilities endpoint. Declared as a var so tests
// can substitute an httptest server.
var eutilsBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

const (
	pubmedArticleBase = "https://pubmed.ncbi.nlm.nih.gov/"
	pubmedBatchSize   = 20
)

// PubMedBackend searches PubMed through E-utilities: esearch for IDs,
// esummary for metadata, and efetch for abstracts. Metadata is fetched in
// batches as the sequence is consumed.
type PubMedBackend struct {
	Client    *http.Client
	Adapter   *adapter.Adapter
	APIKey    string
	UserAgent string
}

// Name returns the backend identifier.
func (b *PubMedBackend) Name() string { return "pubmed" }

// Term builds the esearch term: MeSH topic, publication-date window, and
// abstract presence.
func Term(q Query) string {
	return fmt.Sprintf("%s[MeSH Terms] AND %s:%s[pdat] AND hasabstract[text]",
		q.Topic, q.From.Format("2006/01/02"), q.To.Format("2006/01/02"))
}

// Search implements Backend.
func (b *PubMedBackend) Search(ctx context.Context, q Query) iter.Seq2[types.DocumentRecord, error] {
	return func(yield func(types.DocumentRecord, error) bool) {
		ids, err := b.searchIDs(ctx, q)
		if err != nil {
			yield(types.DocumentRecord{}, err)
			return
		}
		for start := 0; start < len(ids); start += pubmedBatchSize {
			batch := ids[start:min(start+pubmedBatchSize, len(ids))]
			docs, err := b.fetchBatch(ctx, batch)
			if err != nil {
				yield(types.DocumentRecord{}, err)
				return
			}
			for _, d := range docs {
				if !yield(d, nil) {
					return
				}
			}
		}
	}
}

type esearchResponse struct {
	Result struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

func (b *PubMedBackend) searchIDs(ctx context.Context, q Query) ([]string, error) {
	retmax := q.MaxResults
	if retmax <= 0 {
		retmax = 20
	}
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {Term(q)},
		"retmode": {"json"},
		"retmax":  {strconv.Itoa(retmax)},
		"sort":    {"pub_date"},
	}
	data, err := b.get(ctx, "esearch", "esearch.fcgi", params)
	if err != nil {
		return nil, err
	}
	var es esearchResponse
	if err := json.Unmarshal(data, &es); err != nil {
		return nil, fmt.Errorf("parsing esearch response: %w", err)
	}
	return es.Result.IDList, nil
}

// esummary returns "result" as an object keyed by UID plus a "uids" array.
type esummaryDoc struct {
	UID     string `json:"uid"`
	Title   string `json:"title"`
	Authors []struct {
		Name     string `json:"name"`
		AuthType string `json:"authtype"`
	} `json:"authors"`
	FullJournalName string `json:"fulljournalname"`
	Source          string `json:"source"`
	PubDate         string `json:"pubdate"`
	ELocationID     string `json:"elocationid"`
	ArticleIDs      []struct {
		IDType string `json:"idtype"`
		Value  string `json:"value"`
	} `json:"articleids"`
}

type efetchSet struct {
	Articles []efetchArticle `xml:"PubmedArticle"`
}

type efetchArticle struct {
	PMID     string         `xml:"MedlineCitation>PMID"`
	Abstract []abstractText `xml:"MedlineCitation>Article>Abstract>AbstractText"`
}

type abstractText struct {
	Label string `xml:"Label,attr"`
	Inner string `xml:",innerxml"`
}

func (b *PubMedBackend) fetchBatch(ctx context.Context, ids []string) ([]types.DocumentRecord, error) {
	idParam := strings.Join(ids, ",")

	sumData, err := b.get(ctx, "esummary", "esummary.fcgi", url.Values{
		"db": {"pubmed"}, "id": {idParam}, "retmode": {"json"},
	})
	if err != nil {
		return nil, err
	}
	var raw struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(sumData, &raw); err != nil {
		return nil, fmt.Errorf("parsing esummary response: %w", err)
	}

	fetchData, err := b.get(ctx, "efetch", "efetch.fcgi", url.Values{
		"db": {"pubmed"}, "id": {idParam}, "retmode": {"xml"}, "rettype": {"abstract"},
	})
	if err != nil {
		return nil, err
	}
	var set efetchSet
	if err := xml.Unmarshal(fetchData, &set); err != nil {
		return nil, fmt.Errorf("parsing efetch response: %w", err)
	}
	abstracts := make(map[string]string, len(set.Articles))
	for _, a := range set.Articles {
		abstracts[strings.TrimSpace(a.PMID)] = joinAbstract(a.Abstract)
	}

	docs := make([]types.DocumentRecord, 0, len(ids))
	for _, id := range ids {
		entry, ok := raw.Result[id]
		if !ok {
			continue
		}
		var s esummaryDoc
		if err := json.Unmarshal(entry, &s); err != nil {
			return nil, fmt.Errorf("parsing esummary record %s: %w", id, err)
		}
		docs = append(docs, s.record(id, abstracts[id]))
	}
	return docs, nil
}

func (s esummaryDoc) record(id, abstract string) types.DocumentRecord {
	d := types.DocumentRecord{
		ID:              id,
		Title:           plainText(s.Title),
		Journal:         s.FullJournalName,
		PublicationDate: s.PubDate,
		Abstract:        abstract,
		DOI:             s.doi(),
		URL:             pubmedArticleBase + id + "/",
	}
	if d.Journal == "" {
		d.Journal = s.Source
	}
	for _, a := range s.Authors {
		if a.Name != "" && (a.AuthType == "" || a.AuthType == "Author") {
			d.Authors = append(d.Authors, a.Name)
		}
	}
	return d
}

// doi prefers the structured article ID, falling back to the "doi: "
// portion of elocationid.
func (s esummaryDoc) doi() string {
	for _, a := range s.ArticleIDs {
		if a.IDType == "doi" && a.Value != "" {
			return strings.TrimSpace(a.Value)
		}
	}
	loc := s.ELocationID
	i := strings.Index(loc, "doi:")
	if i < 0 {
		return ""
	}
	fields := strings.Fields(loc[i+len("doi:"):])
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// joinAbstract flattens structured abstract sections into one string,
// prefixing labeled sections ("METHODS: ...").
func joinAbstract(parts []abstractText) string {
	var out []string
	for _, p := range parts {
		text := plainText(p.Inner)
		if text == "" {
			continue
		}
		if p.Label != "" {
			text = p.Label + ": " + text
		}
		out = append(out, text)
	}
	return strings.Join(out, " ")
}

// inlineConverter renders PubMed's inline markup (<i>, <sup>, entities)
// as plain text.
var inlineConverter = func() *md.Converter {
	conv := md.NewConverter("", true, &md.Options{EscapeMode: "disabled"})
	conv.AddRules(md.Rule{
		Filter: []string{"i", "em", "b", "strong", "u", "sup", "sub"},
		Replacement: func(content string, _ *goquery.Selection, _ *md.Options) *string {
			return md.String(content)
		},
	})
	return conv
}()

// plainText converts markup to text and collapses whitespace. On a
// conversion error the input is returned with whitespace collapsed.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	out, err := inlineConverter.ConvertString(s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(out), " ")
}

// get performs one E-utilities request through the adapter.
func (b *PubMedBackend) get(ctx context.Context, op, endpoint string, params url.Values) ([]byte, error) {
	if b.APIKey != "" {
		params.Set("api_key", b.APIKey)
	}
	reqURL := eutilsBase + "/" + endpoint + "?" + params.Encode()

	return adapter.Call(ctx, b.Adapter, op, func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, adapter.Permanent("pubmed", op, 0, err)
		}
		resp, err := httputil.Do(ctx, b.Client, req, b.UserAgent, "pubmed", op)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, adapter.Transient("pubmed", op, 0, err)
		}
		return data, nil
	})
}
