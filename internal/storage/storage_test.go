// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/pdiddy/medibrief/internal/adapter"
	"github.com/pdiddy/medibrief/pkg/types"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeGCS serves bucket get/insert and multipart object uploads.
type fakeGCS struct {
	mu       sync.Mutex
	existing map[string]bool
	created  []map[string]any
	uploads  map[string]string
	failures int
}

func (f *fakeGCS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasPrefix(r.URL.Path, "/upload/storage/v1/b/"):
		if f.failures > 0 {
			f.failures--
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"error": {"code": 503, "message": "backend error"}}`)
			return
		}
		bucket := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/upload/storage/v1/b/"), "/o")
		body, _ := io.ReadAll(r.Body)
		f.uploads[bucket] = string(body)
		fmt.Fprintf(w, `{"bucket": %q, "name": "obj"}`, bucket)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/storage/v1/b/"):
		name := strings.TrimPrefix(r.URL.Path, "/storage/v1/b/")
		if !f.existing[name] {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error": {"code": 404, "message": "Not Found"}}`)
			return
		}
		fmt.Fprintf(w, `{"name": %q}`, name)
	case r.Method == http.MethodPost && r.URL.Path == "/storage/v1/b":
		var b map[string]any
		_ = json.NewDecoder(r.Body).Decode(&b)
		b["project"] = r.URL.Query().Get("project")
		f.created = append(f.created, b)
		fmt.Fprintf(w, `{"name": %q}`, b["name"])
	default:
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, `{"error": {"code": 400, "message": "unexpected %s %s"}}`, r.Method, r.URL.Path)
	}
}

func newStore(t *testing.T, fake *fakeGCS, attempts int) *GCS {
	t.Helper()
	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)
	cfg := types.StorageConfig{
		Buckets:       types.BucketsConfig{Videos: "mb-videos", PDFs: "mb-pdfs", Images: "mb-images", Audio: "mb-videos"},
		StorageClass:  "NEARLINE",
		RetentionDays: 30,
		Location:      "EU",
	}
	a := adapter.New("storage", adapter.Options{MaxAttempts: attempts}, discard)
	g, err := NewGCS(context.Background(), "proj-1", cfg, a, discard,
		option.WithEndpoint(ts.URL+"/storage/v1/"), option.WithHTTPClient(ts.Client()))
	require.NoError(t, err)
	return g
}

func TestEnsureBuckets(t *testing.T) {
	fake := &fakeGCS{existing: map[string]bool{"mb-pdfs": true}, uploads: map[string]string{}}
	g := newStore(t, fake, 1)

	require.NoError(t, g.EnsureBuckets(context.Background()))

	require.Len(t, fake.created, 2, "existing and duplicate buckets are skipped")
	b := fake.created[0]
	assert.Equal(t, "mb-videos", b["name"])
	assert.Equal(t, "NEARLINE", b["storageClass"])
	assert.Equal(t, "EU", b["location"])
	assert.Equal(t, "proj-1", b["project"])
	rule := b["lifecycle"].(map[string]any)["rule"].([]any)[0].(map[string]any)
	assert.Equal(t, "Delete", rule["action"].(map[string]any)["type"])
	assert.EqualValues(t, 30, rule["condition"].(map[string]any)["age"])
	assert.Equal(t, "mb-images", fake.created[1]["name"])
}

func TestUpload(t *testing.T) {
	fake := &fakeGCS{uploads: map[string]string{}, failures: 1}
	g := newStore(t, fake, 3)

	path := filepath.Join(t.TempDir(), "42.mp4")
	require.NoError(t, os.WriteFile(path, []byte("video-bytes"), 0o644))

	url, err := g.Upload(context.Background(), Videos, path, "cardiology/42.mp4")
	require.NoError(t, err)
	assert.Equal(t, "https://storage.googleapis.com/mb-videos/cardiology/42.mp4", url)
	assert.Contains(t, fake.uploads["mb-videos"], "video-bytes", "retried after a transient failure")
}

func TestUpload_Errors(t *testing.T) {
	fake := &fakeGCS{uploads: map[string]string{}}
	g := newStore(t, fake, 1)

	_, err := g.Upload(context.Background(), Videos, filepath.Join(t.TempDir(), "missing.mp4"), "x.mp4")
	assert.True(t, adapter.IsPermanent(err))

	_, err = g.Upload(context.Background(), Kind("thumbnails"), "x", "y")
	assert.True(t, adapter.IsPermanent(err))
}
