// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package storage uploads pipeline artifacts to object storage buckets.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gcs "google.golang.org/api/storage/v1"

	"github.com/pdiddy/medibrief/internal/adapter"
	"github.com/pdiddy/medibrief/pkg/types"
)

// Kind selects the bucket an artifact belongs in.
type Kind string

const (
	Videos Kind = "videos"
	PDFs   Kind = "pdfs"
	Images Kind = "images"
	Audio  Kind = "audio"
)

// Store creates buckets and uploads files.
type Store interface {
	EnsureBuckets(ctx context.Context) error

	// Upload copies localPath to objectName in the bucket for kind and
	// returns the object's public URL.
	Upload(ctx context.Context, kind Kind, localPath, objectName string) (string, error)
}

// publicBase prefixes object URLs.
var publicBase = "https://storage.googleapis.com/"

// GCS is a Store backed by the Cloud Storage JSON API.
type GCS struct {
	svc     *gcs.Service
	project string
	cfg     types.StorageConfig
	adapter *adapter.Adapter
	logger  *slog.Logger
}

// NewGCS creates a Cloud Storage client. Calls run through a.
func NewGCS(ctx context.Context, project string, cfg types.StorageConfig, a *adapter.Adapter, logger *slog.Logger, opts ...option.ClientOption) (*GCS, error) {
	svc, err := gcs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating Cloud Storage client: %w", err)
	}
	return &GCS{svc: svc, project: project, cfg: cfg, adapter: a, logger: logger}, nil
}

// Bucket returns the configured bucket name for kind.
func (g *GCS) Bucket(kind Kind) string {
	return BucketName(g.cfg.Buckets, kind)
}

// BucketName returns the bucket configured for kind, or "".
func BucketName(b types.BucketsConfig, kind Kind) string {
	switch kind {
	case Videos:
		return b.Videos
	case PDFs:
		return b.PDFs
	case Images:
		return b.Images
	case Audio:
		return b.Audio
	}
	return ""
}

// EnsureBuckets creates every configured bucket that does not exist yet,
// with the configured storage class and a delete rule after the retention
// period.
func (g *GCS) EnsureBuckets(ctx context.Context) error {
	seen := map[string]bool{}
	for _, kind := range []Kind{Videos, PDFs, Images, Audio} {
		name := g.Bucket(kind)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if err := g.ensureBucket(ctx, name); err != nil {
			return fmt.Errorf("ensuring %s bucket %s: %w", kind, name, err)
		}
	}
	return nil
}

func (g *GCS) ensureBucket(ctx context.Context, name string) error {
	err := g.adapter.Do(ctx, "get bucket", func(ctx context.Context) error {
		_, err := g.svc.Buckets.Get(name).Context(ctx).Do()
		return err
	})
	if err == nil {
		g.logger.Debug("bucket exists", "bucket", name)
		return nil
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Code != http.StatusNotFound {
		return err
	}

	bucket := &gcs.Bucket{
		Name:         name,
		StorageClass: g.cfg.StorageClass,
		Location:     g.cfg.Location,
	}
	if g.cfg.RetentionDays > 0 {
		bucket.Lifecycle = &gcs.BucketLifecycle{
			Rule: []*gcs.BucketLifecycleRule{{
				Action:    &gcs.BucketLifecycleRuleAction{Type: "Delete"},
				Condition: &gcs.BucketLifecycleRuleCondition{Age: googleapi.Int64(int64(g.cfg.RetentionDays))},
			}},
		}
	}
	err = g.adapter.Do(ctx, "create bucket", func(ctx context.Context) error {
		_, err := g.svc.Buckets.Insert(g.project, bucket).Context(ctx).Do()
		return err
	})
	if err != nil {
		return err
	}
	g.logger.Info("created bucket", "bucket", name, "storage_class", g.cfg.StorageClass, "retention_days", g.cfg.RetentionDays)
	return nil
}

// Upload implements Store. The file is reopened on every attempt.
func (g *GCS) Upload(ctx context.Context, kind Kind, localPath, objectName string) (string, error) {
	bucket := g.Bucket(kind)
	if bucket == "" {
		return "", adapter.Permanent("storage", "upload", 0, fmt.Errorf("no bucket configured for %s", kind))
	}
	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	err := g.adapter.Do(ctx, "upload", func(ctx context.Context) error {
		f, err := os.Open(localPath)
		if err != nil {
			return adapter.Permanent("storage", "upload", 0, err)
		}
		defer f.Close()
		_, err = g.svc.Objects.Insert(bucket, &gcs.Object{Name: objectName, ContentType: contentType}).
			Media(f, googleapi.ContentType(contentType)).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return "", err
	}
	url := publicBase + bucket + "/" + objectName
	g.logger.Debug("uploaded object", "kind", kind, "url", url)
	return url, nil
}
