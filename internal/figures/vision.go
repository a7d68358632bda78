// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package figures

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"

	"github.com/pdiddy/medibrief/internal/adapter"
	"github.com/pdiddy/medibrief/pkg/types"
)

// VisionAnalyzer annotates images with Cloud Vision.
type VisionAnalyzer struct {
	svc        *vision.Service
	features   []string
	maxResults int64
}

// NewVisionAnalyzer creates a Cloud Vision client. Extra options (endpoint,
// HTTP client, credentials) are passed through to the client.
func NewVisionAnalyzer(ctx context.Context, cfg types.VisionConfig, opts ...option.ClientOption) (*VisionAnalyzer, error) {
	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating Vision client: %w", err)
	}
	features := cfg.FeatureTypes
	if len(features) == 0 {
		features = []string{"LABEL_DETECTION", "TEXT_DETECTION", "OBJECT_LOCALIZATION"}
	}
	return &VisionAnalyzer{svc: svc, features: features, maxResults: int64(cfg.MaxResults)}, nil
}

// Analyze implements Analyzer.
func (v *VisionAnalyzer) Analyze(ctx context.Context, imagePath string) (Analysis, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return Analysis{}, adapter.Permanent("vision", "annotate", 0, err)
	}

	req := &vision.AnnotateImageRequest{
		Image: &vision.Image{Content: base64.StdEncoding.EncodeToString(data)},
	}
	for _, f := range v.features {
		req.Features = append(req.Features, &vision.Feature{Type: f, MaxResults: v.maxResults})
	}

	resp, err := v.svc.Images.Annotate(&vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{req},
	}).Context(ctx).Do()
	if err != nil {
		return Analysis{}, err
	}
	if len(resp.Responses) == 0 {
		return Analysis{}, adapter.Permanent("vision", "annotate", 0, errors.New("empty response"))
	}
	r := resp.Responses[0]
	if r.Error != nil && r.Error.Message != "" {
		return Analysis{}, adapter.Permanent("vision", "annotate", 0, fmt.Errorf("code %d: %s", r.Error.Code, r.Error.Message))
	}

	var a Analysis
	for _, l := range r.LabelAnnotations {
		a.Labels = append(a.Labels, Annotation{Description: l.Description, Score: l.Score})
	}
	for _, t := range r.TextAnnotations {
		a.Texts = append(a.Texts, Annotation{Description: t.Description, Score: t.Score})
	}
	for _, o := range r.LocalizedObjectAnnotations {
		a.Objects = append(a.Objects, Annotation{Description: o.Name, Score: o.Score})
	}
	return a, nil
}
