// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"cloud.google.com/go/auth/credentials"
	"google.golang.org/genai"

	"github.com/pdiddy/medibrief/internal/adapter"
	"github.com/pdiddy/medibrief/pkg/types"
)

// TextGenerator produces text for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, maxTokens int32) (string, error)
}

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// GenAIGenerator generates text with a Gemini model, either through the
// Gemini API (API key) or Vertex AI (project credentials).
type GenAIGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
	topP        float32
}

// GenAIOptions override client construction, chiefly for tests.
type GenAIOptions struct {
	HTTPClient *http.Client
	BaseURL    string
}

// NewGenAIGenerator builds a generator for cfg.AIProcessing.Backend:
// "gemini" uses the configured API key, "vertex" uses the GCP project with
// the credentials file or Application Default Credentials.
func NewGenAIGenerator(ctx context.Context, cfg *types.Config, opts GenAIOptions) (*GenAIGenerator, error) {
	ai := cfg.AIProcessing
	cc := &genai.ClientConfig{
		HTTPClient:  opts.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: opts.BaseURL},
	}

	switch ai.Backend {
	case "", "gemini":
		key, err := cfg.APIKey("gemini")
		if err != nil {
			return nil, err
		}
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = key
	case "vertex":
		cc.Backend = genai.BackendVertexAI
		cc.Project = cfg.APIKeys.GCPProjectID
		cc.Location = ai.VertexAI.Location
		if opts.HTTPClient == nil {
			creds, err := credentials.DetectDefault(&credentials.DetectOptions{
				Scopes:          []string{cloudPlatformScope},
				CredentialsFile: cfg.Credentials.GoogleApplicationCredentials,
			})
			if err != nil {
				return nil, fmt.Errorf("detecting Google credentials: %w", err)
			}
			cc.Credentials = creds
		}
	default:
		return nil, &types.ConfigError{Section: "ai_processing", Field: "backend", Msg: fmt.Sprintf("unknown backend %q", ai.Backend)}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", ai.Backend, err)
	}
	return &GenAIGenerator{
		client:      client,
		model:       ai.VertexAI.ModelName,
		temperature: float32(ai.Summarization.Temperature),
		topP:        float32(ai.Summarization.TopP),
	}, nil
}

// Generate implements TextGenerator. An empty completion is a permanent
// error.
func (g *GenAIGenerator) Generate(ctx context.Context, prompt string, maxTokens int32) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		TopP:            genai.Ptr(g.topP),
		MaxOutputTokens: maxTokens,
	})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", adapter.Permanent("genai", "generate", 0, fmt.Errorf("model %s returned no text", g.model))
	}
	return text, nil
}
