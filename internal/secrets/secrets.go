// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Recognized key files: gemini-api-key, pubmed-api-key, openalex-email,
// gcp-project-id, google-application-credentials, youtube-client-secrets.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/medibrief/pkg/types"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged at warning level and skipped.
func Load(dir string, logger *slog.Logger) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if logger != nil {
				logger.Warn("could not read secret", "name", name, "error", err)
			}
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply copies recognized secrets into cfg. Values already set in the
// configuration win over secret files.
func Apply(secrets map[string]string, cfg *types.Config) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = secrets[key]
		}
	}
	fill(&cfg.APIKeys.Gemini, "gemini-api-key")
	fill(&cfg.APIKeys.PubMed, "pubmed-api-key")
	fill(&cfg.APIKeys.OpenAlexEmail, "openalex-email")
	fill(&cfg.APIKeys.GCPProjectID, "gcp-project-id")
	fill(&cfg.Credentials.GoogleApplicationCredentials, "google-application-credentials")
	fill(&cfg.Credentials.YouTubeClientSecrets, "youtube-client-secrets")
}
