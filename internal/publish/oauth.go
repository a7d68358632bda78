// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"

	"github.com/pdiddy/medibrief/internal/adapter"
)

// OAuthConfig reads a client-secrets file for the YouTube upload scope.
func OAuthConfig(secretsPath string) (*oauth2.Config, error) {
	data, err := os.ReadFile(secretsPath)
	if err != nil {
		return nil, fmt.Errorf("reading client secrets: %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, youtube.YoutubeUploadScope)
	if err != nil {
		return nil, fmt.Errorf("parsing client secrets: %w", err)
	}
	return cfg, nil
}

// OAuthClient returns an HTTP client authorized with the cached token. A
// missing token is a permanent error; run "medibrief auth" first.
// Refreshed tokens are written back to tokenPath.
func OAuthClient(ctx context.Context, cfg *oauth2.Config, tokenPath string, logger *slog.Logger) (*http.Client, error) {
	tok, err := LoadToken(tokenPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, adapter.Permanent("youtube", "authorize", 0,
			fmt.Errorf("no token at %s: run \"medibrief auth\" to authorize uploads", tokenPath))
	}
	if err != nil {
		return nil, err
	}
	if tok.RefreshToken == "" && !tok.Valid() {
		return nil, adapter.Permanent("youtube", "authorize", 0,
			fmt.Errorf("token at %s expired without a refresh token: run \"medibrief auth\"", tokenPath))
	}
	src := &savingTokenSource{src: cfg.TokenSource(ctx, tok), path: tokenPath, last: tok.AccessToken, logger: logger}
	return oauth2.NewClient(ctx, src), nil
}

// savingTokenSource persists every newly issued access token.
type savingTokenSource struct {
	src    oauth2.TokenSource
	path   string
	logger *slog.Logger

	mu   sync.Mutex
	last string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := SaveToken(s.path, tok); err != nil {
			s.logger.Warn("saving refreshed token failed", "path", s.path, "error", err)
		} else {
			s.logger.Debug("saved refreshed token", "path", s.path)
		}
	}
	return tok, nil
}

// LoadToken reads a JSON-encoded token.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal(data, tok); err != nil {
		return nil, fmt.Errorf("decoding token %s: %w", path, err)
	}
	return tok, nil
}

// SaveToken writes tok as JSON, readable only by the owner.
func SaveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Authorize runs the OAuth device flow, printing instructions to out, and
// saves the resulting token.
func Authorize(ctx context.Context, cfg *oauth2.Config, tokenPath string, out io.Writer) error {
	resp, err := cfg.DeviceAuth(ctx, oauth2.AccessTypeOffline)
	if err != nil {
		return fmt.Errorf("starting device authorization: %w", err)
	}
	fmt.Fprintf(out, "Visit %s and enter code %s\n", resp.VerificationURI, resp.UserCode)
	fmt.Fprintln(out, "Waiting for authorization...")

	tok, err := cfg.DeviceAccessToken(ctx, resp, oauth2.AccessTypeOffline)
	if err != nil {
		return fmt.Errorf("device authorization did not complete: %w", err)
	}
	if err := SaveToken(tokenPath, tok); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	fmt.Fprintf(out, "Authorized. Token saved to %s\n", tokenPath)
	return nil
}
