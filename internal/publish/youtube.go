// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/pdiddy/medibrief/internal/adapter"
)

// YouTubePublisher uploads videos with the YouTube Data API.
type YouTubePublisher struct {
	svc     *youtube.Service
	adapter *adapter.Adapter
	logger  *slog.Logger
}

// NewYouTubePublisher creates a YouTube client. Production callers pass
// option.WithHTTPClient with an OAuth client from OAuthClient.
func NewYouTubePublisher(ctx context.Context, a *adapter.Adapter, logger *slog.Logger, opts ...option.ClientOption) (*YouTubePublisher, error) {
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating YouTube client: %w", err)
	}
	return &YouTubePublisher{svc: svc, adapter: a, logger: logger}, nil
}

// Publish implements Publisher. Each attempt reopens the file and restarts
// the upload.
func (y *YouTubePublisher) Publish(ctx context.Context, v Video) (Published, error) {
	meta := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       v.Title,
			Description: v.Description,
			Tags:        v.Tags,
			CategoryId:  v.CategoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           v.PrivacyStatus,
			SelfDeclaredMadeForKids: false,
			ForceSendFields:         []string{"SelfDeclaredMadeForKids"},
		},
	}

	resp, err := adapter.Call(ctx, y.adapter, "upload video", func(ctx context.Context) (*youtube.Video, error) {
		f, err := os.Open(v.Path)
		if err != nil {
			return nil, adapter.Permanent("youtube", "upload video", 0, err)
		}
		defer f.Close()
		return y.svc.Videos.Insert([]string{"snippet", "status"}, meta).
			Media(f, googleapi.ContentType("video/mp4")).
			Context(ctx).
			Do()
	})
	if err != nil {
		return Published{}, err
	}
	if resp.Id == "" {
		return Published{}, adapter.Permanent("youtube", "upload video", 0, errors.New("response carried no video ID"))
	}
	p := Published{ID: resp.Id, URL: WatchURL(resp.Id)}
	y.logger.Info("video published", "id", p.ID, "url", p.URL)
	return p, nil
}
