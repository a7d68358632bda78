// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the discovery and
// acquisition clients. Responses are classified into the adapter error
// taxonomy so the adapter layer decides what to retry.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/medibrief/internal/adapter"
)

// maxErrorBody caps how much of an error response body is kept in messages.
const maxErrorBody = 512

// Do sends req with the given User-Agent and returns the response when the
// status is 2xx. Transport failures become *adapter.TransientError; non-2xx
// responses are classified by CheckResponse. The caller closes the body of a
// successful response.
func Do(ctx context.Context, client *http.Client, req *http.Request, userAgent, service, op string) (*http.Response, error) {
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	resp, err := client.Do(req.Clone(ctx))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, adapter.Transient(service, op, 0, err)
	}
	if err := CheckResponse(service, op, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// CheckResponse returns nil for a 2xx response. Otherwise it drains and
// closes the body and returns an error classified by status: 408, 429, and
// 5xx are transient, every other status is permanent.
func CheckResponse(service, op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	target := "upstream"
	if resp.Request != nil && resp.Request.URL != nil {
		target = resp.Request.URL.Redacted()
	}
	msg := fmt.Errorf("HTTP %d from %s", resp.StatusCode, target)
	if len(body) > 0 {
		msg = fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, target, body)
	}
	return adapter.FromStatus(service, op, resp.StatusCode, msg)
}
