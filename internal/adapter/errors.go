// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// TransientError is a retryable upstream failure: a network blip, a
// rate-limit response, or a server-side 5xx.
type TransientError struct {
	Service    string
	Op         string
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	return formatError(e.Service, e.Op, "transient", e.StatusCode, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError is a non-retryable upstream failure such as bad
// credentials or a 4xx other than rate limiting.
type PermanentError struct {
	Service    string
	Op         string
	StatusCode int
	Err        error
}

func (e *PermanentError) Error() string {
	return formatError(e.Service, e.Op, "permanent", e.StatusCode, e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// UpstreamError is returned after all retry attempts failed. It wraps the
// last transient error.
type UpstreamError struct {
	Service  string
	Op       string
	Attempts int
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s %s: giving up after %d attempts: %v", e.Service, e.Op, e.Attempts, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func formatError(service, op, kind string, code int, err error) string {
	if code != 0 {
		return fmt.Sprintf("%s %s: %s error (HTTP %d): %v", service, op, kind, code, err)
	}
	return fmt.Sprintf("%s %s: %s error: %v", service, op, kind, err)
}

// Transient wraps err as a *TransientError.
func Transient(service, op string, code int, err error) error {
	return &TransientError{Service: service, Op: op, StatusCode: code, Err: err}
}

// Permanent wraps err as a *PermanentError.
func Permanent(service, op string, code int, err error) error {
	return &PermanentError{Service: service, Op: op, StatusCode: code, Err: err}
}

// IsTransient reports whether err is or wraps a *TransientError.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// IsPermanent reports whether err is or wraps a *PermanentError.
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}

// StatusIsTransient reports whether an HTTP status is worth retrying:
// 408, 429, and all 5xx.
func StatusIsTransient(code int) bool {
	return code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= http.StatusInternalServerError
}

// FromStatus classifies a failed HTTP response by its status code.
func FromStatus(service, op string, code int, err error) error {
	if StatusIsTransient(code) {
		return Transient(service, op, code, err)
	}
	return Permanent(service, op, code, err)
}

// Classify maps an arbitrary error from a client library onto the
// transient/permanent taxonomy. Already-classified errors and context
// cancellation pass through unchanged. Unrecognized errors are permanent.
func Classify(service, op string, err error) error {
	if err == nil {
		return nil
	}
	if IsTransient(err) || IsPermanent(err) || errors.Is(err, context.Canceled) {
		return err
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return FromStatus(service, op, gerr.Code, err)
	}

	var aerr genai.APIError
	if errors.As(err, &aerr) {
		return FromStatus(service, op, aerr.Code, err)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return Transient(service, op, 0, err)
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		return Transient(service, op, 0, err)
	}

	var uerr *url.Error
	if errors.As(err, &uerr) {
		return Transient(service, op, 0, err)
	}

	return Permanent(service, op, 0, err)
}
