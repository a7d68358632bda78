// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package adapter wraps calls to external services with a minimum-interval
// throttle and exponential-backoff retry. Each external service gets its own
// Adapter, so pacing state is never shared between services.
package adapter

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"
)

// Attempt presets.
const (
	// AIAttempts applies to text generation, image analysis, and speech.
	AIAttempts = 3

	// UploadAttempts applies to large uploads (object storage, video platform).
	UploadAttempts = 10
)

// Options configure one Adapter.
type Options struct {
	// RateLimit is the maximum calls per second. Zero disables throttling.
	RateLimit float64

	// MaxAttempts is the total number of attempts, including the first.
	// Values below 1 mean a single attempt.
	MaxAttempts int

	// BaseDelay is the backoff before the first retry. The wait after
	// failed attempt n is BaseDelay * 2^(n-1).
	BaseDelay time.Duration
}

// sleep waits for d or until ctx ends. Tests replace it to avoid real waits.
var sleep = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var now = time.Now

// Adapter paces and retries calls to one external service.
type Adapter struct {
	name        string
	minInterval time.Duration
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger

	mu       sync.Mutex
	lastCall time.Time
}

// New creates an Adapter for the named service.
func New(name string, opts Options, logger *slog.Logger) *Adapter {
	a := &Adapter{
		name:        name,
		maxAttempts: opts.MaxAttempts,
		baseDelay:   opts.BaseDelay,
		logger:      logger,
	}
	if a.maxAttempts < 1 {
		a.maxAttempts = 1
	}
	if opts.RateLimit > 0 {
		a.minInterval = time.Duration(float64(time.Second) / opts.RateLimit)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Name returns the service name.
func (a *Adapter) Name() string { return a.name }

// MaxAttempts returns the configured attempt count.
func (a *Adapter) MaxAttempts() int { return a.maxAttempts }

// wait blocks until at least minInterval has passed since the previous call
// through this adapter, then records the new call time. The lock is held
// across the sleep so concurrent callers are strictly serialized.
func (a *Adapter) wait(ctx context.Context) error {
	if a.minInterval <= 0 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.lastCall.IsZero() {
		elapsed := now().Sub(a.lastCall)
		if deficit := a.minInterval - elapsed; deficit > 0 {
			if err := sleep(ctx, deficit); err != nil {
				return err
			}
		}
	}
	a.lastCall = now()
	return nil
}

// backoff returns the delay after failed attempt n (1-based).
func (a *Adapter) backoff(n int) time.Duration {
	return time.Duration(math.Pow(2, float64(n-1))) * a.baseDelay
}

// Do runs fn through the throttle, retrying transient failures. Errors from
// fn are classified with Classify; permanent ones return immediately. When
// every attempt fails transiently the last error is wrapped in
// *UpstreamError. A nil Adapter runs fn once, unthrottled.
func (a *Adapter) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	if a == nil {
		return Classify("", op, fn(ctx))
	}
	var lastErr error
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		if err := a.wait(ctx); err != nil {
			return err
		}

		err := Classify(a.name, op, fn(ctx))
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		lastErr = err

		if attempt == a.maxAttempts {
			break
		}
		delay := a.backoff(attempt)
		a.logger.Warn("transient upstream failure, retrying",
			"service", a.name, "op", op, "attempt", attempt, "max_attempts", a.maxAttempts,
			"delay", delay, "error", err)
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return &UpstreamError{Service: a.name, Op: op, Attempts: a.maxAttempts, Err: lastErr}
}

// Call is Do for operations that return a value.
func Call[T any](ctx context.Context, a *Adapter, op string, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := a.Do(ctx, op, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
