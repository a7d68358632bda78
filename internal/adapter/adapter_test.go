// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// fakeClock replaces now and sleep so tests never wait. Sleeping advances
// the clock by the requested duration.
type fakeClock struct {
	mu    sync.Mutex
	t     time.Time
	slept []time.Duration
}

func installFakeClock(t *testing.T) *fakeClock {
	t.Helper()
	fc := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	origNow, origSleep := now, sleep
	now = func() time.Time {
		fc.mu.Lock()
		defer fc.mu.Unlock()
		return fc.t
	}
	sleep = func(ctx context.Context, d time.Duration) error {
		fc.mu.Lock()
		fc.slept = append(fc.slept, d)
		fc.t = fc.t.Add(d)
		fc.mu.Unlock()
		return ctx.Err()
	}
	t.Cleanup(func() {
		now, sleep = origNow, origSleep
	})
	return fc
}

func (fc *fakeClock) sleeps() []time.Duration {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return append([]time.Duration(nil), fc.slept...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	fc := installFakeClock(t)
	a := New("svc", Options{MaxAttempts: 3, BaseDelay: time.Second}, quietLogger())

	calls := 0
	err := a.Do(context.Background(), "op", func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, fc.sleeps())
}

func TestDo_RetriesTransientWithExponentialBackoff(t *testing.T) {
	fc := installFakeClock(t)
	a := New("svc", Options{MaxAttempts: 3, BaseDelay: 2 * time.Second}, quietLogger())

	calls := 0
	err := a.Do(context.Background(), "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return Transient("svc", "op", http.StatusServiceUnavailable, errors.New("unavailable"))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, fc.sleeps())
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	fc := installFakeClock(t)
	a := New("svc", Options{MaxAttempts: AIAttempts, BaseDelay: time.Second}, quietLogger())

	calls := 0
	err := a.Do(context.Background(), "generate", func(context.Context) error {
		calls++
		return Transient("svc", "generate", http.StatusTooManyRequests, errors.New("slow down"))
	})
	require.Error(t, err)
	assert.Equal(t, AIAttempts, calls)

	var up *UpstreamError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, AIAttempts, up.Attempts)
	assert.True(t, IsTransient(err))
	// No sleep after the final attempt.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, fc.sleeps())
}

func TestDo_UploadPresetRetriesTenTimes(t *testing.T) {
	installFakeClock(t)
	a := New("gcs", Options{MaxAttempts: UploadAttempts, BaseDelay: time.Millisecond}, quietLogger())

	calls := 0
	err := a.Do(context.Background(), "upload", func(context.Context) error {
		calls++
		return &googleapi.Error{Code: http.StatusBadGateway}
	})
	require.Error(t, err)
	assert.Equal(t, UploadAttempts, calls)
}

func TestDo_PermanentNotRetried(t *testing.T) {
	fc := installFakeClock(t)
	a := New("svc", Options{MaxAttempts: 10, BaseDelay: time.Second}, quietLogger())

	calls := 0
	err := a.Do(context.Background(), "upload", func(context.Context) error {
		calls++
		return &googleapi.Error{Code: http.StatusForbidden, Message: "denied"}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, IsPermanent(err))
	assert.Empty(t, fc.sleeps())
}

func TestDo_UnclassifiedErrorIsPermanent(t *testing.T) {
	installFakeClock(t)
	a := New("svc", Options{MaxAttempts: 3}, quietLogger())

	calls := 0
	err := a.Do(context.Background(), "op", func(context.Context) error {
		calls++
		return fmt.Errorf("parse failure")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, IsPermanent(err))
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	installFakeClock(t)
	a := New("svc", Options{MaxAttempts: 3, BaseDelay: time.Second}, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := a.Do(ctx, "op", func(context.Context) error {
		calls++
		cancel()
		return Transient("svc", "op", 500, errors.New("boom"))
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestThrottle_WaitsForMinimumInterval(t *testing.T) {
	fc := installFakeClock(t)
	a := New("pubmed", Options{RateLimit: 2, MaxAttempts: 1}, quietLogger())

	for i := 0; i < 3; i++ {
		require.NoError(t, a.Do(context.Background(), "search", func(context.Context) error { return nil }))
	}
	// First call is immediate; the next two each wait the full 500ms.
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 500 * time.Millisecond}, fc.sleeps())
}

func TestThrottle_NoWaitWhenIntervalElapsed(t *testing.T) {
	fc := installFakeClock(t)
	a := New("pubmed", Options{RateLimit: 1, MaxAttempts: 1}, quietLogger())

	require.NoError(t, a.Do(context.Background(), "a", func(context.Context) error { return nil }))
	fc.mu.Lock()
	fc.t = fc.t.Add(3 * time.Second)
	fc.mu.Unlock()
	require.NoError(t, a.Do(context.Background(), "b", func(context.Context) error { return nil }))
	assert.Empty(t, fc.sleeps())
}

func TestThrottle_SeparateAdaptersDoNotShareState(t *testing.T) {
	fc := installFakeClock(t)
	a := New("vision", Options{RateLimit: 1, MaxAttempts: 1}, quietLogger())
	b := New("tts", Options{RateLimit: 1, MaxAttempts: 1}, quietLogger())

	require.NoError(t, a.Do(context.Background(), "x", func(context.Context) error { return nil }))
	require.NoError(t, b.Do(context.Background(), "x", func(context.Context) error { return nil }))
	assert.Empty(t, fc.sleeps())
}

func TestThrottle_ConcurrentCallersSerialized(t *testing.T) {
	fc := installFakeClock(t)
	a := New("svc", Options{RateLimit: 10, MaxAttempts: 1}, quietLogger())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = a.Do(context.Background(), "op", func(context.Context) error { return nil })
		}()
	}
	wg.Wait()

	sleeps := fc.sleeps()
	require.Len(t, sleeps, 4)
	for _, d := range sleeps {
		assert.Equal(t, 100*time.Millisecond, d)
	}
}

func TestCall_ReturnsValue(t *testing.T) {
	installFakeClock(t)
	a := New("svc", Options{MaxAttempts: 2, BaseDelay: time.Millisecond}, quietLogger())

	attempts := 0
	got, err := Call(context.Background(), a, "op", func(context.Context) (string, error) {
		attempts++
		if attempts == 1 {
			return "", &googleapi.Error{Code: http.StatusInternalServerError}
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantTransient bool
		wantPermanent bool
	}{
		{"googleapi 503", &googleapi.Error{Code: 503}, true, false},
		{"googleapi 429", &googleapi.Error{Code: 429}, true, false},
		{"googleapi 404", &googleapi.Error{Code: 404}, false, true},
		{"genai 500", genai.APIError{Code: 500}, true, false},
		{"genai 400", genai.APIError{Code: 400}, false, true},
		{"wrapped googleapi", fmt.Errorf("insert: %w", &googleapi.Error{Code: 502}), true, false},
		{"deadline", context.DeadlineExceeded, true, false},
		{"unexpected eof", io.ErrUnexpectedEOF, true, false},
		{"plain", errors.New("bad input"), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify("svc", "op", tt.err)
			assert.Equal(t, tt.wantTransient, IsTransient(got))
			assert.Equal(t, tt.wantPermanent, IsPermanent(got))
		})
	}
}

func TestClassify_PassesThroughCancellation(t *testing.T) {
	assert.Equal(t, context.Canceled, Classify("svc", "op", context.Canceled))
	assert.Nil(t, Classify("svc", "op", nil))
}

func TestStatusIsTransient(t *testing.T) {
	assert.True(t, StatusIsTransient(408))
	assert.True(t, StatusIsTransient(429))
	assert.True(t, StatusIsTransient(500))
	assert.True(t, StatusIsTransient(599))
	assert.False(t, StatusIsTransient(400))
	assert.False(t, StatusIsTransient(401))
	assert.False(t, StatusIsTransient(404))
}
