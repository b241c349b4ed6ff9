package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(retries int) *Client {
	c := New(Config{MaxRetries: retries, Timeout: 5 * time.Second})
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func get(url string) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	}
}

func TestDo_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, err := newTestClient(5).Do(context.Background(), get(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(2).Do(context.Background(), get(srv.URL))
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(5).Do(context.Background(), get(srv.URL))
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(Config{MaxRetries: 3, RequestsPerSecond: 100})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Do(ctx, get(srv.URL))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, 200*time.Millisecond, retryDelay(0))
	assert.Equal(t, 400*time.Millisecond, retryDelay(1))
	assert.Equal(t, 5*time.Second, retryDelay(10))
	assert.Equal(t, 200*time.Millisecond, retryDelay(-3))
}
