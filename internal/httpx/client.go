// Package httpx wraps net/http with the retry and throttling policy shared by
// the embedding, completion and Qdrant clients.
package httpx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const DefaultMaxRetries = 5

// Client retries transient failures (network errors, 429, 5xx) with capped
// exponential backoff and optionally throttles outgoing requests.
type Client struct {
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int
	logger     *slog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// Config configures a Client.
type Config struct {
	Timeout time.Duration
	// RequestsPerSecond <= 0 disables throttling.
	RequestsPerSecond float64
	MaxRetries        int
	Logger            *slog.Logger
}

func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return &Client{
		http:       &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
		maxRetries: cfg.MaxRetries,
		logger:     cfg.Logger,
		sleep:      sleepCtx,
	}
}

// StatusError is returned when the final attempt ends with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Do sends the request built by build, retrying transient failures. The
// returned body has been fully read; non-2xx responses become *StatusError.
func (c *Client) Do(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		req, err := build(ctx)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if attempt < c.maxRetries {
				c.logger.Warn("request failed, will retry", "url", req.URL.String(), "attempt", attempt+1, "error", err)
				if err := c.sleep(ctx, retryDelay(attempt)); err != nil {
					return nil, err
				}
				continue
			}
			return nil, fmt.Errorf("request failed after %d attempts: %w", attempt+1, err)
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
			if attempt < c.maxRetries {
				wait := retryDelay(attempt)
				if ra := resp.Header.Get("Retry-After"); ra != "" {
					if secs, err := strconv.Atoi(ra); err == nil {
						wait = time.Duration(secs) * time.Second
					}
				}
				c.logger.Warn("server error, will retry", "url", req.URL.String(), "status", resp.StatusCode, "backoff", wait)
				if err := c.sleep(ctx, wait); err != nil {
					return nil, err
				}
				continue
			}
			return nil, lastErr
		}
		if readErr != nil {
			return nil, fmt.Errorf("read response: %w", readErr)
		}
		if resp.StatusCode >= 300 {
			return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		}
		return body, nil
	}
	return nil, lastErr
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
