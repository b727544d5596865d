package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const maxErrorBody = 4 << 10

// StatusError is returned for upstream responses outside the 2xx range.
type StatusError struct {
	Status int
	URL    string
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d", e.URL, e.Status)
}

// Client calls the AI and market-trend services with a per-host rate limit
// and retries on transport errors, 429 and 503.
type Client struct {
	client   *http.Client
	ua       string
	limit    rate.Limit
	burst    int
	attempts int
	backoff  time.Duration
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
}

type Option func(*Client)

// WithRateLimit sets the per-host request rate. Defaults to 5 req/s, burst 10.
func WithRateLimit(every time.Duration, burst int) Option {
	return func(c *Client) {
		c.limit = rate.Every(every)
		c.burst = burst
	}
}

// WithRetries sets the total number of attempts and the base backoff.
func WithRetries(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.backoff = backoff
	}
}

func NewClient(userAgent string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		client:   &http.Client{Timeout: timeout},
		ua:       userAgent,
		limit:    rate.Every(200 * time.Millisecond),
		burst:    10,
		attempts: 3,
		backoff:  500 * time.Millisecond,
		limiters: map[string]*rate.Limiter{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.attempts < 1 {
		c.attempts = 1
	}
	return c
}

func (c *Client) limiterFor(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.limiters[host]; ok {
		return l
	}
	l := rate.NewLimiter(c.limit, c.burst)
	c.limiters[host] = l
	return l
}

// Do executes the request respecting the host limiter. Non-2xx responses are
// returned as *StatusError with the body already drained and closed.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.ua)
	}

	limiter := c.limiterFor(req.URL.Host)

	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			backoff := c.backoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				req.Body = body
			}
		}

		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		statusErr := &StatusError{Status: resp.StatusCode, URL: req.URL.String()}
		statusErr.Body, _ = io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
			lastErr = statusErr
			continue
		}
		return nil, statusErr
	}

	if lastErr == nil {
		lastErr = errors.New("httpx: request failed without error")
	}
	return nil, lastErr
}
