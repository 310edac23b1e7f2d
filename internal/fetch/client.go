package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/rs/zerolog"
)

// Default configuration values.
const (
	DefaultTimeout       = 15 * time.Second
	DefaultCacheTTL      = 30 * time.Second
	DefaultMaxConcurrent = 8
	DefaultMaxRetries    = 2
	DefaultRetryDelay    = 500 * time.Millisecond
	DefaultMaxDelay      = 8 * time.Second
	DefaultBackoffMult   = 2.0
)

// ErrProviderUnavailable is returned after all retry attempts are exhausted
// against a provider that kept failing with retryable errors.
var ErrProviderUnavailable = errors.New("provider unavailable")

// Doer abstracts *http.Client for tests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options controls a single Fetch call.
type Options struct {
	// BypassCache forces a live request even when a fresh cache entry exists.
	// The response still refreshes the cache on success.
	BypassCache bool
	// Header is merged into the outgoing request.
	Header http.Header
}

type cacheEntry struct {
	payload   []byte
	expiresAt time.Time
}

// Client is a rate-limited, TTL-cached HTTP fetch client shared by all
// provider adapters. Concurrency is bounded per provider name so one noisy
// provider cannot starve another.
type Client struct {
	httpClient    Doer
	cache         *xsync.Map[string, cacheEntry]
	semaphores    *xsync.Map[string, chan struct{}]
	cacheTTL      time.Duration
	maxConcurrent int
	maxRetries    int
	retryDelay    time.Duration
	maxDelay      time.Duration
	backoffMult   float64
	logger        zerolog.Logger
	now           func() time.Time
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(d Doer) ClientOption {
	return func(c *Client) {
		c.httpClient = d
	}
}

// WithCacheTTL sets how long successful responses stay fresh.
func WithCacheTTL(ttl time.Duration) ClientOption {
	return func(c *Client) {
		c.cacheTTL = ttl
	}
}

// WithMaxConcurrent sets the per-provider concurrency bound.
func WithMaxConcurrent(n int) ClientOption {
	return func(c *Client) {
		c.maxConcurrent = n
	}
}

// WithMaxRetries sets the number of retry attempts after the initial request.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets the initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets the retry delay ceiling.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxDelay = d
	}
}

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithClock overrides the time source. Used by tests to control TTL expiry.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a fetch client with defaults matching external market-data
// provider rate limits.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:    &http.Client{Timeout: DefaultTimeout},
		cache:         xsync.NewMap[string, cacheEntry](),
		semaphores:    xsync.NewMap[string, chan struct{}](),
		cacheTTL:      DefaultCacheTTL,
		maxConcurrent: DefaultMaxConcurrent,
		maxRetries:    DefaultMaxRetries,
		retryDelay:    DefaultRetryDelay,
		maxDelay:      DefaultMaxDelay,
		backoffMult:   DefaultBackoffMult,
		logger:        zerolog.Nop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch performs a GET against rawURL with params appended as the query
// string. Responses are cached per provider+URL+params for the configured TTL.
// The second return value reports whether the payload came from the cache.
func (c *Client) Fetch(ctx context.Context, provider, rawURL string, params map[string]string, opts Options) ([]byte, bool, error) {
	key := cacheKey(provider, rawURL, params)

	if !opts.BypassCache {
		if entry, ok := c.cache.Load(key); ok && c.now().Before(entry.expiresAt) {
			return entry.payload, true, nil
		}
	}

	payload, err := c.doWithRetry(ctx, provider, rawURL, params, opts.Header)
	if err != nil {
		// Stale entries survive failures so callers can decide whether
		// to fall back to them.
		return nil, false, err
	}

	c.cache.Store(key, cacheEntry{payload: payload, expiresAt: c.now().Add(c.cacheTTL)})
	return payload, false, nil
}

func (c *Client) doWithRetry(ctx context.Context, provider, rawURL string, params map[string]string, header http.Header) ([]byte, error) {
	reqURL, err := buildURL(rawURL, params)
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(withJitter(delay)):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		payload, retryable, err := c.doOnce(ctx, provider, reqURL, header)
		if err == nil {
			return payload, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
		c.logger.Warn().
			Str("provider", provider).
			Str("url", rawURL).
			Int("attempt", attempt+1).
			Err(err).
			Msg("fetch attempt failed")
	}

	return nil, fmt.Errorf("%w: %s: %v", ErrProviderUnavailable, provider, lastErr)
}

// doOnce performs a single request under the provider's semaphore.
// The second return value reports whether the failure is retryable.
func (c *Client) doOnce(ctx context.Context, provider, reqURL string, header http.Header) ([]byte, bool, error) {
	sem := c.semaphore(provider)
	select {
	case sem <- struct{}{}:
		defer func() { <-sem }()
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, false, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, fmt.Errorf("rate limited (429)")
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error %d", resp.StatusCode)
	default:
		// Remaining 4xx statuses mean the request itself is wrong.
		return nil, false, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}
}

func (c *Client) semaphore(provider string) chan struct{} {
	sem, _ := c.semaphores.LoadOrCompute(provider, func() (chan struct{}, bool) {
		return make(chan struct{}, c.maxConcurrent), false
	})
	return sem
}

// cacheKey builds a deterministic key from provider, URL and sorted params.
func cacheKey(provider, rawURL string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(provider)
	sb.WriteByte('|')
	sb.WriteString(rawURL)
	for _, k := range keys {
		sb.WriteByte('|')
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(params[k])
	}
	return sb.String()
}

func buildURL(rawURL string, params map[string]string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// withJitter adds up to 25% random jitter to spread retries from
// concurrent token units.
func withJitter(d time.Duration) time.Duration {
	return d + time.Duration(rand.Int63n(int64(d)/4+1))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
