// Package mealdb is a small client for the themealdb.com JSON API. Every
// request goes through a circuit breaker and a retry loop; the raw JSON body
// is returned untouched.
package mealdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Keksclan/mealsquirrel/breaker"
	"github.com/Keksclan/mealsquirrel/internal/logging"
	"github.com/Keksclan/mealsquirrel/internal/metrics"
	"github.com/Keksclan/mealsquirrel/retry"
	"github.com/Keksclan/mealsquirrel/tracing"
)

// DefaultBaseURL is the public v1 API with the shared test key.
const DefaultBaseURL = "https://www.themealdb.com/api/json/v1/1"

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
	userAgent      = "mealsquirrel/1"
)

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("mealdb: %s: unexpected status %d", e.Endpoint, e.Code)
}

// Retryable reports whether err is worth another attempt: transport
// failures (including a per-attempt timeout), 429 and 5xx. Cancellation and
// an open breaker are not. The same errors count as failures for the breaker.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, breaker.ErrOpen) || errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return true
}

// Config configures a Client. Zero fields take the defaults noted on each.
type Config struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// Timeout bounds each attempt. Defaults to 10s.
	Timeout time.Duration
	// Retry defaults to three attempts with jittered exponential back-off.
	// A nil Retry.Retryable uses [Retryable].
	Retry retry.Config
	// Breaker defaults to tripping after five consecutive failures and
	// probing again after 30s.
	Breaker breaker.Config

	// Transport is the base round tripper, http.DefaultTransport if nil.
	Transport http.RoundTripper
	Tracing   *tracing.Config
	Metrics   *metrics.Metrics
}

// Client fetches raw JSON documents from the recipe API.
type Client struct {
	base    *url.URL
	hc      *http.Client
	retry   retry.Config
	br      *breaker.Breaker
	metrics *metrics.Metrics
}

// New validates cfg and builds a Client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("mealdb: base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("mealdb: base url %q is not absolute", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 3
		cfg.Retry.BaseDelay = 200 * time.Millisecond
		cfg.Retry.MaxDelay = 2 * time.Second
		cfg.Retry.Jitter = 0.2
	}
	if cfg.Retry.Retryable == nil {
		cfg.Retry.Retryable = Retryable
	}

	if cfg.Breaker.FailureThreshold == 0 && cfg.Breaker.OpenTimeout == 0 {
		cfg.Breaker.FailureThreshold = 5
		cfg.Breaker.OpenTimeout = 30 * time.Second
	}
	hook := cfg.Breaker.OnStateChange
	m := cfg.Metrics
	cfg.Breaker.OnStateChange = func(from, to breaker.State) {
		logging.Op().Warn("mealdb circuit breaker changed state", "from", from, "to", to)
		m.BreakerTransition("mealdb", from, to)
		if hook != nil {
			hook(from, to)
		}
	}

	return &Client{
		base: base,
		hc: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: tracing.Transport(cfg.Tracing, cfg.Transport),
		},
		retry:   cfg.Retry,
		br:      breaker.New(cfg.Breaker),
		metrics: m,
	}, nil
}

// Breaker exposes the client's circuit breaker, mainly for health reporting.
func (c *Client) Breaker() *breaker.Breaker {
	return c.br
}

// Fetch GETs path (e.g. "/search.php") under the base URL with query and
// returns the body of a 2xx response. Non-2xx answers yield a *StatusError;
// an open breaker yields breaker.ErrOpen.
func (c *Client) Fetch(ctx context.Context, path string, query url.Values) ([]byte, error) {
	start := time.Now()
	body, err := retry.Do(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		var body []byte
		var passErr error
		err := c.br.Execute(func() error {
			var err error
			body, err = c.get(ctx, path, query)
			// A plain 4xx or a cancelled caller is not an upstream outage.
			if err != nil && !Retryable(err) {
				passErr = err
				return nil
			}
			return err
		})
		if err == nil {
			err = passErr
		}
		return body, err
	})

	outcome := "ok"
	switch {
	case errors.Is(err, breaker.ErrOpen):
		outcome = "rejected"
	case err != nil:
		outcome = "error"
	}
	c.metrics.ObserveUpstream(path, outcome, time.Since(start))

	return body, err
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := *c.base
	u.Path = strings.TrimSuffix(c.base.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("mealdb: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mealdb: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &StatusError{Endpoint: path, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("mealdb: %s: read body: %w", path, err)
	}
	return body, nil
}
