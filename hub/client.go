// Package hub provides an HTTP client for the remote credential repository
// with built-in retry logic, rate limiting, and error handling.
//
// The hub is a whole-object store: objects are keyed by file name within a
// repository identified by a type string and an ID. There is no partial
// update; Upload overwrites the prior version of an object.
package hub

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"ytautopub/retry"
)

// Client performs whole-object downloads and uploads against a hub
// repository. Safe for use from a single goroutine; the design assumes at
// most one credential flow in flight per repository.
type Client struct {
	base    *http.Client
	config  Config
	limiter *rate.Limiter
}

// Config holds hub client configuration.
type Config struct {
	// BaseURL is the hub endpoint, e.g. "https://huggingface.co"
	BaseURL string

	// RepoID identifies the repository, e.g. "someone/data"
	RepoID string

	// RepoType is the repository type string, e.g. "dataset"
	RepoType string

	// Token is the bearer token for authenticated access ("" = anonymous)
	Token string

	// Timeout for individual HTTP requests
	Timeout time.Duration

	// Retry configuration for transient failures
	Retry retry.Config

	// RequestsPerSecond throttles hub calls (0 = default)
	RequestsPerSecond float64
}

// DefaultConfig returns sensible defaults for hub access.
func DefaultConfig() Config {
	return Config{
		BaseURL:           "https://huggingface.co",
		RepoType:          "dataset",
		Timeout:           60 * time.Second,
		Retry:             retry.DefaultConfig(),
		RequestsPerSecond: 2.0,
	}
}

// New creates a hub client with the given configuration.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultConfig().RequestsPerSecond
	}

	return &Client{
		base:    &http.Client{Timeout: cfg.Timeout},
		config:  cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// objectURL returns the whole-object endpoint for the named file.
func (c *Client) objectURL(name string) string {
	return fmt.Sprintf("%s/%s/%s/%s",
		c.config.BaseURL, url.PathEscape(c.config.RepoType), c.config.RepoID, url.PathEscape(name))
}

// Download fetches the named object and returns its raw (encrypted) bytes.
// Returns ErrNotFound if the object does not exist in the repository.
func (c *Client) Download(ctx context.Context, name string) ([]byte, error) {
	var body []byte

	err := retry.Do(ctx, c.config.Retry, isRetryableHubError, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.objectURL(name), nil)
		if err != nil {
			return err
		}
		c.setAuth(req)

		resp, err := c.base.Do(req)
		if err != nil {
			return fmt.Errorf("hub request failed: %w", err)
		}
		defer resp.Body.Close()

		if err := checkStatus(resp); err != nil {
			return err
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read hub response: %w", err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return body, nil
}

// Upload stores data under the named object, overwriting any prior version.
func (c *Client) Upload(ctx context.Context, name string, data []byte) error {
	return retry.Do(ctx, c.config.Retry, isRetryableHubError, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.objectURL(name), bytes.NewReader(data))
		if err != nil {
			return err
		}
		c.setAuth(req)
		req.Header.Set("Content-Type", "application/octet-stream")

		resp, err := c.base.Do(req)
		if err != nil {
			return fmt.Errorf("hub request failed: %w", err)
		}
		defer resp.Body.Close()

		if err := checkStatus(resp); err != nil {
			return err
		}
		io.Copy(io.Discard, resp.Body)
		return nil
	})
}

// setAuth attaches the bearer token if one is configured.
func (c *Client) setAuth(req *http.Request) {
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}
}

// checkStatus maps a non-2xx response to a typed error.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}

	if resp.StatusCode == http.StatusTooManyRequests ||
		resp.StatusCode == http.StatusServiceUnavailable {
		return &RateLimitError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header),
		}
	}

	bodyBytes, _ := io.ReadAll(resp.Body)
	return &HTTPError{StatusCode: resp.StatusCode, Body: bodyBytes}
}

// isRetryableHubError determines if a hub error is retryable.
func isRetryableHubError(err error) bool {
	if !retry.IsRetryable(err) {
		return false
	}

	if err == ErrNotFound {
		return false
	}

	// Rate limit errors are retryable
	if _, ok := err.(*RateLimitError); ok {
		return true
	}

	// HTTP errors are retryable only for 5xx
	if httpErr, ok := err.(*HTTPError); ok {
		return httpErr.StatusCode >= 500
	}

	return true
}

// parseRetryAfter extracts the Retry-After header value.
// Returns the duration to wait, or 0 if not present.
func parseRetryAfter(header http.Header) time.Duration {
	retryAfter := header.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(retryAfter); err == nil {
		return time.Until(t)
	}

	return 0
}
