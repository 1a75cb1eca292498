// Package fetcher retrieves the raw HTML of the scale monitoring page.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pallagj/behave-backend/pkg/logging"
	"github.com/pallagj/behave-backend/pkg/metrics"
)

const (
	requestTimeout = 10 * time.Second
	// snippetLimit bounds how much of an error body is carried into
	// FetchError; monitoring pages can be large.
	snippetLimit = 200
)

// Client fetches the monitoring page over HTTP. Each sync run performs
// exactly one fetch; failed fetches are not retried.
type Client struct {
	httpClient *http.Client
	url        string
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
}

// NewClient creates a page fetch client for the given source URL.
func NewClient(sourceURL string, logger *logging.StructuredLogger, collector *metrics.Collector) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		url:        sourceURL,
		logger:     logger,
		metrics:    collector,
	}
}

// FetchError reports a non-success HTTP status from the source page.
type FetchError struct {
	URL        string
	StatusCode int
	Snippet    string
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d: %s", e.URL, e.StatusCode, e.Snippet)
}

// IsTransient indicates if the error might resolve on a later run
func (e *FetchError) IsTransient() bool {
	return e.StatusCode >= 500
}

// FetchPage performs a single GET against the source URL and returns the
// response body as a string. Any status outside 2xx is an error.
func (c *Client) FetchPage(ctx context.Context) (string, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build page request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordFetchError("transport")
		return "", fmt.Errorf("failed to fetch monitoring page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordFetchError("body_read")
		return "", fmt.Errorf("failed to read monitoring page body: %w", err)
	}

	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.RecordFetchError("http_status")
		return "", &FetchError{
			URL:        c.url,
			StatusCode: resp.StatusCode,
			Snippet:    snippet(body),
		}
	}

	c.logger.Debug(ctx, "[FETCH_OK] Monitoring page fetched", logging.Fields{
		"url":         c.url,
		"status":      resp.StatusCode,
		"bytes":       len(body),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return string(body), nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > snippetLimit {
		s = s[:snippetLimit]
	}
	return s
}
