// Package openlibrary implements the OpenLibrary catalog client and the
// edition resolver: work search, paginated edition listing with language
// and date policies, and best-effort detail lookups.
package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"booktracker/internal/ratelimit"
)

const (
	defaultBaseURL      = "https://openlibrary.org"
	defaultCoverBaseURL = "https://covers.openlibrary.org/b"

	// editionsPageSize is the maximum page size the editions endpoint accepts.
	editionsPageSize = 1000

	requestTimeout = 12 * time.Second
)

// Client queries the OpenLibrary HTTP API and normalizes raw responses
// into typed records. All operations degrade softly: transport and
// response-shape failures yield empty results, never panics or raised errors.
type Client struct {
	baseURL      string
	coverBaseURL string
	httpc        *http.Client
	limiter      *ratelimit.Limiter
	useCache     bool
}

// Options configures a Client. Zero-value fields fall back to production
// defaults, which keeps test construction short.
type Options struct {
	BaseURL      string
	CoverBaseURL string
	HTTPClient   *http.Client
	// PageDelay overrides the politeness rate between edition pages,
	// expressed in requests per second.
	PageRate float64
	// DisableCache bypasses the SQLite API cache for detail lookups.
	DisableCache bool
}

// New creates a catalog client.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.CoverBaseURL == "" {
		opts.CoverBaseURL = defaultCoverBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: requestTimeout}
	}
	if opts.PageRate == 0 {
		// ~0.3s between edition pages
		opts.PageRate = 3
	}
	return &Client{
		baseURL:      opts.BaseURL,
		coverBaseURL: opts.CoverBaseURL,
		httpc:        opts.HTTPClient,
		limiter:      ratelimit.New("OpenLibrary", opts.PageRate),
		useCache:     !opts.DisableCache,
	}
}

// getJSON fetches url and decodes the body into out. Non-2xx statuses are
// reported as errors so callers can treat them as soft failures.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("OpenLibrary request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("OpenLibrary request returned status: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode OpenLibrary response: %w", err)
	}
	return nil
}
