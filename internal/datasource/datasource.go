// Package datasource provides the external collaborators of the pipeline:
// news search (GDELT DOC API, RSS search feeds) and daily price history
// (Stooq CSV, Yahoo Finance chart API).
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/seenimoa/newsimpact/internal/config"
	"github.com/seenimoa/newsimpact/internal/infra"
	"github.com/seenimoa/newsimpact/pkg/models"
)

// NewsQuery describes one news search.
type NewsQuery struct {
	Query      string
	Start      time.Time
	End        time.Time
	MaxRecords int
}

// NewsSearcher finds articles mentioning a query within a time range.
type NewsSearcher interface {
	SearchNews(ctx context.Context, q NewsQuery) ([]models.Article, error)
}

// PriceFetcher returns daily price history for a ticker.
type PriceFetcher interface {
	FetchPrices(ctx context.Context, ticker string, start, end time.Time) (*models.PriceSeries, error)
}

// --- Sentinel errors ---

// ErrNoData is returned when a provider answers successfully but has no
// data for the request.
var ErrNoData = errors.New("datasource: no data")

// ErrTickerNotFound is returned when a ticker cannot be resolved.
var ErrTickerNotFound = errors.New("datasource: ticker not found")

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// --- Shared HTTP transport ---

// DefaultUserAgent is the user agent string used for HTTP requests.
const DefaultUserAgent = "newsimpact/1.0"

// Transport performs throttled GET requests and owns the response cache
// shared by all sources.
type Transport struct {
	Client    *http.Client
	Cache     infra.Cache        // nil disables caching
	CacheTTL  time.Duration
	Limiter   *infra.RateLimiter // nil disables throttling
	UserAgent string
}

// NewTransport returns an uncached, unthrottled transport.
func NewTransport() *Transport {
	return &Transport{
		Client:    &http.Client{Timeout: 20 * time.Second},
		UserAgent: DefaultUserAgent,
	}
}

// NewTransportFromConfig builds a transport from the http and cache sections.
func NewTransportFromConfig(cfg *config.Config, cache infra.Cache) *Transport {
	return &Transport{
		Client:    &http.Client{Timeout: cfg.HTTP.Timeout},
		Cache:     cache,
		CacheTTL:  cfg.Cache.TTL,
		Limiter:   infra.NewRateLimiter(cfg.HTTP.RequestsPerSecond, 2),
		UserAgent: cfg.HTTP.UserAgent,
	}
}

// Get performs a GET request and returns the full body. Responses with a
// status of 300 or above are returned as *ErrHTTP.
func (t *Transport) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	if err := t.Limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", t.UserAgent)
	req.Header.Set("Accept", "application/json, text/csv, text/plain, */*")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// cached returns a previously stored body for key.
func (t *Transport) cached(ctx context.Context, key string) ([]byte, bool) {
	if t.Cache == nil {
		return nil, false
	}
	return t.Cache.Get(ctx, key)
}

// store caches a body that parsed successfully. Cache failures are ignored.
func (t *Transport) store(ctx context.Context, key string, body []byte) {
	if t.Cache == nil {
		return
	}
	_ = t.Cache.Set(ctx, key, body, t.CacheTTL)
}
