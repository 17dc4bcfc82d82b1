package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/seenimoa/newsimpact/internal/infra"
	"github.com/seenimoa/newsimpact/pkg/models"
	"github.com/seenimoa/newsimpact/pkg/utils"
)

// DefaultGDELTBase is the GDELT DOC 2.0 API endpoint.
const DefaultGDELTBase = "https://api.gdeltproject.org/api/v2/doc/doc"

// GDELT searches the GDELT DOC API article list.
type GDELT struct {
	base       string
	tr         *Transport
	retries    int
	retryDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// GDELTOption configures a GDELT client.
type GDELTOption func(*GDELT)

// WithGDELTRetries sets the attempt count and the base backoff delay.
func WithGDELTRetries(attempts int, delay time.Duration) GDELTOption {
	return func(g *GDELT) {
		if attempts > 0 {
			g.retries = attempts
		}
		if delay >= 0 {
			g.retryDelay = delay
		}
	}
}

// WithGDELTSleep replaces the backoff sleep, for tests.
func WithGDELTSleep(fn func(ctx context.Context, d time.Duration) error) GDELTOption {
	return func(g *GDELT) { g.sleep = fn }
}

// NewGDELT creates a GDELT client. An empty base selects DefaultGDELTBase.
func NewGDELT(base string, tr *Transport, opts ...GDELTOption) *GDELT {
	if base == "" {
		base = DefaultGDELTBase
	}
	if tr == nil {
		tr = NewTransport()
	}
	g := &GDELT{
		base:       base,
		tr:         tr,
		retries:    3,
		retryDelay: 500 * time.Millisecond,
		sleep:      infra.Sleep,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns the data source name.
func (g *GDELT) Name() string { return "GDELT" }

// --- GDELT DOC API types ---

type gdeltResponse struct {
	Articles []gdeltArticle `json:"articles"`
}

type gdeltArticle struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	SeenDate      string `json:"seendate"`
	Domain        string `json:"domain"`
	Language      string `json:"language"`
	SourceCountry string `json:"sourcecountry"`
	Snippet       string `json:"snippet"`
}

// SearchNews runs the article-list query, retrying failed attempts with
// exponential backoff. The last error is returned when every attempt fails.
func (g *GDELT) SearchNews(ctx context.Context, q NewsQuery) ([]models.Article, error) {
	u := g.buildURL(q)

	var lastErr error
	for i := 0; i < g.retries; i++ {
		articles, err := g.search(ctx, u)
		if err == nil {
			return articles, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		log.Warn().Str("query", q.Query).Int("attempt", i+1).Err(err).Msg("gdelt search failed")
		if i < g.retries-1 {
			if err := g.sleep(ctx, infra.Backoff(g.retryDelay, i)); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("gdelt search %q: %w", q.Query, lastErr)
}

func (g *GDELT) buildURL(q NewsQuery) string {
	params := url.Values{}
	params.Set("query", q.Query)
	params.Set("mode", "ArtList")
	params.Set("format", "json")
	params.Set("startdatetime", utils.FormatGDELT(q.Start))
	params.Set("enddatetime", utils.FormatGDELT(q.End))
	params.Set("maxrecords", strconv.Itoa(q.MaxRecords))
	params.Set("sort", "HybridRel")
	return g.base + "?" + params.Encode()
}

func (g *GDELT) search(ctx context.Context, u string) ([]models.Article, error) {
	body, hit := g.tr.cached(ctx, u)
	if !hit {
		var err error
		body, err = g.tr.Get(ctx, u, map[string]string{"Accept": "application/json"})
		if err != nil {
			return nil, err
		}
	}

	articles, err := parseGDELT(body)
	if err != nil {
		return nil, err
	}
	if !hit {
		g.tr.store(ctx, u, body)
	}
	return articles, nil
}

// parseGDELT decodes an ArtList response. GDELT reports query errors as a
// plain-text body with status 200, so anything that is not JSON is an error.
func parseGDELT(body []byte) ([]models.Article, error) {
	var resp gdeltResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse gdelt response: %w (body: %q)", err, truncate(string(body), 200))
	}

	articles := make([]models.Article, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		articles = append(articles, models.Article{
			Title:         cleanHTML(a.Title),
			URL:           a.URL,
			PublishedAt:   normalizeSeenDate(a.SeenDate),
			SourceCountry: a.SourceCountry,
			Language:      a.Language,
			Domain:        a.Domain,
			Snippet:       cleanHTML(a.Snippet),
		})
	}
	return articles, nil
}

// normalizeSeenDate reduces a GDELT seendate to "2006-01-02". Values that do
// not parse are kept raw (first 10 characters) so the event calculator can
// skip them later.
func normalizeSeenDate(s string) string {
	s = strings.TrimSpace(s)
	if t, err := utils.ParseDay(s); err == nil {
		return utils.FormatDay(t)
	}
	return truncate(s, 10)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
