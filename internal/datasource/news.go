package datasource

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/newsimpact/pkg/models"
	"github.com/seenimoa/newsimpact/pkg/utils"
)

// DefaultRSSURL is a Google News search feed; "{query}" is replaced with
// the escaped search terms.
const DefaultRSSURL = "https://news.google.com/rss/search?q={query}&hl=en-US&gl=US&ceid=US:en"

// RSSNews searches news through an RSS search feed.
type RSSNews struct {
	urlTemplate string
	tr          *Transport
	parser      *gofeed.Parser
}

// NewRSSNews creates an RSS news source. An empty template selects
// DefaultRSSURL.
func NewRSSNews(urlTemplate string, tr *Transport) *RSSNews {
	if urlTemplate == "" {
		urlTemplate = DefaultRSSURL
	}
	if tr == nil {
		tr = NewTransport()
	}
	return &RSSNews{
		urlTemplate: urlTemplate,
		tr:          tr,
		parser:      gofeed.NewParser(),
	}
}

// Name returns the data source name.
func (n *RSSNews) Name() string { return "RSS" }

// SearchNews fetches the feed for q.Query and keeps items published within
// [q.Start, q.End], up to q.MaxRecords. Items without a publish date are
// kept with an empty date.
func (n *RSSNews) SearchNews(ctx context.Context, q NewsQuery) ([]models.Article, error) {
	u := strings.ReplaceAll(n.urlTemplate, "{query}", url.QueryEscape(q.Query))

	body, hit := n.tr.cached(ctx, u)
	if !hit {
		var err error
		body, err = n.tr.Get(ctx, u, map[string]string{"Accept": "application/rss+xml, application/xml, text/xml"})
		if err != nil {
			return nil, fmt.Errorf("rss search %q: %w", q.Query, err)
		}
	}

	feed, err := n.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse RSS: %w", err)
	}
	if !hit {
		n.tr.store(ctx, u, body)
	}

	articles := make([]models.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if q.MaxRecords > 0 && len(articles) >= q.MaxRecords {
			break
		}
		var published string
		if item.PublishedParsed != nil {
			if !inRange(*item.PublishedParsed, q.Start, q.End) {
				continue
			}
			published = utils.FormatDay(*item.PublishedParsed)
		}
		articles = append(articles, models.Article{
			Title:       strings.TrimSpace(item.Title),
			URL:         item.Link,
			PublishedAt: published,
			Language:    feed.Language,
			Domain:      hostOf(item.Link),
			Snippet:     cleanHTML(item.Description),
		})
	}
	return articles, nil
}

func inRange(t, start, end time.Time) bool {
	if !start.IsZero() && t.Before(start) {
		return false
	}
	if !end.IsZero() && t.After(end) {
		return false
	}
	return true
}

func hostOf(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" || !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
