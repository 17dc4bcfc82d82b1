package agent

import (
	"encoding/json"

	"github.com/seenimoa/newsimpact/internal/llm"
	"github.com/seenimoa/newsimpact/pkg/models"
)

// ── Prompt views ──
//
// Each model call sees a compact projection of the state, never the state
// itself.

const (
	sampleTitles    = 3
	exampleHeadline = 5
	snippetLimit    = 800
)

type plannerView struct {
	UserRequest          models.Request `json:"user_request"`
	HaveArticles         bool           `json:"have_articles"`
	ArticlesCount        int            `json:"articles_count"`
	ArticlesSampleTitles []string       `json:"articles_sample_titles"`
	HavePrices           bool           `json:"have_prices"`
	PricesPoints         int            `json:"prices_points"`
	HaveEventReturns     bool           `json:"have_event_returns"`
	EventReturnsCount    int            `json:"event_returns_count"`
}

func newPlannerView(s *State) plannerView {
	return plannerView{
		UserRequest:          s.Request,
		HaveArticles:         s.HasArticles(),
		ArticlesCount:        len(s.Articles),
		ArticlesSampleTitles: titles(s.Articles, sampleTitles),
		HavePrices:           s.HasPrices(),
		PricesPoints:         s.Prices.Len(),
		HaveEventReturns:     s.HasReturns(),
		EventReturnsCount:    len(s.EventReturns),
	}
}

type impactView struct {
	Ticker       string                   `json:"ticker"`
	CompanyName  string                   `json:"company_name"`
	Sentiments   []models.SentimentImpact `json:"sentiments"`
	EventReturns []models.EventReturn     `json:"event_returns"`
}

func newImpactView(s *State) impactView {
	return impactView{
		Ticker:       s.Request.Ticker,
		CompanyName:  s.Request.CompanyName,
		Sentiments:   nonNil(s.Sentiments),
		EventReturns: nonNil(s.EventReturns),
	}
}

type writerView struct {
	Ticker           string                `json:"ticker"`
	Company          string                `json:"company"`
	LookbackDays     int                   `json:"lookback_days"`
	EventWindowDays  int                   `json:"event_window_days"`
	ArticlesAnalyzed int                   `json:"articles_analyzed"`
	ImpactSummary    *models.ImpactSummary `json:"impact_summary"`
	EventReturns     []models.EventReturn  `json:"event_returns"`
	ExampleHeadlines []string              `json:"example_headlines"`
}

func newWriterView(s *State) writerView {
	return writerView{
		Ticker:           s.Request.Ticker,
		Company:          s.Request.CompanyName,
		LookbackDays:     s.Request.LookbackDays,
		EventWindowDays:  s.Request.EventWindowDays,
		ArticlesAnalyzed: len(s.Articles),
		ImpactSummary:    s.Impact,
		EventReturns:     nonNil(s.EventReturns),
		ExampleHeadlines: titles(s.Articles, exampleHeadline),
	}
}

// articleView is the single article handed to the sentiment annotator,
// with its snippet truncated.
func articleView(a models.Article) models.Article {
	a.Snippet = truncateSnippet(a.Snippet)
	return a
}

func truncateSnippet(s string) string {
	r := []rune(s)
	if len(r) <= snippetLimit {
		return s
	}
	return string(r[:snippetLimit]) + "..."
}

func titles(articles []models.Article, n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < len(articles) && i < n; i++ {
		out = append(out, articles[i].Title)
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func toJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// ── Planner tools ──

// plannerTools describes the gathering actions the planner may propose.
var plannerTools = []llm.Tool{
	{
		Name:        string(models.ToolSearchNews),
		Description: "Search recent news articles about the company.",
		Parameters: llm.ObjectSchema("News search window", map[string]*llm.JSONSchema{
			"query":          llm.StringProp("Search query, usually the company name"),
			"start_datetime": llm.TimestampProp("Window start, YYYYMMDDHHMMSS (UTC)"),
			"end_datetime":   llm.TimestampProp("Window end, YYYYMMDDHHMMSS (UTC)"),
			"max_records":    llm.IntProp("Maximum number of articles", 1),
		}, "query"),
	},
	{
		Name:        string(models.ToolFetchPrices),
		Description: "Download daily OHLC prices for the ticker.",
		Parameters: llm.ObjectSchema("Price history range", map[string]*llm.JSONSchema{
			"ticker":     llm.StringProp("Ticker symbol, e.g. AAPL.US"),
			"start_date": llm.DayProp("First day, YYYY-MM-DD"),
			"end_date":   llm.DayProp("Last day, YYYY-MM-DD"),
		}, "ticker"),
	},
	{
		Name:        string(models.ToolComputeReturns),
		Description: "Compute the price return around each article's publish date.",
		Parameters: llm.ObjectSchema("Event window", map[string]*llm.JSONSchema{
			"window_days": llm.IntProp("Calendar days before and after the event", 0),
		}),
	},
}
