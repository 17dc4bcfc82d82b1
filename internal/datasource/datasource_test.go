package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/newsimpact/internal/config"
	"github.com/seenimoa/newsimpact/internal/infra"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// ════════════════════════════════════════════════════════════════════
// GDELT
// ════════════════════════════════════════════════════════════════════

const gdeltBody = `{"articles":[
 {"url":"https://a.example/1","title":"Amazon &amp; <b>AWS</b> beat estimates","seendate":"20240102T103000Z","domain":"a.example","language":"English","sourcecountry":"United States"},
 {"url":"https://b.example/2","title":"Amazon faces probe","seendate":"20240103","domain":"b.example","language":"English","sourcecountry":"United Kingdom"},
 {"url":"https://c.example/3","title":"Odd date","seendate":"last tuesday afternoon"}
]}`

func TestGDELTSearchNews(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{}
		for k := range q {
			gotQuery[k] = q.Get(k)
		}
		w.Write([]byte(gdeltBody))
	}))
	defer srv.Close()

	g := NewGDELT(srv.URL, nil)
	arts, err := g.SearchNews(context.Background(), NewsQuery{
		Query:      "Amazon",
		Start:      time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC),
		End:        time.Date(2024, 1, 4, 9, 30, 0, 0, time.UTC),
		MaxRecords: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"query":         "Amazon",
		"mode":          "ArtList",
		"format":        "json",
		"startdatetime": "20240101093000",
		"enddatetime":   "20240104093000",
		"maxrecords":    "3",
		"sort":          "HybridRel",
	}, gotQuery)

	require.Len(t, arts, 3)
	assert.Equal(t, "Amazon & AWS beat estimates", arts[0].Title)
	assert.Equal(t, "2024-01-02", arts[0].PublishedAt)
	assert.Equal(t, "United States", arts[0].SourceCountry)
	assert.Equal(t, "2024-01-03", arts[1].PublishedAt)
	assert.Equal(t, "last tuesd", arts[2].PublishedAt, "unparseable dates are kept raw")
}

func TestGDELTEmptyObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	arts, err := NewGDELT(srv.URL, nil).SearchNews(context.Background(), NewsQuery{Query: "x", MaxRecords: 1})
	require.NoError(t, err)
	assert.Empty(t, arts)
}

func TestGDELTRetriesThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		switch n {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			w.Write([]byte("Your search contained a phrase that was too short."))
		default:
			w.Write([]byte(gdeltBody))
		}
	}))
	defer srv.Close()

	var delays []time.Duration
	g := NewGDELT(srv.URL, nil,
		WithGDELTRetries(3, 500*time.Millisecond),
		WithGDELTSleep(func(ctx context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		}),
	)

	arts, err := g.SearchNews(context.Background(), NewsQuery{Query: "Amazon", MaxRecords: 3})
	require.NoError(t, err)
	assert.Len(t, arts, 3)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, delays)
}

func TestGDELTRetriesExhausted(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	var slept int
	g := NewGDELT(srv.URL, nil,
		WithGDELTRetries(3, time.Millisecond),
		WithGDELTSleep(func(ctx context.Context, d time.Duration) error { slept++; return nil }),
	)

	_, err := g.SearchNews(context.Background(), NewsQuery{Query: "Amazon", MaxRecords: 3})
	require.Error(t, err)
	var httpErr *ErrHTTP
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	assert.Equal(t, 2, slept, "no sleep after the last attempt")
}

func TestGDELTUsesCache(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(gdeltBody))
	}))
	defer srv.Close()

	tr := NewTransport()
	tr.Cache = infra.NewMemoryCache()
	tr.CacheTTL = time.Minute
	g := NewGDELT(srv.URL, tr)

	q := NewsQuery{Query: "Amazon", Start: day("2024-01-01"), End: day("2024-01-04"), MaxRecords: 3}
	for i := 0; i < 2; i++ {
		arts, err := g.SearchNews(context.Background(), q)
		require.NoError(t, err)
		assert.Len(t, arts, 3)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestNormalizeSeenDate(t *testing.T) {
	tests := map[string]string{
		"20240102T103000Z":     "2024-01-02",
		"20240102103000":       "2024-01-02",
		"20240102":             "2024-01-02",
		"2024-01-02T10:30:00Z": "2024-01-02",
		"  2024-01-02 ":        "2024-01-02",
		"":                     "",
		"garbage":              "garbage",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeSeenDate(in), "input %q", in)
	}
}

// ════════════════════════════════════════════════════════════════════
// Stooq
// ════════════════════════════════════════════════════════════════════

const stooqCSV = `Date,Open,High,Low,Close,Volume
2023-12-29,150.0,152.0,149.0,151.0,1000
2024-01-02,151.0,153.0,150.0,152.5,2000
2024-01-03,152.5,155.0,152.0,154.0,
2024-01-04,154.0,156.0,153.0,155.5,3000
2024-01-10,160.0,161.0,159.0,160.5,4000
`

func TestStooqFetchPrices(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		got = map[string]string{"s": q.Get("s"), "i": q.Get("i"), "d1": q.Get("d1"), "d2": q.Get("d2")}
		w.Write([]byte(stooqCSV))
	}))
	defer srv.Close()

	series, err := NewStooq(srv.URL, nil).FetchPrices(context.Background(), "AMZN.US", day("2024-01-01"), day("2024-01-05"))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"s": "amzn.us", "i": "d", "d1": "20240101", "d2": "20240105"}, got)
	assert.Equal(t, "AMZN.US", series.Ticker)
	require.Equal(t, 3, series.Len())
	assert.Equal(t, "2024-01-02", series.Points[0].Date)
	assert.Equal(t, 152.5, series.Points[0].Close)
	require.NotNil(t, series.Points[0].Volume)
	assert.Equal(t, 2000.0, *series.Points[0].Volume)
	assert.Nil(t, series.Points[1].Volume, "blank volume stays absent")
	assert.Equal(t, "2024-01-04", series.Points[2].Date)
}

func TestStooqNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("No data"))
	}))
	defer srv.Close()

	_, err := NewStooq(srv.URL, nil).FetchPrices(context.Background(), "ZZZZ.US", day("2024-01-01"), day("2024-01-05"))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestStooqHTTPErrorSingleAttempt(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewStooq(srv.URL, nil).FetchPrices(context.Background(), "AMZN.US", day("2024-01-01"), day("2024-01-05"))
	var httpErr *ErrHTTP
	require.True(t, errors.As(err, &httpErr))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestParseStooqCSVErrors(t *testing.T) {
	_, err := parseStooqCSV([]byte("Date,Open\n2024-01-02,1\n"), "2024-01-01", "2024-12-31")
	assert.ErrorContains(t, err, "missing")

	_, err = parseStooqCSV([]byte("Date,Open,High,Low,Close\n2024-01-02,1,2,x,4\n"), "2024-01-01", "2024-12-31")
	assert.ErrorContains(t, err, "low")

	points, err := parseStooqCSV([]byte("Date,Open,High,Low,Close\n2024-01-02,1,2,0.5,1.5\n"), "2024-01-01", "2024-12-31")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Nil(t, points[0].Volume)
}

// ════════════════════════════════════════════════════════════════════
// RSS
// ════════════════════════════════════════════════════════════════════

const rssBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Amazon - Google News</title><language>en-US</language>
<item><title>Amazon opens new warehouse</title><link>https://www.news.example/a</link>
<pubDate>Tue, 02 Jan 2024 10:00:00 GMT</pubDate><description>&lt;a href="x"&gt;Amazon opens&lt;/a&gt; new site</description></item>
<item><title>Old story</title><link>https://old.example/b</link>
<pubDate>Mon, 01 Jan 2018 10:00:00 GMT</pubDate></item>
<item><title>Amazon layoffs</title><link>https://news.example/c</link>
<pubDate>Wed, 03 Jan 2024 10:00:00 GMT</pubDate></item>
</channel></rss>`

func TestRSSNewsSearch(t *testing.T) {
	var gotQ string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQ = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssBody))
	}))
	defer srv.Close()

	n := NewRSSNews(srv.URL+"/rss?q={query}", nil)
	arts, err := n.SearchNews(context.Background(), NewsQuery{
		Query: "Amazon Inc", Start: day("2024-01-01"), End: day("2024-01-05"), MaxRecords: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "Amazon Inc", gotQ)

	require.Len(t, arts, 2)
	assert.Equal(t, "Amazon opens new warehouse", arts[0].Title)
	assert.Equal(t, "2024-01-02", arts[0].PublishedAt)
	assert.Equal(t, "news.example", arts[0].Domain)
	assert.Equal(t, "Amazon opens new site", arts[0].Snippet)
	assert.Equal(t, "https://news.example/c", arts[1].URL)

	arts, err = n.SearchNews(context.Background(), NewsQuery{Query: "Amazon", Start: day("2024-01-01"), End: day("2024-01-05"), MaxRecords: 1})
	require.NoError(t, err)
	assert.Len(t, arts, 1)
}

// ════════════════════════════════════════════════════════════════════
// Yahoo Finance
// ════════════════════════════════════════════════════════════════════

func TestYFinanceFetchPrices(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		// 2024-01-02 14:30 UTC and 2024-01-03 14:30 UTC, New York offset
		w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"AMZN","gmtoffset":-18000},
			"timestamp":[1704205800,1704292200,1704378600],
			"indicators":{"quote":[{"open":[150,151,null],"high":[152,153,null],"low":[149,150,null],
			"close":[151.5,152.5,null],"volume":[1000,2000,null]}]}}],"error":null}}`))
	}))
	defer srv.Close()

	series, err := NewYFinance(srv.URL, nil).FetchPrices(context.Background(), "AMZN.US", day("2024-01-01"), day("2024-01-05"))
	require.NoError(t, err)
	assert.Equal(t, "/v8/finance/chart/AMZN", gotPath)
	require.Equal(t, 2, series.Len())
	assert.Equal(t, "2024-01-02", series.Points[0].Date)
	assert.Equal(t, 152.5, series.Points[1].Close)
}

func TestYFinanceCachesParsedBars(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"AMZN","gmtoffset":0},
			"timestamp":[1704205800],
			"indicators":{"quote":[{"open":[150],"high":[152],"low":[149],"close":[151.5],"volume":[1000]}]}}],"error":null}}`))
	}))
	defer srv.Close()

	tr := NewTransport()
	tr.Cache = infra.NewMemoryCache()
	tr.CacheTTL = time.Minute
	y := NewYFinance(srv.URL, tr)

	for i := 0; i < 2; i++ {
		series, err := y.FetchPrices(context.Background(), "AMZN.US", day("2024-01-01"), day("2024-01-05"))
		require.NoError(t, err)
		require.Equal(t, 1, series.Len())
		assert.Equal(t, 151.5, series.Points[0].Close)
		assert.Equal(t, "AMZN.US", series.Ticker)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestYFinanceChartError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	_, err := NewYFinance(srv.URL, nil).FetchPrices(context.Background(), "NOPE.US", day("2024-01-01"), day("2024-01-05"))
	assert.ErrorContains(t, err, "delisted")
}

// ════════════════════════════════════════════════════════════════════
// Factory
// ════════════════════════════════════════════════════════════════════

func TestSourceFactory(t *testing.T) {
	cfg := config.Default()
	tr := NewTransportFromConfig(cfg, infra.NewMemoryCache())

	news, err := NewNewsSearcher(cfg, tr)
	require.NoError(t, err)
	assert.IsType(t, &GDELT{}, news)

	cfg.News.Provider = "rss"
	news, err = NewNewsSearcher(cfg, tr)
	require.NoError(t, err)
	assert.IsType(t, &RSSNews{}, news)

	prices, err := NewPriceFetcher(cfg, tr)
	require.NoError(t, err)
	assert.IsType(t, &Stooq{}, prices)

	cfg.Prices.Provider = "yahoo"
	prices, err = NewPriceFetcher(cfg, tr)
	require.NoError(t, err)
	assert.IsType(t, &YFinance{}, prices)

	cfg.Prices.Provider = "bloomberg"
	_, err = NewPriceFetcher(cfg, tr)
	assert.Error(t, err)
}
