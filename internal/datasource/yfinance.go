package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/seenimoa/newsimpact/internal/infra"
	"github.com/seenimoa/newsimpact/pkg/models"
	"github.com/seenimoa/newsimpact/pkg/utils"
)

// DefaultYahooBase is the Yahoo Finance query host.
const DefaultYahooBase = "https://query1.finance.yahoo.com"

// YFinance fetches daily history from the Yahoo Finance chart API.
type YFinance struct {
	base string
	tr   *Transport
}

// NewYFinance creates a Yahoo Finance price source. An empty base selects
// DefaultYahooBase.
func NewYFinance(base string, tr *Transport) *YFinance {
	if base == "" {
		base = DefaultYahooBase
	}
	if tr == nil {
		tr = NewTransport()
	}
	return &YFinance{base: strings.TrimRight(base, "/"), tr: tr}
}

// Name returns the data source name.
func (y *YFinance) Name() string { return "Yahoo Finance" }

// --- Yahoo Finance v8 API types ---

type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"chart"`
}

type yfChartResult struct {
	Meta       yfChartMeta  `json:"meta"`
	Timestamp  []int64      `json:"timestamp"`
	Indicators yfIndicators `json:"indicators"`
}

type yfChartMeta struct {
	Symbol    string `json:"symbol"`
	Currency  string `json:"currency"`
	GMTOffset int64  `json:"gmtoffset"`
}

type yfIndicators struct {
	Quote []yfOHLCV `json:"quote"`
}

type yfOHLCV struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// FetchPrices returns daily bars for ticker between start and end
// (inclusive). The Stooq-style ticker is mapped to a Yahoo symbol.
func (y *YFinance) FetchPrices(ctx context.Context, ticker string, start, end time.Time) (*models.PriceSeries, error) {
	symbol := utils.ToYahooSymbol(ticker)

	params := url.Values{}
	params.Set("period1", strconv.FormatInt(utils.TruncateDay(start).Unix(), 10))
	params.Set("period2", strconv.FormatInt(utils.TruncateDay(end).AddDate(0, 0, 1).Unix(), 10))
	params.Set("interval", "1d")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.base, url.PathEscape(symbol), params.Encode())

	// Chart responses are large; the parsed bars are cached instead.
	key := "yfinance:" + u
	var points []models.PricePoint
	if y.tr.Cache != nil && infra.GetJSON(ctx, y.tr.Cache, key, &points) && len(points) > 0 {
		return models.NewPriceSeries(ticker, points), nil
	}

	body, err := y.tr.Get(ctx, u, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, fmt.Errorf("yfinance chart %s: %w", symbol, err)
	}

	var resp yfChartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse yfinance chart: %w", err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yfinance chart error: %s", resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, ticker)
	}

	points = parseYFBars(resp.Chart.Result[0])
	if len(points) == 0 {
		return nil, fmt.Errorf("yfinance %s: %w", symbol, ErrNoData)
	}
	if y.tr.Cache != nil {
		_ = infra.SetJSON(ctx, y.tr.Cache, key, points, y.tr.CacheTTL)
	}
	return models.NewPriceSeries(ticker, points), nil
}

// parseYFBars converts chart arrays to price points, dating each bar in the
// exchange's local calendar. Bars without a close are dropped.
func parseYFBars(result yfChartResult) []models.PricePoint {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}
	q := result.Indicators.Quote[0]

	points := make([]models.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		p := models.PricePoint{
			Date:  utils.FormatDay(time.Unix(ts+result.Meta.GMTOffset, 0)),
			Close: *q.Close[i],
		}
		if i < len(q.Open) && q.Open[i] != nil {
			p.Open = *q.Open[i]
		}
		if i < len(q.High) && q.High[i] != nil {
			p.High = *q.High[i]
		}
		if i < len(q.Low) && q.Low[i] != nil {
			p.Low = *q.Low[i]
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			v := *q.Volume[i]
			p.Volume = &v
		}
		points = append(points, p)
	}
	return points
}
