package datasource

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/seenimoa/newsimpact/pkg/models"
	"github.com/seenimoa/newsimpact/pkg/utils"
)

// DefaultStooqBase is the Stooq CSV download endpoint.
const DefaultStooqBase = "https://stooq.com/q/d/l/"

// Stooq fetches daily OHLCV history as CSV from stooq.com.
type Stooq struct {
	base string
	tr   *Transport
}

// NewStooq creates a Stooq client. An empty base selects DefaultStooqBase.
func NewStooq(base string, tr *Transport) *Stooq {
	if base == "" {
		base = DefaultStooqBase
	}
	if tr == nil {
		tr = NewTransport()
	}
	return &Stooq{base: base, tr: tr}
}

// Name returns the data source name.
func (s *Stooq) Name() string { return "Stooq" }

// FetchPrices downloads daily bars for ticker (e.g. "AMZN.US") and keeps
// the rows dated within [start, end]. A single attempt is made.
func (s *Stooq) FetchPrices(ctx context.Context, ticker string, start, end time.Time) (*models.PriceSeries, error) {
	params := url.Values{}
	params.Set("s", utils.ToStooqSymbol(ticker))
	params.Set("i", "d")
	params.Set("d1", utils.FormatCompact(start))
	params.Set("d2", utils.FormatCompact(end))
	u := s.base + "?" + params.Encode()

	body, hit := s.tr.cached(ctx, u)
	if !hit {
		var err error
		body, err = s.tr.Get(ctx, u, map[string]string{"Accept": "text/csv"})
		if err != nil {
			return nil, fmt.Errorf("stooq %s: %w", ticker, err)
		}
	}

	points, err := parseStooqCSV(body, utils.FormatDay(start), utils.FormatDay(end))
	if err != nil {
		return nil, fmt.Errorf("stooq %s: %w", ticker, err)
	}
	if !hit {
		s.tr.store(ctx, u, body)
	}
	return models.NewPriceSeries(ticker, points), nil
}

// parseStooqCSV reads a Date,Open,High,Low,Close[,Volume] CSV and keeps rows
// whose date falls in [from, to] (inclusive, "2006-01-02" strings).
func parseStooqCSV(body []byte, from, to string) ([]models.PricePoint, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || strings.EqualFold(trimmed, "No data") {
		return nil, ErrNoData
	}

	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range []string{"date", "open", "high", "low", "close"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("csv missing %q column (header %v)", name, header)
		}
	}
	volIdx, hasVolume := col["volume"]

	var points []models.PricePoint
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		date := field(rec, col["date"])
		if date == "" || date < from || date > to {
			continue
		}

		p := models.PricePoint{Date: date}
		for _, f := range []struct {
			name string
			dst  *float64
		}{
			{"open", &p.Open}, {"high", &p.High}, {"low", &p.Low}, {"close", &p.Close},
		} {
			v, err := strconv.ParseFloat(field(rec, col[f.name]), 64)
			if err != nil {
				return nil, fmt.Errorf("csv line %d %s: %w", line, f.name, err)
			}
			*f.dst = v
		}
		if hasVolume {
			if v, err := strconv.ParseFloat(field(rec, volIdx), 64); err == nil {
				p.Volume = &v
			}
		}
		points = append(points, p)
	}
	return points, nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
