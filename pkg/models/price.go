package models

import "sort"

// PricePoint is one trading day of a price series.
type PricePoint struct {
	Date   string   `json:"date" yaml:"date"` // "2006-01-02"
	Open   float64  `json:"open" yaml:"open"`
	High   float64  `json:"high" yaml:"high"`
	Low    float64  `json:"low" yaml:"low"`
	Close  float64  `json:"close" yaml:"close"`
	Volume *float64 `json:"volume,omitempty" yaml:"volume,omitempty"`
}

// PriceSeries is the daily history of one ticker, sorted by date with no
// duplicate dates.
type PriceSeries struct {
	Ticker string       `json:"ticker" yaml:"ticker"`
	Points []PricePoint `json:"prices" yaml:"prices"`
}

// NewPriceSeries sorts points by date and drops duplicates. When a date
// appears more than once the last occurrence wins.
func NewPriceSeries(ticker string, points []PricePoint) *PriceSeries {
	byDate := make(map[string]PricePoint, len(points))
	for _, p := range points {
		byDate[p.Date] = p
	}
	out := make([]PricePoint, 0, len(byDate))
	for _, p := range byDate {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return &PriceSeries{Ticker: ticker, Points: out}
}

// Len returns the number of trading days in the series.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Points)
}

// Closes indexes close prices by date.
func (s *PriceSeries) Closes() map[string]float64 {
	m := make(map[string]float64, s.Len())
	if s == nil {
		return m
	}
	for _, p := range s.Points {
		m[p.Date] = p.Close
	}
	return m
}

// EventReturn measures the price reaction around one article.
// PreClose, PostClose and ReturnPct are nil when no trading day was found.
type EventReturn struct {
	URL       string   `json:"url" yaml:"url"`
	Title     string   `json:"title" yaml:"title"`
	EventDate string   `json:"event_date" yaml:"event_date"`
	PreClose  *float64 `json:"pre_close" yaml:"pre_close"`
	PostClose *float64 `json:"post_close" yaml:"post_close"`
	ReturnPct *float64 `json:"return_pct" yaml:"return_pct"`
}
