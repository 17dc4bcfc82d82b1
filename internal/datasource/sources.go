package datasource

import (
	"fmt"
	"strings"

	"github.com/seenimoa/newsimpact/internal/config"
)

// NewNewsSearcher returns the news backend selected by news.provider.
func NewNewsSearcher(cfg *config.Config, tr *Transport) (NewsSearcher, error) {
	switch strings.ToLower(cfg.News.Provider) {
	case "", "gdelt":
		return NewGDELT(cfg.News.GDELTBase, tr, WithGDELTRetries(cfg.News.Retries, cfg.News.RetryDelay)), nil
	case "rss":
		return NewRSSNews(cfg.News.RSSURL, tr), nil
	default:
		return nil, fmt.Errorf("unknown news provider %q", cfg.News.Provider)
	}
}

// NewPriceFetcher returns the price backend selected by prices.provider.
func NewPriceFetcher(cfg *config.Config, tr *Transport) (PriceFetcher, error) {
	switch strings.ToLower(cfg.Prices.Provider) {
	case "", "stooq":
		return NewStooq(cfg.Prices.StooqBase, tr), nil
	case "yahoo", "yfinance":
		return NewYFinance(cfg.Prices.YahooBase, tr), nil
	default:
		return nil, fmt.Errorf("unknown price provider %q", cfg.Prices.Provider)
	}
}
