package utils

import (
	"strings"
)

// Company names and bare symbols that users commonly type instead of a
// market-qualified Stooq ticker.
var tickerAliases = map[string]string{
	"AMAZON":    "AMZN.US",
	"APPLE":     "AAPL.US",
	"MICROSOFT": "MSFT.US",
	"GOOGLE":    "GOOGL.US",
	"ALPHABET":  "GOOGL.US",
	"META":      "META.US",
	"FACEBOOK":  "META.US",
	"NVIDIA":    "NVDA.US",
	"TESLA":     "TSLA.US",
	"NETFLIX":   "NFLX.US",
}

// Stooq market suffix → Yahoo Finance suffix.
var yahooSuffixes = map[string]string{
	"US": "",
	"UK": ".L",
	"DE": ".DE",
	"JP": ".T",
	"HK": ".HK",
	"PL": ".WA",
	"FR": ".PA",
}

// NormalizeTicker cleans user input into a Stooq-style ticker such as
// "AMZN.US". A symbol without a market suffix is assumed to be a US listing.
func NormalizeTicker(input string) string {
	t := strings.ToUpper(strings.TrimSpace(input))
	t = strings.TrimPrefix(t, "$")
	if t == "" {
		return ""
	}
	if alias, ok := tickerAliases[t]; ok {
		return alias
	}
	if !strings.Contains(t, ".") {
		return t + ".US"
	}
	return t
}

// SplitTicker returns the symbol and market parts of a Stooq-style ticker.
func SplitTicker(ticker string) (symbol, market string) {
	t := NormalizeTicker(ticker)
	i := strings.LastIndex(t, ".")
	if i < 0 {
		return t, ""
	}
	return t[:i], t[i+1:]
}

// ToStooqSymbol returns the lowercase symbol expected by the Stooq CSV endpoint.
func ToStooqSymbol(ticker string) string {
	return strings.ToLower(NormalizeTicker(ticker))
}

// ToYahooSymbol converts a Stooq-style ticker to its Yahoo Finance symbol.
// Unknown markets keep their suffix unchanged.
func ToYahooSymbol(ticker string) string {
	symbol, market := SplitTicker(ticker)
	if suffix, ok := yahooSuffixes[market]; ok {
		return symbol + suffix
	}
	if market == "" {
		return symbol
	}
	return symbol + "." + market
}
