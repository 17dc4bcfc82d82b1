// Package sentiment provides a deterministic keyword scorer for news
// headlines. The pipeline records its polarity next to the model's
// annotation as an offline cross-check.
package sentiment

import (
	"math"
	"strings"
	"unicode"

	"github.com/seenimoa/newsimpact/pkg/models"
)

// Class thresholds shared with the annotation prompt.
const (
	PositiveThreshold = 0.2
	NegativeThreshold = -0.2
)

// Positive / negative keyword dictionaries (lowercase stems; a stem matches
// any word that starts with it).
var positiveWords = map[string]float64{
	"bullish": 0.7, "rally": 0.6, "surge": 0.7, "soar": 0.7, "jump": 0.5,
	"upbeat": 0.5, "growth": 0.4, "upgrade": 0.6, "outperform": 0.6,
	"strong": 0.4, "recover": 0.5, "breakout": 0.6, "record high": 0.7,
	"all-time high": 0.7, "beat": 0.5, "exceed": 0.5, "expan": 0.4,
	"profit": 0.3, "dividend": 0.4, "buyback": 0.5, "partnership": 0.3,
	"launch": 0.3, "wins": 0.4, "approv": 0.4, "raises guidance": 0.6,
	"boost": 0.4, "gain": 0.4, "optimis": 0.4,
}

var negativeWords = map[string]float64{
	"bearish": 0.7, "crash": 0.8, "plunge": 0.7, "slump": 0.6, "tumble": 0.6,
	"downgrade": 0.6, "underperform": 0.6, "weak": 0.4, "decline": 0.5,
	"loss": 0.4, "selloff": 0.7, "sell-off": 0.7, "fall": 0.4, "drop": 0.4,
	"fraud": 0.8, "scam": 0.8, "investigat": 0.5, "probe": 0.5,
	"lawsuit": 0.5, "sued": 0.5, "antitrust": 0.5, "fine": 0.4, "penalt": 0.5,
	"layoff": 0.5, "job cuts": 0.5, "recall": 0.5, "miss": 0.5, "warn": 0.5,
	"concern": 0.3, "strike": 0.4, "outage": 0.5, "breach": 0.6,
	"cuts guidance": 0.6, "pessimis": 0.4,
}

// ScoreText returns a keyword sentiment score for text.
// Score ranges from -1.0 (very negative) to +1.0 (very positive).
func ScoreText(text string) (score float64, confidence float64) {
	padded := " " + normalize(text) + " "

	posScore, negScore := 0.0, 0.0
	matches := 0

	for word, weight := range positiveWords {
		if strings.Contains(padded, " "+word) {
			posScore += weight
			matches++
		}
	}
	for word, weight := range negativeWords {
		if strings.Contains(padded, " "+word) {
			negScore += weight
			matches++
		}
	}

	if matches == 0 {
		return 0, 0.1 // no signal
	}

	// Net score normalized to -1..+1.
	score = (posScore - negScore) / (posScore + negScore)

	// Confidence based on number of keyword matches.
	confidence = math.Min(float64(matches)*0.15+0.2, 0.85)

	return score, confidence
}

// ScoreArticle scores an article's title and snippet, rounded to 3 decimals.
func ScoreArticle(a models.Article) float64 {
	text := a.Title
	if a.Snippet != "" {
		text += " " + a.Snippet
	}
	score, _ := ScoreText(text)
	return math.Round(score*1000) / 1000
}

// Classify maps a polarity to a sentiment class using the ±0.2 thresholds.
func Classify(polarity float64) models.Sentiment {
	switch {
	case polarity > PositiveThreshold:
		return models.SentimentPositive
	case polarity < NegativeThreshold:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// Agreement counts annotations whose lexicon class matches the model's
// sentiment. Annotations without a lexicon polarity are not counted.
func Agreement(items []models.SentimentImpact) (agree, total int) {
	for _, s := range items {
		if s.LexiconPolarity == nil {
			continue
		}
		total++
		if Classify(*s.LexiconPolarity) == s.Sentiment {
			agree++
		}
	}
	return agree, total
}

// normalize lowercases text and turns punctuation (other than hyphens) into
// spaces so stems match at word starts.
func normalize(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-':
			return unicode.ToLower(r)
		default:
			return ' '
		}
	}, text)
}
