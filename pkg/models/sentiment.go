package models

// Sentiment is the tone class of an article.
type Sentiment string

const (
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentPositive Sentiment = "positive"
)

// Impact is the expected direction of the price reaction.
type Impact string

const (
	ImpactDown    Impact = "down"
	ImpactNeutral Impact = "neutral"
	ImpactUp      Impact = "up"
)

// SentimentImpact is the model's annotation of one article, keyed by URL.
type SentimentImpact struct {
	URL            string    `json:"url,omitempty" yaml:"url"`
	Title          string    `json:"title,omitempty" yaml:"title"`
	Sentiment      Sentiment `json:"sentiment" yaml:"sentiment" validate:"required,oneof=negative neutral positive"`
	Polarity       float64   `json:"polarity" yaml:"polarity" validate:"gte=-1,lte=1"`
	ExpectedImpact Impact    `json:"expected_impact" yaml:"expected_impact" validate:"required,oneof=down neutral up"`
	Confidence     float64   `json:"confidence" yaml:"confidence" validate:"gte=0,lte=1"`
	Rationale      string    `json:"rationale" yaml:"rationale"`

	// LexiconPolarity is computed locally from a keyword lexicon, never by the model.
	LexiconPolarity *float64 `json:"lexicon_polarity,omitempty" yaml:"lexicon_polarity,omitempty"`
}

// ImpactSummary aggregates the per-article annotations.
type ImpactSummary struct {
	PerArticle        []SentimentImpact `json:"per_article" yaml:"per_article" validate:"dive"`
	StrongestPositive []string          `json:"strongest_positive" yaml:"strongest_positive"`
	StrongestNegative []string          `json:"strongest_negative" yaml:"strongest_negative"`
	OverallAssessment string            `json:"overall_assessment" yaml:"overall_assessment"`
}

// CountSentiments returns how many annotations fall in each class.
func CountSentiments(items []SentimentImpact) (pos, neg, neutral int) {
	for _, s := range items {
		switch s.Sentiment {
		case SentimentPositive:
			pos++
		case SentimentNegative:
			neg++
		default:
			neutral++
		}
	}
	return pos, neg, neutral
}

// MeanPolarity returns the average polarity, or 0 for an empty slice.
func MeanPolarity(items []SentimentImpact) float64 {
	if len(items) == 0 {
		return 0
	}
	var sum float64
	for _, s := range items {
		sum += s.Polarity
	}
	return sum / float64(len(items))
}
