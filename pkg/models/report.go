package models

import "time"

// FinalReport is the denormalized result of a run.
type FinalReport struct {
	RunID            string        `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Ticker           string        `json:"ticker" yaml:"ticker"`
	Company          string        `json:"company" yaml:"company"`
	Window           string        `json:"window" yaml:"window"`
	ArticlesAnalyzed int           `json:"articles_analyzed" yaml:"articles_analyzed" validate:"gte=0"`
	ImpactSummary    ImpactSummary `json:"impact_summary" yaml:"impact_summary"`
	EventReturns     []EventReturn `json:"event_returns" yaml:"event_returns"`
	Conclusion       string        `json:"conclusion" yaml:"conclusion"`
	UnannotatedURLs  []string      `json:"unannotated_urls,omitempty" yaml:"unannotated_urls,omitempty"`
	GeneratedAt      time.Time     `json:"generated_at" yaml:"generated_at"`
}
