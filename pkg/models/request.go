// Package models defines the core data structures used throughout newsimpact.
package models

// Default request parameters.
const (
	DefaultLookbackDays    = 7
	DefaultEventWindowDays = 1
	DefaultMaxArticles     = 30
)

// Request describes one analysis run. It is created once at pipeline start
// and treated as read-only afterwards.
type Request struct {
	Ticker          string `json:"ticker" yaml:"ticker" validate:"required"`             // e.g., "AMZN.US"
	CompanyName     string `json:"company_name" yaml:"company_name" validate:"required"` // e.g., "Amazon"
	LookbackDays    int    `json:"lookback_days" yaml:"lookback_days" validate:"gte=1,lte=365"`
	EventWindowDays int    `json:"event_window_days" yaml:"event_window_days" validate:"gte=0,lte=30"`
	MaxArticles     int    `json:"max_articles" yaml:"max_articles" validate:"gte=1,lte=250"` // GDELT caps maxrecords at 250
}

// NewRequest returns a Request with default windows for the given ticker.
func NewRequest(ticker, company string) Request {
	r := Request{Ticker: ticker, CompanyName: company}
	r.ApplyDefaults()
	return r
}

// ApplyDefaults resets the numeric parameters to their defaults. It is used
// to pre-populate a value before decoding partial JSON over it.
func (r *Request) ApplyDefaults() {
	r.LookbackDays = DefaultLookbackDays
	r.EventWindowDays = DefaultEventWindowDays
	r.MaxArticles = DefaultMaxArticles
}

// ToolName identifies a data-gathering action proposed by the planner.
type ToolName string

const (
	ToolSearchNews     ToolName = "search_news"
	ToolFetchPrices    ToolName = "fetch_prices"
	ToolComputeReturns ToolName = "compute_returns"
	ToolNone           ToolName = "none"
)

// ToolCall is the planner's next-action descriptor.
type ToolCall struct {
	ToolName ToolName       `json:"tool_name" validate:"required,oneof=search_news fetch_prices compute_returns none"`
	ToolArgs map[string]any `json:"tool_args,omitempty"`
}

// Plan is produced by every planning step and superseded on the next one.
type Plan struct {
	NormalizedRequest Request  `json:"normalized_request"`
	Strategy          string   `json:"strategy"`
	NextCall          ToolCall `json:"next_call"`
}

// ApplyDefaults pre-populates the normalized request defaults.
func (p *Plan) ApplyDefaults() {
	p.NormalizedRequest.ApplyDefaults()
}
