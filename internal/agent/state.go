// Package agent runs the news impact pipeline: a plan-and-route loop that
// gathers articles, prices and event returns, followed by a concurrent
// sentiment annotation fan-out and two synthesis steps that produce the
// final report.
package agent

import (
	"github.com/seenimoa/newsimpact/pkg/models"
)

// ── Aggregate State ──

// State is the single mutable record threaded through one run. It is owned
// by the orchestration loop; each step writes its own field and data
// gathering fields are never cleared once set.
type State struct {
	Request models.Request
	Plan    *models.Plan

	Articles     []models.Article
	Prices       *models.PriceSeries
	EventReturns []models.EventReturn
	returnsReady bool

	Sentiments  []models.SentimentImpact
	Unannotated []string // URLs whose annotation failed when partial results are allowed

	Impact *models.ImpactSummary
	Report *models.FinalReport
}

// NewState returns the initial state of a run: only the request is set.
func NewState(req models.Request) *State {
	return &State{Request: req}
}

// HasArticles reports whether the news search has produced articles.
func (s *State) HasArticles() bool { return len(s.Articles) > 0 }

// HasPrices reports whether a price series has been fetched.
func (s *State) HasPrices() bool { return s.Prices != nil }

// HasReturns reports whether event returns have been computed. An empty
// result still counts as computed.
func (s *State) HasReturns() bool { return s.returnsReady }

// SetEventReturns stores the computed returns and marks them present.
func (s *State) SetEventReturns(returns []models.EventReturn) {
	if returns == nil {
		returns = []models.EventReturn{}
	}
	s.EventReturns = returns
	s.returnsReady = true
}

// gatherRequest is the request the data gathering steps read: the planner's
// normalized copy when one exists.
func (s *State) gatherRequest() models.Request {
	if s.Plan != nil {
		return s.Plan.NormalizedRequest
	}
	return s.Request
}
