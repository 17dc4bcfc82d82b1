package agent

import (
	"context"
	"fmt"

	"github.com/phuslu/log"

	"github.com/seenimoa/newsimpact/internal/agent/prompts"
	"github.com/seenimoa/newsimpact/internal/analysis/eventwindow"
	"github.com/seenimoa/newsimpact/internal/datasource"
	"github.com/seenimoa/newsimpact/internal/llm"
	"github.com/seenimoa/newsimpact/internal/structured"
	"github.com/seenimoa/newsimpact/pkg/models"
	"github.com/seenimoa/newsimpact/pkg/utils"
)

// priceMarginDays widens the price range past the lookback so the event
// window of the oldest article still finds a pre-close.
const priceMarginDays = 10

// plan asks the planner for the next action and replaces s.Plan.
func (o *Orchestrator) plan(ctx context.Context, s *State) (string, error) {
	p := llm.Prompt{
		System: prompts.PlannerSystemPrompt(llm.DescribeTools(plannerTools)),
		User:   toJSON(newPlannerView(s)),
	}
	plan, err := structured.Retrieve[models.Plan](ctx, o.retriever, p)
	if err != nil {
		return "", err
	}
	s.Plan = plan
	return fmt.Sprintf("proposed %s", plan.NextCall.ToolName), nil
}

// searchNews fills s.Articles for the lookback window ending now.
func (o *Orchestrator) searchNews(ctx context.Context, s *State) (string, error) {
	req := s.gatherRequest()
	end := o.now().UTC()
	q := datasource.NewsQuery{
		Query:      req.CompanyName,
		Start:      utils.AddDays(end, -req.LookbackDays),
		End:        end,
		MaxRecords: req.MaxArticles,
	}

	articles, err := o.news.SearchNews(ctx, q)
	if err != nil {
		return "", err
	}
	if len(articles) == 0 {
		return "", fmt.Errorf("%w for %q", ErrNoArticles, q.Query)
	}
	s.Articles = articles
	return fmt.Sprintf("%d articles", len(articles)), nil
}

// fetchPrices fills s.Prices from lookback+10 days ago to today.
func (o *Orchestrator) fetchPrices(ctx context.Context, s *State) (string, error) {
	req := s.gatherRequest()
	end := utils.TruncateDay(o.now().UTC())
	start := utils.AddDays(end, -(req.LookbackDays + priceMarginDays))

	series, err := o.prices.FetchPrices(ctx, req.Ticker, start, end)
	if err != nil {
		return "", err
	}
	if series == nil {
		series = &models.PriceSeries{Ticker: req.Ticker}
	}
	s.Prices = series
	return fmt.Sprintf("%d price points", series.Len()), nil
}

// computeReturns fills s.EventReturns. Articles with unparseable dates are
// skipped and logged.
func (o *Orchestrator) computeReturns(_ context.Context, s *State) (string, error) {
	req := s.gatherRequest()

	skipped := 0
	for _, a := range s.Articles {
		if _, ok := eventwindow.ParseEventDate(a.PublishedAt); !ok {
			skipped++
			log.Warn().Str("url", a.URL).Str("datetime", a.PublishedAt).Msg("article skipped: unparseable timestamp")
		}
	}

	s.SetEventReturns(eventwindow.ComputeEventReturns(s.Prices, s.Articles, req.EventWindowDays))
	return fmt.Sprintf("%d event returns, %d skipped", len(s.EventReturns), skipped), nil
}
