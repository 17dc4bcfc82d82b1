package agent

import "github.com/seenimoa/newsimpact/pkg/models"

// Step names a state of the orchestration machine.
type Step string

const (
	StepPlanning       Step = "planning"
	StepSearchNews     Step = "search_news"
	StepFetchPrices    Step = "fetch_prices"
	StepComputeReturns Step = "compute_returns"
	StepEnriching      Step = "enriching"
	StepSynthesizing   Step = "synthesizing"
	StepDone           Step = "done"
)

// Gathering reports whether s is one of the three data gathering steps.
func (s Step) Gathering() bool {
	switch s {
	case StepSearchNews, StepFetchPrices, StepComputeReturns:
		return true
	}
	return false
}

// Route decides the step that follows planning. The planner's proposal is
// only a hint: a proposal for data that is already present is upgraded to
// the next category, and a proposal that would skip missing data is sent
// to the first missing category (articles, prices, returns).
func Route(s *State) Step {
	tool := models.ToolNone
	if s.Plan != nil {
		tool = s.Plan.NextCall.ToolName
	}
	return requirePrerequisites(s, stepFor(upgrade(s, tool)))
}

// upgrade applies the completion overrides in order.
func upgrade(s *State, tool models.ToolName) models.ToolName {
	if tool == models.ToolSearchNews && s.HasArticles() {
		tool = models.ToolFetchPrices
	}
	if tool == models.ToolFetchPrices && s.HasPrices() {
		tool = models.ToolComputeReturns
	}
	if tool == models.ToolComputeReturns && s.HasReturns() {
		tool = models.ToolNone
	}
	return tool
}

func stepFor(tool models.ToolName) Step {
	switch tool {
	case models.ToolSearchNews:
		return StepSearchNews
	case models.ToolFetchPrices:
		return StepFetchPrices
	case models.ToolComputeReturns:
		return StepComputeReturns
	default:
		return StepEnriching
	}
}

func requirePrerequisites(s *State, next Step) Step {
	switch next {
	case StepComputeReturns:
		if !s.HasArticles() || !s.HasPrices() {
			return firstMissing(s)
		}
	case StepEnriching:
		if m := firstMissing(s); m != StepEnriching {
			return m
		}
	}
	return next
}

func firstMissing(s *State) Step {
	switch {
	case !s.HasArticles():
		return StepSearchNews
	case !s.HasPrices():
		return StepFetchPrices
	case !s.HasReturns():
		return StepComputeReturns
	default:
		return StepEnriching
	}
}
