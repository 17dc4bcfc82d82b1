package agent

import (
	"fmt"
	"strings"
)

// edge is a transition of the orchestration machine; label is the routed
// tool name for planner edges.
type edge struct {
	from, to Step
	label    string
}

var graphEdges = []edge{
	{StepPlanning, StepSearchNews, "search_news"},
	{StepPlanning, StepFetchPrices, "fetch_prices"},
	{StepPlanning, StepComputeReturns, "compute_returns"},
	{StepPlanning, StepEnriching, "none"},
	{StepSearchNews, StepPlanning, ""},
	{StepFetchPrices, StepPlanning, ""},
	{StepComputeReturns, StepPlanning, ""},
	{StepEnriching, StepSynthesizing, ""},
	{StepSynthesizing, StepDone, ""},
}

var graphLabels = map[Step]string{
	StepPlanning:       "planner",
	StepSearchNews:     "search news",
	StepFetchPrices:    "fetch prices",
	StepComputeReturns: "compute event returns",
	StepEnriching:      "sentiment fan-out",
	StepSynthesizing:   "impact + report",
}

// Mermaid renders the orchestration machine as a mermaid flowchart.
func Mermaid() string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")
	fmt.Fprintf(&b, "    start([start]) --> %s\n", StepPlanning)
	for _, s := range []Step{StepPlanning, StepSearchNews, StepFetchPrices, StepComputeReturns, StepEnriching, StepSynthesizing} {
		fmt.Fprintf(&b, "    %s[%q]\n", s, graphLabels[s])
	}
	fmt.Fprintf(&b, "    %s([end])\n", StepDone)
	for _, e := range graphEdges {
		if e.label != "" {
			fmt.Fprintf(&b, "    %s -- %s --> %s\n", e.from, e.label, e.to)
		} else {
			fmt.Fprintf(&b, "    %s --> %s\n", e.from, e.to)
		}
	}
	return b.String()
}

// Label is the human-readable name of the step.
func (s Step) Label() string {
	if l, ok := graphLabels[s]; ok {
		return l
	}
	return string(s)
}
