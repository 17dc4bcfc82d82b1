package agent

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrInvalidRequest is returned when the run request fails validation.
	ErrInvalidRequest = errors.New("agent: invalid request")

	// ErrNoArticles is returned when the news search finds nothing; the
	// pipeline has no events to measure.
	ErrNoArticles = errors.New("agent: news search returned no articles")

	// ErrPlanningLoop is returned when planning runs more than the
	// configured number of iterations.
	ErrPlanningLoop = errors.New("agent: planning iteration limit reached")
)

// StepError records which step failed a run.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("agent: step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// AnnotationError lists the articles whose annotation failed. It is only
// returned with partial results allowed, when no article succeeded.
type AnnotationError struct {
	Failed map[string]error // keyed by article URL
	Total  int
}

func (e *AnnotationError) Error() string {
	urls := e.URLs()
	msg := fmt.Sprintf("agent: %d of %d articles could not be annotated", len(e.Failed), e.Total)
	if len(urls) > 0 {
		msg += fmt.Sprintf(" (first: %s: %v)", urls[0], e.Failed[urls[0]])
	}
	return msg
}

// URLs returns the failed article URLs, sorted.
func (e *AnnotationError) URLs() []string {
	urls := make([]string, 0, len(e.Failed))
	for u := range e.Failed {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}
