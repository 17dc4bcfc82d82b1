package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/phuslu/log"

	"github.com/seenimoa/newsimpact/internal/datasource"
	"github.com/seenimoa/newsimpact/internal/llm"
	"github.com/seenimoa/newsimpact/internal/structured"
	"github.com/seenimoa/newsimpact/pkg/models"
)

// Orchestration defaults.
const (
	DefaultConcurrency   = 6
	DefaultMaxIterations = 8
	DefaultMaxAnnotation = 30
)

// ── Observer ──

// Phase is the lifecycle point of a step event.
type Phase string

const (
	PhaseStart Phase = "start"
	PhaseDone  Phase = "done"
	PhaseError Phase = "error"
)

// Event reports progress of one step of a run.
type Event struct {
	RunID   string        `json:"run_id"`
	Step    Step          `json:"step"`
	Phase   Phase         `json:"phase"`
	Detail  string        `json:"detail,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
	Time    time.Time     `json:"time"`
}

// Observer receives step events. It is called from the orchestration loop
// and must not block for long.
type Observer func(Event)

// Observers fans one event out to several observers. Nil entries are skipped.
func Observers(obs ...Observer) Observer {
	return func(e Event) {
		for _, o := range obs {
			if o != nil {
				o(e)
			}
		}
	}
}

// ── Orchestrator ──

// OrchestratorConfig holds the collaborators and limits of a pipeline.
type OrchestratorConfig struct {
	Generator llm.Generator
	News      datasource.NewsSearcher
	Prices    datasource.PriceFetcher

	RetrieverOptions []structured.Option

	Concurrency    int  // annotation worker limit
	MaxAnnotations int  // articles annotated per run
	MaxIterations  int  // planning iterations before ErrPlanningLoop
	AllowPartial   bool // keep going when some annotations fail

	Now      func() time.Time
	Observer Observer
}

// Orchestrator runs the pipeline. It holds no per-run state and is safe for
// concurrent Run calls.
type Orchestrator struct {
	retriever *structured.Retriever
	news      datasource.NewsSearcher
	prices    datasource.PriceFetcher
	validate  *validator.Validate

	concurrency    int
	maxAnnotations int
	maxIterations  int
	allowPartial   bool
	now            func() time.Time
	observer       Observer
}

// NewOrchestrator validates cfg and applies defaults.
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	switch {
	case cfg.Generator == nil:
		return nil, errors.New("agent: generator is required")
	case cfg.News == nil:
		return nil, errors.New("agent: news searcher is required")
	case cfg.Prices == nil:
		return nil, errors.New("agent: price fetcher is required")
	}

	o := &Orchestrator{
		retriever:      structured.New(cfg.Generator, cfg.RetrieverOptions...),
		news:           cfg.News,
		prices:         cfg.Prices,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		concurrency:    cfg.Concurrency,
		maxAnnotations: cfg.MaxAnnotations,
		maxIterations:  cfg.MaxIterations,
		allowPartial:   cfg.AllowPartial,
		now:            cfg.Now,
		observer:       cfg.Observer,
	}
	if o.concurrency <= 0 {
		o.concurrency = DefaultConcurrency
	}
	if o.maxAnnotations <= 0 {
		o.maxAnnotations = DefaultMaxAnnotation
	}
	if o.maxIterations <= 0 {
		o.maxIterations = DefaultMaxIterations
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o, nil
}

// run carries the identity of one pipeline execution.
type run struct {
	id    string
	state *State
	start time.Time
}

// Run executes the full pipeline for req and returns the final report.
// Context cancellation is honoured at every step and returned unwrapped;
// any other failure is a *StepError naming the step.
func (o *Orchestrator) Run(ctx context.Context, req models.Request) (*models.FinalReport, error) {
	if err := o.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	r := &run{id: uuid.NewString(), state: NewState(req), start: time.Now()}
	log.Info().Str("run_id", r.id).Str("ticker", req.Ticker).Str("company", req.CompanyName).
		Int("lookback_days", req.LookbackDays).Int("event_window_days", req.EventWindowDays).
		Msg("run started")

	if err := o.gather(ctx, r); err != nil {
		return nil, err
	}

	if err := o.step(ctx, r, StepEnriching, o.enrich); err != nil {
		return nil, err
	}
	if err := o.step(ctx, r, StepSynthesizing, o.synthesize); err != nil {
		return nil, err
	}

	report := r.state.Report
	report.RunID = r.id
	o.emit(r, StepDone, PhaseDone, fmt.Sprintf("%d articles analyzed", report.ArticlesAnalyzed), time.Since(r.start))
	log.Info().Str("run_id", r.id).Dur("elapsed", time.Since(r.start)).Int("articles", report.ArticlesAnalyzed).Msg("run finished")
	return report, nil
}

// gather alternates planning and one gathering step until routing hands
// off to enrichment.
func (o *Orchestrator) gather(ctx context.Context, r *run) error {
	for iter := 0; ; iter++ {
		if iter >= o.maxIterations {
			err := &StepError{Step: StepPlanning, Err: fmt.Errorf("%w (%d)", ErrPlanningLoop, o.maxIterations)}
			o.emit(r, StepPlanning, PhaseError, err.Error(), 0)
			return err
		}
		if err := o.step(ctx, r, StepPlanning, o.plan); err != nil {
			return err
		}

		next := Route(r.state)
		proposed := r.state.Plan.NextCall.ToolName
		if string(proposed) != string(next) && next.Gathering() {
			log.Debug().Str("run_id", r.id).Str("proposed", string(proposed)).Str("routed", string(next)).Msg("planner proposal overridden")
		}

		switch next {
		case StepSearchNews:
			if err := o.step(ctx, r, next, o.searchNews); err != nil {
				return err
			}
		case StepFetchPrices:
			if err := o.step(ctx, r, next, o.fetchPrices); err != nil {
				return err
			}
		case StepComputeReturns:
			if err := o.step(ctx, r, next, o.computeReturns); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

type stepFunc func(ctx context.Context, s *State) (detail string, err error)

// step runs fn with start/done events and logging, and wraps its failure.
func (o *Orchestrator) step(ctx context.Context, r *run, name Step, fn stepFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	o.emit(r, name, PhaseStart, "", 0)
	log.Debug().Str("run_id", r.id).Str("step", string(name)).Msg("step started")

	detail, err := fn(ctx, r.state)
	elapsed := time.Since(start)
	if err != nil {
		o.emit(r, name, PhaseError, err.Error(), elapsed)
		log.Error().Str("run_id", r.id).Str("step", string(name)).Dur("elapsed", elapsed).Err(err).Msg("step failed")
		if isContextErr(err) {
			return err
		}
		return &StepError{Step: name, Err: err}
	}

	o.emit(r, name, PhaseDone, detail, elapsed)
	log.Info().Str("run_id", r.id).Str("step", string(name)).Dur("elapsed", elapsed).Str("detail", detail).Msg("step finished")
	return nil
}

func (o *Orchestrator) emit(r *run, step Step, phase Phase, detail string, elapsed time.Duration) {
	if o.observer == nil {
		return
	}
	o.observer(Event{
		RunID:   r.id,
		Step:    step,
		Phase:   phase,
		Detail:  detail,
		Elapsed: elapsed,
		Time:    time.Now(),
	})
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
