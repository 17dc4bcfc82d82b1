package main

import (
	"context"
	"fmt"
	"io"

	"github.com/phuslu/log"

	"github.com/seenimoa/newsimpact/internal/agent"
	"github.com/seenimoa/newsimpact/internal/config"
	"github.com/seenimoa/newsimpact/internal/datasource"
	"github.com/seenimoa/newsimpact/internal/infra"
	"github.com/seenimoa/newsimpact/internal/llm"
	"github.com/seenimoa/newsimpact/internal/storage"
	"github.com/seenimoa/newsimpact/internal/structured"
)

// app holds the long-lived collaborators built from config.
type app struct {
	cfg     *config.Config
	cache   infra.Cache
	news    datasource.NewsSearcher
	prices  datasource.PriceFetcher
	router  *llm.Router
	closers []io.Closer
}

// newApp wires cache, transport, sources and the LLM router.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	a.cache = infra.NewCache(ctx, cfg.Cache.RedisURL)
	if c, ok := a.cache.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	tr := datasource.NewTransportFromConfig(cfg, a.cache)

	var err error
	if a.news, err = datasource.NewNewsSearcher(cfg, tr); err != nil {
		return nil, err
	}
	if a.prices, err = datasource.NewPriceFetcher(cfg, tr); err != nil {
		return nil, err
	}
	if a.router, err = llm.NewRouterFromConfig(ctx, cfg); err != nil {
		return nil, err
	}

	log.Debug().
		Str("news", sourceName(a.news)).
		Str("prices", sourceName(a.prices)).
		Strs("llm", a.router.ProviderNames()).
		Msg("collaborators ready")
	return a, nil
}

// sourceName reports a data source's name for logging.
func sourceName(v any) string {
	if n, ok := v.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", v)
}

// orchestrator builds a pipeline that reports to observer.
func (a *app) orchestrator(observer agent.Observer) (*agent.Orchestrator, error) {
	// Model stays empty so each provider in the chain uses its own.
	gen := llm.NewGenerator(a.router, llm.ChatOptions{
		Temperature: llm.Float(a.cfg.LLM.Temperature),
		MaxTokens:   a.cfg.LLM.MaxTokens,
	})
	p := a.cfg.Pipeline
	return agent.NewOrchestrator(agent.OrchestratorConfig{
		Generator: gen,
		News:      a.news,
		Prices:    a.prices,
		RetrieverOptions: []structured.Option{
			structured.WithMaxAttempts(a.cfg.Retriever.MaxAttempts),
			structured.WithBaseDelay(a.cfg.Retriever.BaseDelay),
		},
		Concurrency:    p.Concurrency,
		MaxAnnotations: p.MaxArticles,
		MaxIterations:  p.MaxIterations,
		AllowPartial:   p.AllowPartial,
		Observer:       observer,
	})
}

// openStore opens run history, or returns nil when it is disabled.
func (a *app) openStore(disabled bool) (*storage.RunStore, error) {
	if disabled || a.cfg.Storage.Path == "" {
		return nil, nil
	}
	st, err := storage.Open(a.cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open run history: %w", err)
	}
	a.closers = append(a.closers, st)
	return st, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Warn().Err(err).Msg("close")
		}
	}
}

// logObserver logs step events when no progress view is attached.
func logObserver(e agent.Event) {
	ev := log.Info()
	if e.Phase == agent.PhaseError {
		ev = log.Warn()
	} else if e.Phase == agent.PhaseStart {
		ev = log.Debug()
	}
	ev.Str("run_id", e.RunID).
		Str("step", string(e.Step)).
		Str("phase", string(e.Phase)).
		Str("detail", e.Detail).
		Dur("elapsed", e.Elapsed).
		Msg("step")
}
