package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/newsimpact/internal/agent/prompts"
	"github.com/seenimoa/newsimpact/internal/analysis/sentiment"
	"github.com/seenimoa/newsimpact/internal/llm"
	"github.com/seenimoa/newsimpact/internal/structured"
	"github.com/seenimoa/newsimpact/pkg/models"
)

// enrich annotates the first maxAnnotations articles and stores the
// results in s.Sentiments.
func (o *Orchestrator) enrich(ctx context.Context, s *State) (string, error) {
	articles := s.Articles
	if len(articles) > o.maxAnnotations {
		articles = articles[:o.maxAnnotations]
	}

	results, failed, err := o.annotate(ctx, articles)
	if err != nil {
		return "", err
	}

	s.Sentiments = results
	for _, a := range articles {
		if _, ok := failed[a.URL]; ok {
			s.Unannotated = append(s.Unannotated, a.URL)
		}
	}
	if len(failed) > 0 {
		return fmt.Sprintf("%d annotated, %d failed", len(results), len(failed)), nil
	}
	return fmt.Sprintf("%d annotated", len(results)), nil
}

// annotate runs one sentiment annotation per article under the
// concurrency limit. Results come back in input order regardless of
// completion order.
//
// By default the first exhausted retrieval cancels the remaining tasks and
// is returned. With partial results allowed, failures are collected by URL
// and an *AnnotationError is returned only when every article failed.
func (o *Orchestrator) annotate(ctx context.Context, articles []models.Article) ([]models.SentimentImpact, map[string]error, error) {
	slots := make([]*models.SentimentImpact, len(articles))

	var (
		mu     sync.Mutex
		failed = make(map[string]error)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for i, a := range articles {
		g.Go(func() error {
			si, err := o.annotateOne(gctx, a)
			if err != nil {
				if !o.allowPartial || isContextErr(err) {
					return fmt.Errorf("annotate %s: %w", a.URL, err)
				}
				log.Warn().Str("url", a.URL).Err(err).Msg("article annotation failed")
				mu.Lock()
				failed[a.URL] = err
				mu.Unlock()
				return nil
			}
			slots[i] = si
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return nil, nil, cerr
		}
		return nil, nil, err
	}

	results := make([]models.SentimentImpact, 0, len(articles))
	for _, si := range slots {
		if si != nil {
			results = append(results, *si)
		}
	}
	if len(articles) > 0 && len(results) == 0 {
		return nil, nil, &AnnotationError{Failed: failed, Total: len(articles)}
	}
	return results, failed, nil
}

// annotateOne asks the model to annotate a single article. URL and title
// are backfilled from the article when the model omits them, and the
// lexicon polarity is always computed locally.
func (o *Orchestrator) annotateOne(ctx context.Context, a models.Article) (*models.SentimentImpact, error) {
	p := llm.Prompt{
		System: prompts.SentimentSystemPrompt,
		User:   toJSON(articleView(a)),
	}
	si, err := structured.Retrieve[models.SentimentImpact](ctx, o.retriever, p)
	if err != nil {
		return nil, err
	}
	if si.URL == "" {
		si.URL = a.URL
	}
	if si.Title == "" {
		si.Title = a.Title
	}
	lex := sentiment.ScoreArticle(a)
	si.LexiconPolarity = &lex
	return si, nil
}
