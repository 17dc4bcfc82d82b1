package agent

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/seenimoa/newsimpact/internal/agent/prompts"
	"github.com/seenimoa/newsimpact/internal/llm"
	"github.com/seenimoa/newsimpact/internal/structured"
	"github.com/seenimoa/newsimpact/pkg/models"
)

const (
	strongestLimit = 3
	disclaimer     = "The results are for research purposes only and are not investment advice."
)

// reportNarrative is the part of the final report the writer authors.
// Every other field is filled from the state.
type reportNarrative struct {
	Window     string `json:"window"`
	Conclusion string `json:"conclusion"`
}

// synthesize builds the impact summary and then the final report.
func (o *Orchestrator) synthesize(ctx context.Context, s *State) (string, error) {
	if err := o.summarizeImpact(ctx, s); err != nil {
		return "", fmt.Errorf("impact summary: %w", err)
	}
	if err := o.writeReport(ctx, s); err != nil {
		return "", fmt.Errorf("final report: %w", err)
	}
	return fmt.Sprintf("%d positive, %d negative signals",
		len(s.Impact.StrongestPositive), len(s.Impact.StrongestNegative)), nil
}

func (o *Orchestrator) summarizeImpact(ctx context.Context, s *State) error {
	p := llm.Prompt{System: prompts.ImpactSystemPrompt, User: toJSON(newImpactView(s))}
	summary, err := structured.Retrieve[models.ImpactSummary](ctx, o.retriever, p)
	if err != nil {
		return err
	}
	FillImpactSummary(summary, s.Sentiments)
	s.Impact = summary
	return nil
}

func (o *Orchestrator) writeReport(ctx context.Context, s *State) error {
	p := llm.Prompt{System: prompts.WriterSystemPrompt, User: toJSON(newWriterView(s))}
	narrative, err := structured.Retrieve[reportNarrative](ctx, o.retriever, p)
	if err != nil {
		return err
	}

	report := &models.FinalReport{
		Ticker:           s.Request.Ticker,
		Company:          s.Request.CompanyName,
		Window:           strings.TrimSpace(narrative.Window),
		ArticlesAnalyzed: len(s.Articles),
		ImpactSummary:    *s.Impact,
		EventReturns:     nonNil(s.EventReturns),
		Conclusion:       strings.TrimSpace(narrative.Conclusion),
		UnannotatedURLs:  s.Unannotated,
		GeneratedAt:      o.now().UTC(),
	}
	FillReport(report, s.Request, s.Sentiments, len(s.Articles))
	s.Report = report
	return nil
}

// ── Fallbacks ──

// FillImpactSummary fills the fields the model left empty from the
// annotations. Lexicon polarity is copied onto per-article entries that
// match an annotation by URL.
func FillImpactSummary(summary *models.ImpactSummary, sentiments []models.SentimentImpact) {
	if len(summary.PerArticle) == 0 {
		summary.PerArticle = append([]models.SentimentImpact(nil), sentiments...)
	} else {
		byURL := make(map[string]*float64, len(sentiments))
		for _, si := range sentiments {
			byURL[si.URL] = si.LexiconPolarity
		}
		for i := range summary.PerArticle {
			if summary.PerArticle[i].LexiconPolarity == nil {
				summary.PerArticle[i].LexiconPolarity = byURL[summary.PerArticle[i].URL]
			}
		}
	}

	if len(summary.StrongestPositive) == 0 {
		summary.StrongestPositive = strongest(sentiments, models.SentimentPositive, func(si models.SentimentImpact) float64 {
			return si.Polarity * si.Confidence
		})
	}
	if len(summary.StrongestNegative) == 0 {
		summary.StrongestNegative = strongest(sentiments, models.SentimentNegative, func(si models.SentimentImpact) float64 {
			return math.Abs(si.Polarity) * si.Confidence
		})
	}

	if strings.TrimSpace(summary.OverallAssessment) == "" {
		pos, neg, _ := models.CountSentiments(sentiments)
		summary.OverallAssessment = fmt.Sprintf(
			"%d articles were found for the selected period: %d positive and %d negative. "+
				"Mean polarity is %.2f. The link to short-term returns was measured through event-window returns; "+
				"some articles show agreement between the expected and the actual direction.",
			len(sentiments), pos, neg, models.MeanPolarity(sentiments))
	}
}

// strongest ranks annotations of one class by score, highest first, and
// returns up to three URLs. Ties keep input order.
func strongest(items []models.SentimentImpact, class models.Sentiment, score func(models.SentimentImpact) float64) []string {
	var ranked []models.SentimentImpact
	for _, si := range items {
		if si.Sentiment == class {
			ranked = append(ranked, si)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return score(ranked[i]) > score(ranked[j]) })

	urls := []string{}
	for _, si := range ranked {
		if len(urls) == strongestLimit {
			break
		}
		if si.URL != "" {
			urls = append(urls, si.URL)
		}
	}
	return urls
}

// FillReport fills an empty window or conclusion.
func FillReport(report *models.FinalReport, req models.Request, sentiments []models.SentimentImpact, articles int) {
	if report.Window == "" {
		report.Window = fmt.Sprintf("lookback %dd, event ±%dd", req.LookbackDays, req.EventWindowDays)
	}
	if report.Conclusion == "" {
		pos, neg, _ := models.CountSentiments(sentiments)
		parts := []string{
			fmt.Sprintf("The analysis covers %d articles: %d positive and %d negative in tone.", articles, pos, neg),
		}
		if overall := strings.TrimSpace(report.ImpactSummary.OverallAssessment); overall != "" {
			parts = append(parts, overall)
		}
		parts = append(parts,
			"Event-window returns served as an educational estimate of the short-term market reaction.",
			disclaimer)
		report.Conclusion = strings.Join(parts, " ")
	}
}
