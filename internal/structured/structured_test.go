package structured

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/newsimpact/internal/llm"
	"github.com/seenimoa/newsimpact/pkg/models"
)

// scripted replays canned replies in order, one per call.
type scripted struct {
	replies []string
	errs    []error
	calls   int
}

func (s *scripted) GenerateText(ctx context.Context, p llm.Prompt) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.replies) {
		return s.replies[i], nil
	}
	return "", nil
}

type sleepRecorder struct{ delays []time.Duration }

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func newTestRetriever(gen llm.Generator) (*Retriever, *sleepRecorder) {
	rec := &sleepRecorder{}
	return New(gen, WithSleep(rec.sleep)), rec
}

const validSentiment = `{"sentiment":"positive","polarity":0.6,"expected_impact":"up","confidence":0.8,"rationale":"record sales"}`

func TestRetrieveFirstAttempt(t *testing.T) {
	gen := &scripted{replies: []string{validSentiment}}
	r, rec := newTestRetriever(gen)

	v, err := Retrieve[models.SentimentImpact](context.Background(), r, llm.Prompt{User: "x"})
	require.NoError(t, err)
	assert.Equal(t, models.SentimentPositive, v.Sentiment)
	assert.InDelta(t, 0.6, v.Polarity, 1e-9)
	assert.Equal(t, 1, gen.calls)
	assert.Empty(t, rec.delays)
}

func TestRetrieveSucceedsOnNthAttempt(t *testing.T) {
	gen := &scripted{replies: []string{
		"",
		"I cannot comply.",
		`{"sentiment":"bullish","polarity":0.5,"expected_impact":"up","confidence":0.5}`,
		validSentiment,
	}}
	r, rec := newTestRetriever(gen)

	v, err := Retrieve[models.SentimentImpact](context.Background(), r, llm.Prompt{User: "x"})
	require.NoError(t, err)
	assert.Equal(t, "record sales", v.Rationale)
	assert.Equal(t, 4, gen.calls)
	assert.Equal(t, []time.Duration{
		400 * time.Millisecond,
		800 * time.Millisecond,
		1600 * time.Millisecond,
	}, rec.delays)
}

func TestRetrieveExtractsEmbeddedObject(t *testing.T) {
	reply := "Sure! Here is the analysis:\n```json\n" + validSentiment + "\n```\nLet me know if you need more."
	gen := &scripted{replies: []string{reply}}
	r, _ := newTestRetriever(gen)

	v, err := Retrieve[models.SentimentImpact](context.Background(), r, llm.Prompt{User: "x"})
	require.NoError(t, err)
	assert.Equal(t, models.ImpactUp, v.ExpectedImpact)
	assert.Equal(t, 1, gen.calls)
}

func TestRetrieveExhausted(t *testing.T) {
	long := strings.Repeat("é", 600)
	gen := &scripted{replies: []string{"nope", "nope", "nope", long}}
	r, rec := newTestRetriever(gen)

	_, err := Retrieve[models.SentimentImpact](context.Background(), r, llm.Prompt{User: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidationExhausted))

	var ex *ExhaustedError
	require.True(t, errors.As(err, &ex))
	assert.Equal(t, "SentimentImpact", ex.Schema)
	assert.Equal(t, 4, ex.Attempts)
	assert.Equal(t, 400, len([]rune(ex.Preview)))
	assert.ErrorIs(t, ex.Err, errNoObject)
	assert.Equal(t, 4, gen.calls)
	assert.Len(t, rec.delays, 3, "no sleep after the final attempt")
}

func TestRetrieveGeneratorErrorsAreRetried(t *testing.T) {
	gen := &scripted{
		errs:    []error{errors.New("connection reset"), nil},
		replies: []string{"", validSentiment},
	}
	r, _ := newTestRetriever(gen)

	v, err := Retrieve[models.SentimentImpact](context.Background(), r, llm.Prompt{User: "x"})
	require.NoError(t, err)
	assert.NotNil(t, v)
	assert.Equal(t, 2, gen.calls)
}

func TestRetrieveContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gen := &scripted{errs: []error{context.Canceled}}
	r, _ := newTestRetriever(gen)

	_, err := Retrieve[models.SentimentImpact](ctx, r, llm.Prompt{User: "x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrValidationExhausted))
	assert.Equal(t, 1, gen.calls)
}

func TestRetrieveAppliesDefaults(t *testing.T) {
	reply := `{"normalized_request":{"ticker":"AMZN.US","company_name":"Amazon","lookback_days":3},
		"strategy":"news first","next_call":{"tool_name":"search_news","tool_args":{}}}`
	gen := &scripted{replies: []string{reply}}
	r, _ := newTestRetriever(gen)

	plan, err := Retrieve[models.Plan](context.Background(), r, llm.Prompt{User: "x"})
	require.NoError(t, err)
	assert.Equal(t, 3, plan.NormalizedRequest.LookbackDays)
	assert.Equal(t, models.DefaultEventWindowDays, plan.NormalizedRequest.EventWindowDays)
	assert.Equal(t, models.DefaultMaxArticles, plan.NormalizedRequest.MaxArticles)
	assert.Equal(t, models.ToolSearchNews, plan.NextCall.ToolName)
}

func TestRetrieveRejectsUnknownTool(t *testing.T) {
	bad := `{"normalized_request":{"ticker":"AMZN.US","company_name":"Amazon"},"next_call":{"tool_name":"buy_stock"}}`
	gen := &scripted{replies: []string{bad, bad}}
	r := New(gen, WithMaxAttempts(2), WithSleep(func(context.Context, time.Duration) error { return nil }))

	_, err := Retrieve[models.Plan](context.Background(), r, llm.Prompt{User: "x"})
	require.ErrorIs(t, err, ErrValidationExhausted)
	assert.Contains(t, err.Error(), "validate")
	assert.Equal(t, 2, gen.calls)
}

// cancelling cancels its context on the first call and returns junk.
type cancelling struct {
	cancel context.CancelFunc
	calls  int
}

func (c *cancelling) GenerateText(ctx context.Context, p llm.Prompt) (string, error) {
	c.calls++
	c.cancel()
	return "not json", nil
}

func TestRetrieveDefaultSleepHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gen := &cancelling{cancel: cancel}
	r := New(gen, WithBaseDelay(time.Hour))

	start := time.Now()
	_, err := Retrieve[models.SentimentImpact](ctx, r, llm.Prompt{User: "x"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, gen.calls)
	assert.Less(t, time.Since(start), time.Minute)
}
