package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/newsimpact/internal/agent"
	"github.com/seenimoa/newsimpact/internal/config"
	"github.com/seenimoa/newsimpact/internal/llm"
	"github.com/seenimoa/newsimpact/internal/report"
	"github.com/seenimoa/newsimpact/pkg/models"
)

func testReport() *models.FinalReport {
	return &models.FinalReport{
		RunID:            "run-1",
		Ticker:           "AMZN.US",
		Company:          "Amazon",
		Window:           "2024-01-01..2024-01-04",
		ArticlesAnalyzed: 0,
		Conclusion:       "No clear link between tone and price.",
		GeneratedAt:      time.Date(2024, 1, 4, 12, 0, 0, 0, time.UTC),
	}
}

func TestFormatNames(t *testing.T) {
	names := formatNames()
	assert.Len(t, names, len(report.Formats()))
	assert.Contains(t, names, "json")
	assert.Contains(t, names, "pdf")
}

func TestWriteReportCreatesDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "amzn.md")
	require.NoError(t, writeReport(testReport(), report.FormatMarkdown, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "AMZN.US"))
}

func TestOpenStoreDisabled(t *testing.T) {
	cfg := config.Default()
	a := &app{cfg: cfg}

	st, err := a.openStore(true)
	require.NoError(t, err)
	assert.Nil(t, st)

	cfg.Storage.Path = ""
	st, err = a.openStore(false)
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestOpenStoreAndClose(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Path = t.TempDir()
	a := &app{cfg: cfg}

	st, err := a.openStore(false)
	require.NoError(t, err)
	require.NotNil(t, st)
	require.NoError(t, st.Save(testReport()))
	a.Close()
}

func TestLogObserverAcceptsAllPhases(t *testing.T) {
	for _, ph := range []agent.Phase{agent.PhaseStart, agent.PhaseDone, agent.PhaseError} {
		logObserver(agent.Event{RunID: "r", Step: agent.StepPlanning, Phase: ph})
	}
}

func TestNewAppWiresSources(t *testing.T) {
	for _, e := range []string{"REDIS_URL", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "LITELLM_API_KEY"} {
		t.Setenv(e, "")
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Cache.RedisURL = ""
	cfg.News.GDELTBase = srv.URL
	cfg.Prices.StooqBase = srv.URL
	cfg.LLM.Primary = llm.ProviderOpenAI
	cfg.LLM.Fallback = nil
	cfg.LLM.BaseURL = srv.URL
	cfg.LLM.APIKey = "sk-test"

	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "GDELT", sourceName(a.news))
	assert.Equal(t, "Stooq", sourceName(a.prices))
	assert.Equal(t, []string{llm.ProviderOpenAI}, a.router.ProviderNames())

	o, err := a.orchestrator(logObserver)
	require.NoError(t, err)
	assert.NotNil(t, o)
}

func TestNewAppRejectsUnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.RedisURL = ""
	cfg.Prices.Provider = "bloomberg"

	_, err := newApp(context.Background(), cfg)
	assert.ErrorContains(t, err, "bloomberg")
}

func TestSourceNameFallsBackToType(t *testing.T) {
	assert.Equal(t, "int", sourceName(42))
}
