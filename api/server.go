// Package api provides the HTTP REST API server for newsimpact.
//
// It exposes endpoints to run an analysis, browse stored runs, fetch the
// pipeline graph and stream step progress over WebSocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phuslu/log"

	"github.com/seenimoa/newsimpact/internal/agent"
	"github.com/seenimoa/newsimpact/internal/config"
	"github.com/seenimoa/newsimpact/internal/storage"
	"github.com/seenimoa/newsimpact/pkg/models"
)

// analyzeTimeout bounds one POST /api/v1/analyze.
const analyzeTimeout = 5 * time.Minute

// Analyzer runs the pipeline for one request.
type Analyzer interface {
	Run(ctx context.Context, req models.Request) (*models.FinalReport, error)
}

// RunHistory stores finished runs.
type RunHistory interface {
	Save(report *models.FinalReport) error
	Get(id string) (*models.FinalReport, error)
	List(ticker string, limit int) ([]storage.RunRecord, error)
}

// Options wires the server's collaborators. Store and Hub are optional.
type Options struct {
	Config   *config.Config
	Analyzer Analyzer
	Store    RunHistory
	Hub      *WSHub
	Version  string
}

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	analyzer Analyzer
	store    RunHistory
	wsHub    *WSHub
	version  string
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(opts Options) (*Server, error) {
	if opts.Analyzer == nil {
		return nil, errors.New("api: analyzer is required")
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Hub == nil {
		opts.Hub = NewWSHub()
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	srv := &Server{
		cfg:      opts.Config,
		analyzer: opts.Analyzer,
		store:    opts.Store,
		wsHub:    opts.Hub,
		version:  opts.Version,
	}
	srv.router = srv.buildRouter()
	return srv, nil
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub that fans out progress events.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}

// ListenAndServe starts the HTTP server and shuts it down gracefully on
// SIGINT/SIGTERM or when ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: analyzeTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run()
	defer s.wsHub.Stop()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("api listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("api: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down api server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)

		r.With(middleware.Timeout(analyzeTimeout)).Post("/analyze", s.handleAnalyze)

		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)

		r.Get("/graph", s.handleGraph)

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// requestLogger logs one line per request through phuslu/log.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// RunSummary is one entry of GET /api/v1/runs.
type RunSummary struct {
	RunID            string    `json:"run_id"`
	Ticker           string    `json:"ticker"`
	Company          string    `json:"company"`
	ArticlesAnalyzed int       `json:"articles_analyzed"`
	CreatedAt        time.Time `json:"created_at"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":     "ok",
			"version":    s.version,
			"history":    s.store != nil,
			"ws_clients": s.wsHub.ClientCount(),
			"time":       time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req := s.defaultRequest()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	if req.CompanyName == "" {
		writeError(w, http.StatusBadRequest, "company_name is required")
		return
	}

	report, err := s.analyzer.Run(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		log.Warn().Err(err).Str("ticker", req.Ticker).Int("status", status).Msg("analysis failed")
		writeError(w, status, err.Error())
		return
	}

	if s.store != nil {
		if err := s.store.Save(report); err != nil {
			log.Error().Err(err).Str("run_id", report.RunID).Msg("saving run")
		}
	}

	s.wsHub.Broadcast(WSMessage{
		Type: "analysis_complete",
		Data: map[string]interface{}{
			"run_id": report.RunID,
			"ticker": report.Ticker,
		},
	})

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    report,
	})
}

// defaultRequest seeds the request body decode with the configured pipeline
// defaults, so omitted fields keep them.
func (s *Server) defaultRequest() models.Request {
	req := models.NewRequest("", "")
	p := s.cfg.Pipeline
	if p.LookbackDays > 0 {
		req.LookbackDays = p.LookbackDays
	}
	if p.EventWindowDays >= 0 {
		req.EventWindowDays = p.EventWindowDays
	}
	if p.MaxArticles > 0 {
		req.MaxArticles = p.MaxArticles
	}
	return req
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is disabled")
		return
	}

	limit := storage.DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	recs, err := s.store.List(r.URL.Query().Get("ticker"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	runs := make([]RunSummary, 0, len(recs))
	for _, rec := range recs {
		runs = append(runs, RunSummary{
			RunID:            rec.ID,
			Ticker:           rec.Report.Ticker,
			Company:          rec.Company,
			ArticlesAnalyzed: rec.Report.ArticlesAnalyzed,
			CreatedAt:        rec.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    runs,
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is disabled")
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "run id is required")
		return
	}

	report, err := s.store.Get(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    report,
	})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(agent.Mermaid()))
}

// ============================================================
// Helpers
// ============================================================

// statusFor maps a pipeline error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, agent.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, agent.ErrNoArticles):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return 499 // client closed request
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
