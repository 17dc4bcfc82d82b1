package api

import (
	"net/http"

	"github.com/seenimoa/newsimpact/internal/config"
)

// StatusResponse is returned by GET /api/v1/status. Keys are masked.
type StatusResponse struct {
	LLMPrimary   string             `json:"llm_primary"`
	LLMFallback  []string           `json:"llm_fallback"`
	Model        string             `json:"model"`
	NewsProvider string             `json:"news_provider"`
	PriceSource  string             `json:"price_provider"`
	Cache        string             `json:"cache"`
	HistoryPath  string             `json:"history_path,omitempty"`
	Keys         []config.KeyStatus `json:"keys"`
}

// NewStatus summarises the active configuration.
func NewStatus(cfg *config.Config) StatusResponse {
	cache := "memory"
	if cfg.Cache.RedisURL != "" {
		cache = "redis"
	}
	fallback := cfg.LLM.Fallback
	if fallback == nil {
		fallback = []string{}
	}
	return StatusResponse{
		LLMPrimary:   cfg.LLM.Primary,
		LLMFallback:  fallback,
		Model:        cfg.LLM.Model,
		NewsProvider: cfg.News.Provider,
		PriceSource:  cfg.Prices.Provider,
		Cache:        cache,
		HistoryPath:  cfg.Storage.Path,
		Keys:         config.CheckAPIKeys(cfg),
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    NewStatus(s.cfg),
	})
}
