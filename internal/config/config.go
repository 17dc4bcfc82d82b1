// Package config handles configuration loading for newsimpact.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	LLM       LLMConfig       `mapstructure:"llm"       yaml:"llm"`
	Retriever RetrieverConfig `mapstructure:"retriever" yaml:"retriever"`
	News      NewsConfig      `mapstructure:"news"      yaml:"news"`
	Prices    PricesConfig    `mapstructure:"prices"    yaml:"prices"`
	HTTP      HTTPConfig      `mapstructure:"http"      yaml:"http"`
	Cache     CacheConfig     `mapstructure:"cache"     yaml:"cache"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"  yaml:"pipeline"`
	Storage   StorageConfig   `mapstructure:"storage"   yaml:"storage"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Primary     string         `mapstructure:"primary"     yaml:"primary"`  // "openai", "ollama", "gemini", "anthropic"
	Fallback    []string       `mapstructure:"fallback"    yaml:"fallback"` // tried in order after primary
	BaseURL     string         `mapstructure:"base_url"    yaml:"base_url"` // OpenAI-compatible endpoint (LiteLLM)
	APIKey      string         `mapstructure:"api_key"     yaml:"api_key"`
	Model       string         `mapstructure:"model"       yaml:"model"`
	Temperature float64        `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int            `mapstructure:"max_tokens"  yaml:"max_tokens"`
	Timeout     time.Duration  `mapstructure:"timeout"     yaml:"timeout"`
	Retries     int            `mapstructure:"retries"     yaml:"retries"` // per provider, inside the router
	Anthropic   ProviderConfig `mapstructure:"anthropic"   yaml:"anthropic"`
	Gemini      ProviderConfig `mapstructure:"gemini"      yaml:"gemini"`
	Ollama      OllamaConfig   `mapstructure:"ollama"      yaml:"ollama"`
}

// ProviderConfig holds credentials and model for an SDK-backed provider.
type ProviderConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
	Model  string `mapstructure:"model"   yaml:"model"`
}

// OllamaConfig holds local Ollama settings.
type OllamaConfig struct {
	URL   string `mapstructure:"url"   yaml:"url"`
	Model string `mapstructure:"model" yaml:"model"`
}

// RetrieverConfig controls structured-output retries.
type RetrieverConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"   yaml:"base_delay"`
}

// NewsConfig selects and configures the news search backend.
type NewsConfig struct {
	Provider   string        `mapstructure:"provider"    yaml:"provider"` // "gdelt" or "rss"
	GDELTBase  string        `mapstructure:"gdelt_base"  yaml:"gdelt_base"`
	RSSURL     string        `mapstructure:"rss_url"     yaml:"rss_url"` // "{query}" is replaced
	Retries    int           `mapstructure:"retries"     yaml:"retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
}

// PricesConfig selects and configures the price backend.
type PricesConfig struct {
	Provider  string `mapstructure:"provider"   yaml:"provider"` // "stooq" or "yahoo"
	StooqBase string `mapstructure:"stooq_base" yaml:"stooq_base"`
	YahooBase string `mapstructure:"yahoo_base" yaml:"yahoo_base"`
}

// HTTPConfig holds outbound HTTP client settings.
type HTTPConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"             yaml:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	UserAgent         string        `mapstructure:"user_agent"          yaml:"user_agent"`
}

// CacheConfig holds response cache settings. An empty RedisURL selects the
// in-memory cache.
type CacheConfig struct {
	RedisURL string        `mapstructure:"redis_url" yaml:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"       yaml:"ttl"`
}

// PipelineConfig holds orchestration settings.
type PipelineConfig struct {
	LookbackDays    int  `mapstructure:"lookback_days"     yaml:"lookback_days"`
	EventWindowDays int  `mapstructure:"event_window_days" yaml:"event_window_days"`
	MaxArticles     int  `mapstructure:"max_articles"      yaml:"max_articles"` // annotation cap
	Concurrency     int  `mapstructure:"concurrency"       yaml:"concurrency"`
	MaxIterations   int  `mapstructure:"max_iterations"    yaml:"max_iterations"`
	AllowPartial    bool `mapstructure:"allow_partial"     yaml:"allow_partial"`
}

// StorageConfig holds run history settings. An empty Path disables history.
type StorageConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "trace", "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "console" or "json"
	File   string `mapstructure:"file"   yaml:"file"`   // optional JSON log file
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config.yaml
//  2. ./config/config.yaml
//  3. ~/.newsimpact/config.yaml
//
// Environment variables override config file values.
// Format: NEWSIMPACT_<SECTION>_<KEY>, e.g., NEWSIMPACT_LLM_MODEL
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".newsimpact"))

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return decode(v)
}

// Default returns the built-in defaults with no config file. It still reads
// NEWSIMPACT_* and the legacy variables from the process environment, so
// callers needing fixed values must clear those first.
func Default() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		// defaults always decode
		panic(err)
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("NEWSIMPACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// LLM defaults
	v.SetDefault("llm.primary", "openai")
	v.SetDefault("llm.fallback", []string{})
	v.SetDefault("llm.base_url", "http://localhost:4000/v1")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "qwen3-32b")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.timeout", 120*time.Second)
	v.SetDefault("llm.retries", 1)
	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.model", "claude-3-5-haiku-latest")
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.model", "gemini-2.0-flash")
	v.SetDefault("llm.ollama.url", "http://localhost:11434")
	v.SetDefault("llm.ollama.model", "qwen3:8b")

	// Structured output retries
	v.SetDefault("retriever.max_attempts", 4)
	v.SetDefault("retriever.base_delay", 400*time.Millisecond)

	// Collaborators
	v.SetDefault("news.provider", "gdelt")
	v.SetDefault("news.gdelt_base", "https://api.gdeltproject.org/api/v2/doc/doc")
	v.SetDefault("news.rss_url", "https://news.google.com/rss/search?q={query}&hl=en-US&gl=US&ceid=US:en")
	v.SetDefault("news.retries", 3)
	v.SetDefault("news.retry_delay", 500*time.Millisecond)
	v.SetDefault("prices.provider", "stooq")
	v.SetDefault("prices.stooq_base", "https://stooq.com/q/d/l/")
	v.SetDefault("prices.yahoo_base", "https://query1.finance.yahoo.com")

	v.SetDefault("http.timeout", 20*time.Second)
	v.SetDefault("http.requests_per_second", 2.0)
	v.SetDefault("http.user_agent", "newsimpact/1.0")

	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", 15*time.Minute)

	// Pipeline defaults
	v.SetDefault("pipeline.lookback_days", 7)
	v.SetDefault("pipeline.event_window_days", 1)
	v.SetDefault("pipeline.max_articles", 30)
	v.SetDefault("pipeline.concurrency", 6)
	v.SetDefault("pipeline.max_iterations", 8)
	v.SetDefault("pipeline.allow_partial", false)

	v.SetDefault("storage.path", "data/runs")

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"*"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "")
}

// overrideFromEnv reads secrets and the unprefixed variable names used by
// existing LiteLLM deployments.
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("LITELLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LITELLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("MODEL_NAME"); v != "" {
		cfg.LLM.Model = v
	}
	if f, ok := envFloat("LLM_TEMPERATURE"); ok {
		cfg.LLM.Temperature = f
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && cfg.LLM.Anthropic.APIKey == "" {
		cfg.LLM.Anthropic.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && cfg.LLM.Gemini.APIKey == "" {
		cfg.LLM.Gemini.APIKey = v
	}
	if v := os.Getenv("GDELT_BASE"); v != "" {
		cfg.News.GDELTBase = v
	}
	if v := os.Getenv("STOOQ_BASE"); v != "" {
		cfg.Prices.StooqBase = v
	}
	if f, ok := envFloat("HTTP_TIMEOUT"); ok && f > 0 {
		cfg.HTTP.Timeout = time.Duration(f * float64(time.Second))
	}
	if n, ok := envInt("HTTP_RETRIES"); ok && n > 0 {
		cfg.News.Retries = n
	}
	if n, ok := envInt("EVENT_WINDOW_DAYS"); ok && n >= 0 {
		cfg.Pipeline.EventWindowDays = n
	}
	if n, ok := envInt("MAX_ARTICLES"); ok && n > 0 {
		cfg.Pipeline.MaxArticles = n
	}
	if v := os.Getenv("REDIS_URL"); v != "" && cfg.Cache.RedisURL == "" {
		cfg.Cache.RedisURL = v
	}
}

func envFloat(name string) (float64, bool) {
	s := os.Getenv(name)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func envInt(name string) (int, bool) {
	s := os.Getenv(name)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
