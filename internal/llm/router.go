package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/newsimpact/internal/config"
)

// Router routes LLM requests through a primary provider and an ordered
// fallback chain, retrying each provider a bounded number of times.
type Router struct {
	mu         sync.RWMutex
	providers  map[string]LLMProvider
	primary    string
	fallbacks  []string
	maxRetries int
	retryDelay time.Duration
}

// RouterOption configures the router.
type RouterOption func(*Router)

// WithFallbacks sets the fallback provider chain.
func WithFallbacks(providers ...string) RouterOption {
	return func(r *Router) { r.fallbacks = providers }
}

// WithMaxRetries sets the maximum number of retry attempts per provider.
func WithMaxRetries(n int) RouterOption {
	return func(r *Router) { r.maxRetries = n }
}

// WithRetryDelay sets the base delay between retries.
func WithRetryDelay(d time.Duration) RouterOption {
	return func(r *Router) { r.retryDelay = d }
}

// NewRouter creates a new LLM router with the given primary provider.
func NewRouter(primary string, opts ...RouterOption) *Router {
	r := &Router{
		providers:  make(map[string]LLMProvider),
		primary:    primary,
		maxRetries: 1,
		retryDelay: time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterProvider adds a provider to the router.
func (r *Router) RegisterProvider(provider LLMProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
}

// GetProvider returns a registered provider by name.
func (r *Router) GetProvider(name string) (LLMProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Primary returns the primary provider.
func (r *Router) Primary() (LLMProvider, error) {
	p, ok := r.GetProvider(r.primary)
	if !ok {
		return nil, fmt.Errorf("%w: primary provider %q not registered", ErrNoProviders, r.primary)
	}
	return p, nil
}

// Chat routes a chat request through the provider chain with fallback.
// It tries the primary provider first, then falls back in order.
func (r *Router) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	chain := r.providerChain()

	var lastErr error
	tried := 0
	for _, providerName := range chain {
		provider, ok := r.GetProvider(providerName)
		if !ok {
			continue
		}
		tried++

		resp, err := r.chatWithRetry(ctx, provider, messages, opts)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn().Str("provider", providerName).Err(err).Msg("llm provider failed, trying next")
	}

	if tried == 0 {
		return nil, ErrNoProviders
	}
	return nil, fmt.Errorf("llm/router: all providers failed, last error: %w", lastErr)
}

// HealthCheck pings every registered provider concurrently. The map holds
// nil for providers that answered.
func (r *Router) HealthCheck(ctx context.Context) map[string]error {
	r.mu.RLock()
	providers := make(map[string]LLMProvider, len(r.providers))
	for k, v := range r.providers {
		providers[k] = v
	}
	r.mu.RUnlock()

	results := make(map[string]error, len(providers))
	var mu sync.Mutex
	var g errgroup.Group
	for name, provider := range providers {
		g.Go(func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			err := provider.Ping(pingCtx)
			mu.Lock()
			results[name] = err
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Name returns the name of the primary provider (satisfies LLMProvider).
func (r *Router) Name() string {
	return "router/" + r.primary
}

// Models returns the union of models from all registered providers (satisfies LLMProvider).
func (r *Router) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []string
	seen := make(map[string]bool)
	for _, name := range r.chainLocked() {
		p, ok := r.providers[name]
		if !ok {
			continue
		}
		for _, m := range p.Models() {
			if !seen[m] {
				seen[m] = true
				all = append(all, m)
			}
		}
	}
	return all
}

// Ping checks the primary provider's health (satisfies LLMProvider).
func (r *Router) Ping(ctx context.Context) error {
	p, err := r.Primary()
	if err != nil {
		return err
	}
	return p.Ping(ctx)
}

// ProviderNames returns the registered providers in chain order.
func (r *Router) ProviderNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for _, name := range r.chainLocked() {
		if _, ok := r.providers[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// ── Internal Helpers ──

func (r *Router) providerChain() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.chainLocked()
}

func (r *Router) chainLocked() []string {
	chain := []string{r.primary}
	for _, fb := range r.fallbacks {
		if fb != r.primary {
			chain = append(chain, fb)
		}
	}
	return chain
}

func (r *Router) chatWithRetry(ctx context.Context, provider LLMProvider,
	messages []Message, opts *ChatOptions) (*Response, error) {

	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			delay := r.retryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := provider.Chat(ctx, messages, opts)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil || isNonRetryable(err) {
			return nil, err
		}
		log.Debug().Str("provider", provider.Name()).Int("attempt", attempt+1).Err(err).Msg("llm call failed")
	}
	return nil, lastErr
}

// isNonRetryable reports errors that will not improve on the same provider.
func isNonRetryable(err error) bool {
	return errors.Is(err, ErrNoAPIKey) ||
		errors.Is(err, ErrInvalidModel) ||
		errors.Is(err, ErrContextLength)
}

// NewRouterFromConfig builds a Router from the application config. The
// primary provider must be constructible; fallbacks that lack credentials
// are skipped with a warning.
func NewRouterFromConfig(ctx context.Context, cfg *config.Config) (*Router, error) {
	router := NewRouter(cfg.LLM.Primary,
		WithFallbacks(cfg.LLM.Fallback...),
		WithMaxRetries(cfg.LLM.Retries),
		WithRetryDelay(time.Second),
	)

	for _, name := range router.providerChain() {
		p, err := newProvider(ctx, name, cfg)
		if err != nil {
			if name == cfg.LLM.Primary {
				return nil, fmt.Errorf("llm: primary provider %q: %w", name, err)
			}
			log.Warn().Str("provider", name).Err(err).Msg("skipping fallback llm provider")
			continue
		}
		router.RegisterProvider(p)
	}
	return router, nil
}

func newProvider(ctx context.Context, name string, cfg *config.Config) (LLMProvider, error) {
	client := &http.Client{Timeout: cfg.LLM.Timeout}
	switch name {
	case ProviderOpenAI:
		// LiteLLM proxies accept any bearer token when auth is disabled.
		key := cfg.LLM.APIKey
		if key == "" {
			key = "dummy_key"
		}
		return NewOpenAIProvider(key,
			WithOpenAIBaseURL(cfg.LLM.BaseURL),
			WithOpenAIModel(cfg.LLM.Model),
			WithOpenAIHTTPClient(client),
		)
	case ProviderOllama:
		return NewOllamaProvider(cfg.LLM.Ollama.URL,
			WithOllamaModel(cfg.LLM.Ollama.Model),
			WithOllamaHTTPClient(client),
		)
	case ProviderAnthropic:
		return NewAnthropicProvider(cfg.LLM.Anthropic.APIKey,
			WithAnthropicModel(cfg.LLM.Anthropic.Model),
			WithAnthropicMaxTokens(cfg.LLM.MaxTokens),
		)
	case ProviderGemini:
		return NewGeminiProvider(ctx, cfg.LLM.Gemini.APIKey, cfg.LLM.Gemini.Model)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", name)
	}
}
