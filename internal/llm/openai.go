package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// openAIModels lists commonly served models. LiteLLM proxies expose whatever
// the deployment routes, so this is only a hint for the status command.
var openAIModels = []string{
	"qwen3-32b",
	"gpt-4o",
	"gpt-4o-mini",
	"llama-3.3-70b",
}

// OpenAIProvider implements LLMProvider for any OpenAI-compatible Chat
// Completions endpoint (OpenAI, LiteLLM, vLLM).
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// OpenAIOption configures the OpenAI provider.
type OpenAIOption func(*OpenAIProvider)

// WithOpenAIBaseURL sets a custom base URL (e.g., a LiteLLM proxy).
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(p *OpenAIProvider) {
		if url != "" {
			p.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithOpenAIModel sets the default model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(p *OpenAIProvider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithOpenAIHTTPClient sets a custom HTTP client.
func WithOpenAIHTTPClient(client *http.Client) OpenAIOption {
	return func(p *OpenAIProvider) { p.client = client }
}

// NewOpenAIProvider creates an OpenAI-compatible provider.
func NewOpenAIProvider(apiKey string, opts ...OpenAIOption) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	p := &OpenAIProvider{
		apiKey:  apiKey,
		baseURL: "https://api.openai.com/v1",
		model:   "gpt-4o-mini",
		client:  &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *OpenAIProvider) Name() string     { return ProviderOpenAI }
func (p *OpenAIProvider) Models() []string { return openAIModels }

// Ping verifies the endpoint and key by listing models.
func (p *OpenAIProvider) Ping(ctx context.Context) error {
	return exchangeJSON(ctx, p.client, http.MethodGet, p.baseURL+"/models", p.header(), nil, nil,
		func(status int, _ []byte) error {
			if status == http.StatusUnauthorized {
				return fmt.Errorf("%w: invalid API key", ErrNoAPIKey)
			}
			return statusOnly(status, nil)
		})
}

// Chat sends one chat completion request.
func (p *OpenAIProvider) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	start := time.Now()
	model := p.resolveModel(opts)

	var result openAIChatResponse
	err := exchangeJSON(ctx, p.client, http.MethodPost, p.baseURL+"/chat/completions", p.header(),
		p.buildRequest(messages, model, opts), &result, classifyOpenAIError)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("openai: %w", err)
	}
	return p.parseResponse(&result, model, start), nil
}

func (p *OpenAIProvider) header() http.Header {
	return http.Header{"Authorization": {"Bearer " + p.apiKey}}
}

// ── Internal Types ──

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature *float64        `json:"temperature,omitempty"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
	Stop        []string        `json:"stop,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	ID      string         `json:"id"`
	Choices []openAIChoice `json:"choices"`
	Usage   openAIUsage    `json:"usage"`
	Model   string         `json:"model"`
}

type openAIChoice struct {
	Index        int           `json:"index"`
	Message      openAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// ── Helpers ──

func (p *OpenAIProvider) resolveModel(opts *ChatOptions) string {
	if opts != nil && opts.Model != "" {
		return opts.Model
	}
	return p.model
}

func (p *OpenAIProvider) buildRequest(messages []Message, model string, opts *ChatOptions) openAIChatRequest {
	r := openAIChatRequest{
		Model:    model,
		Messages: make([]openAIMessage, len(messages)),
	}
	for i, m := range messages {
		r.Messages[i] = openAIMessage{Role: string(m.Role), Content: m.Content}
	}
	if opts != nil {
		r.Temperature = opts.Temperature
		if opts.MaxTokens > 0 {
			r.MaxTokens = &opts.MaxTokens
		}
		r.Stop = opts.Stop
	}
	return r
}

// classifyOpenAIError maps an error body to the package sentinels. The code
// field is a string on OpenAI and a number on some proxies.
func classifyOpenAIError(status int, body []byte) error {
	var apiErr openAIErrorResponse
	if json.Unmarshal(body, &apiErr) != nil || apiErr.Error.Message == "" {
		return fmt.Errorf("HTTP %d: %s", status, string(body))
	}
	msg := apiErr.Error.Message
	code := fmt.Sprint(apiErr.Error.Code)
	switch {
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrNoAPIKey, msg)
	case status == http.StatusTooManyRequests || status == 529:
		return fmt.Errorf("%w: %s", ErrRateLimit, msg)
	case strings.Contains(code, "context_length"):
		return fmt.Errorf("%w: %s", ErrContextLength, msg)
	case strings.Contains(code, "model_not_found"):
		return fmt.Errorf("%w: %s", ErrInvalidModel, msg)
	}
	return fmt.Errorf("API error (%d): %s", status, msg)
}

func (p *OpenAIProvider) parseResponse(raw *openAIChatResponse, model string, start time.Time) *Response {
	r := &Response{
		Model:    raw.Model,
		Provider: ProviderOpenAI,
		Latency:  time.Since(start),
		Usage: Usage{
			PromptTokens:     raw.Usage.PromptTokens,
			CompletionTokens: raw.Usage.CompletionTokens,
			TotalTokens:      raw.Usage.TotalTokens,
		},
	}
	if r.Model == "" {
		r.Model = model
	}
	if len(raw.Choices) > 0 {
		choice := raw.Choices[0]
		r.Content = choice.Message.Content
		r.FinishReason = mapFinishReason(choice.FinishReason)
	}
	return r
}

func mapFinishReason(reason string) FinishReason {
	switch reason {
	case "stop", "end_turn", "STOP":
		return FinishStop
	case "length", "max_tokens", "MAX_TOKENS":
		return FinishLength
	default:
		return FinishReason(reason)
	}
}
