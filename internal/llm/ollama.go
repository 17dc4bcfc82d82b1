package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ollamaModels lists commonly used Ollama models.
var ollamaModels = []string{
	"qwen3:8b",
	"qwen3:32b",
	"qwen2.5:7b",
	"llama3.1:8b",
	"mistral:7b",
}

// OllamaProvider implements LLMProvider for local Ollama instances.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

// OllamaOption configures the Ollama provider.
type OllamaOption func(*OllamaProvider)

// WithOllamaModel sets the default model.
func WithOllamaModel(model string) OllamaOption {
	return func(p *OllamaProvider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithOllamaHTTPClient sets a custom HTTP client.
func WithOllamaHTTPClient(client *http.Client) OllamaOption {
	return func(p *OllamaProvider) { p.client = client }
}

// NewOllamaProvider creates an Ollama provider.
// baseURL is the Ollama server URL (e.g., "http://localhost:11434").
func NewOllamaProvider(baseURL string, opts ...OllamaOption) (*OllamaProvider, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	p := &OllamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   "qwen3:8b",
		client:  &http.Client{Timeout: 300 * time.Second}, // longer timeout for local models
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *OllamaProvider) Name() string     { return ProviderOllama }
func (p *OllamaProvider) Models() []string { return ollamaModels }

// Ping checks that the Ollama server answers the model listing.
func (p *OllamaProvider) Ping(ctx context.Context) error {
	return exchangeJSON(ctx, p.client, http.MethodGet, p.baseURL+"/api/tags", nil, nil, nil, statusOnly)
}

// Chat sends a non-streaming request to /api/chat. A 404 means the model is
// not pulled.
func (p *OllamaProvider) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	start := time.Now()
	model := p.model
	if opts != nil && opts.Model != "" {
		model = opts.Model
	}

	var result ollamaChatResponse
	err := exchangeJSON(ctx, p.client, http.MethodPost, p.baseURL+"/api/chat", nil,
		p.buildRequest(messages, model, opts), &result,
		func(status int, body []byte) error {
			if status == http.StatusNotFound {
				return fmt.Errorf("%w: %s", ErrInvalidModel, body)
			}
			return fmt.Errorf("HTTP %d: %s", status, body)
		})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("ollama: %w", err)
	}

	if result.Model == "" {
		result.Model = model
	}
	return &Response{
		Model:    result.Model,
		Provider: ProviderOllama,
		Latency:  time.Since(start),
		Content:  result.Message.Content,
		Usage: Usage{
			PromptTokens:     result.PromptEvalCount,
			CompletionTokens: result.EvalCount,
			TotalTokens:      result.PromptEvalCount + result.EvalCount,
		},
		FinishReason: mapFinishReason(result.DoneReason),
	}, nil
}

// ── Internal Types ──

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type ollamaChatResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	DoneReason      string        `json:"done_reason"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

func (p *OllamaProvider) buildRequest(messages []Message, model string, opts *ChatOptions) ollamaChatRequest {
	r := ollamaChatRequest{
		Model:    model,
		Messages: make([]ollamaMessage, len(messages)),
	}
	for i, m := range messages {
		r.Messages[i] = ollamaMessage{Role: string(m.Role), Content: m.Content}
	}
	if opts != nil && (opts.Temperature != nil || opts.MaxTokens > 0 || len(opts.Stop) > 0) {
		r.Options = &ollamaOptions{
			Temperature: opts.Temperature,
			NumPredict:  opts.MaxTokens,
			Stop:        opts.Stop,
		}
	}
	return r
}
