package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

var anthropicModels = []string{
	"claude-sonnet-4-5",
	"claude-haiku-4-5",
	"claude-opus-4-1",
}

// AnthropicProvider implements LLMProvider over the Anthropic Messages API.
type AnthropicProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

// AnthropicOption configures the Anthropic provider.
type AnthropicOption func(*AnthropicProvider)

// WithAnthropicModel sets the default model.
func WithAnthropicModel(model string) AnthropicOption {
	return func(p *AnthropicProvider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithAnthropicMaxTokens sets the default completion budget.
func WithAnthropicMaxTokens(n int) AnthropicOption {
	return func(p *AnthropicProvider) {
		if n > 0 {
			p.maxTokens = n
		}
	}
}

// NewAnthropicProvider creates an Anthropic provider.
func NewAnthropicProvider(apiKey string, opts ...AnthropicOption) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	p := &AnthropicProvider{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     "claude-haiku-4-5",
		maxTokens: 4096,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *AnthropicProvider) Name() string     { return ProviderAnthropic }
func (p *AnthropicProvider) Models() []string { return anthropicModels }

// Ping sends a one-token request.
func (p *AnthropicProvider) Ping(ctx context.Context) error {
	_, err := p.Chat(ctx, []Message{UserMessage("ping")}, &ChatOptions{MaxTokens: 1})
	return err
}

// Chat sends a Messages API request. System messages are lifted into the
// request's system field.
func (p *AnthropicProvider) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	start := time.Now()
	model := p.model
	maxTokens := p.maxTokens
	if opts != nil {
		if opts.Model != "" {
			model = opts.Model
		}
		if opts.MaxTokens > 0 {
			maxTokens = opts.MaxTokens
		}
	}

	system, rest := splitSystem(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  make([]anthropic.MessageParam, 0, len(rest)),
	}
	for _, m := range rest {
		if m.Role == RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if opts != nil {
		if opts.Temperature != nil {
			params.Temperature = anthropic.Float(*opts.Temperature)
		}
		if len(opts.Stop) > 0 {
			params.StopSequences = opts.Stop
		}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, mapAnthropicError(ctx, err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	in, out := int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens)
	return &Response{
		Content:      text.String(),
		FinishReason: mapFinishReason(string(resp.StopReason)),
		Model:        string(resp.Model),
		Provider:     ProviderAnthropic,
		Latency:      time.Since(start),
		Usage:        Usage{PromptTokens: in, CompletionTokens: out, TotalTokens: in + out},
	}, nil
}

func mapAnthropicError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrNoAPIKey, err)
		case http.StatusTooManyRequests, 529:
			return fmt.Errorf("%w: %v", ErrRateLimit, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrInvalidModel, err)
		}
		return fmt.Errorf("anthropic: API error (%d): %w", apiErr.StatusCode, err)
	}
	return fmt.Errorf("%w: %v", ErrProviderDown, err)
}
