package llm

import (
	"context"
	"regexp"
	"strings"
)

// Prompt is a system/user message pair.
type Prompt struct {
	System string
	User   string
}

// Generator produces free text for a prompt. It is the only capability the
// pipeline needs from a model.
type Generator interface {
	GenerateText(ctx context.Context, p Prompt) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, p Prompt) (string, error)

// GenerateText calls f.
func (f GeneratorFunc) GenerateText(ctx context.Context, p Prompt) (string, error) {
	return f(ctx, p)
}

// ChatGenerator adapts an LLMProvider (usually a Router) to Generator.
type ChatGenerator struct {
	Provider LLMProvider
	Options  ChatOptions
}

// NewGenerator returns a Generator that sends prompts through provider
// with the given default options.
func NewGenerator(provider LLMProvider, opts ChatOptions) *ChatGenerator {
	return &ChatGenerator{Provider: provider, Options: opts}
}

// GenerateText sends the prompt as a two-message conversation and returns
// the reply with any reasoning block removed.
func (g *ChatGenerator) GenerateText(ctx context.Context, p Prompt) (string, error) {
	messages := make([]Message, 0, 2)
	if p.System != "" {
		messages = append(messages, SystemMessage(p.System))
	}
	messages = append(messages, UserMessage(p.User))

	opts := g.Options
	resp, err := g.Provider.Chat(ctx, messages, &opts)
	if err != nil {
		return "", err
	}
	return StripThinking(resp.Content), nil
}

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// StripThinking removes <think>...</think> reasoning blocks that some
// open-weight models emit ahead of their answer.
func StripThinking(s string) string {
	return strings.TrimSpace(thinkBlock.ReplaceAllString(s, ""))
}
