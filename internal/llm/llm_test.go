package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/seenimoa/newsimpact/internal/config"
)

// ════════════════════════════════════════════════════════════════════
// provider.go: Types & Helpers
// ════════════════════════════════════════════════════════════════════

func TestMessageConstructors(t *testing.T) {
	tests := []struct {
		msg  Message
		role Role
	}{
		{SystemMessage("sys"), RoleSystem},
		{UserMessage("hi"), RoleUser},
		{AssistantMessage("hello"), RoleAssistant},
	}
	for _, tt := range tests {
		if tt.msg.Role != tt.role {
			t.Errorf("role = %s, want %s", tt.msg.Role, tt.role)
		}
	}
}

func TestResponseString(t *testing.T) {
	r := &Response{
		Content:  strings.Repeat("x", 150),
		Provider: "openai",
		Model:    "qwen3-32b",
		Usage:    Usage{TotalTokens: 42},
		Latency:  1500 * time.Millisecond,
	}
	s := r.String()
	if !strings.Contains(s, "openai/qwen3-32b") || !strings.Contains(s, "42 tokens") {
		t.Fatalf("unexpected String(): %s", s)
	}
	if !strings.Contains(s, "...") {
		t.Fatal("long content should be truncated")
	}
}

func TestSplitSystem(t *testing.T) {
	system, rest := splitSystem([]Message{
		SystemMessage("a"),
		UserMessage("q"),
		SystemMessage("b"),
	})
	if system != "a\n\nb" {
		t.Fatalf("system = %q", system)
	}
	if len(rest) != 1 || rest[0].Content != "q" {
		t.Fatalf("rest = %+v", rest)
	}
}

func TestMapFinishReason(t *testing.T) {
	tests := map[string]FinishReason{
		"stop":       FinishStop,
		"end_turn":   FinishStop,
		"STOP":       FinishStop,
		"length":     FinishLength,
		"max_tokens": FinishLength,
		"other":      FinishReason("other"),
	}
	for in, want := range tests {
		if got := mapFinishReason(in); got != want {
			t.Errorf("mapFinishReason(%q) = %q, want %q", in, got, want)
		}
	}
}

// ════════════════════════════════════════════════════════════════════
// tools.go: Schema helpers
// ════════════════════════════════════════════════════════════════════

func TestJSONSchemaHelpers(t *testing.T) {
	schema := ObjectSchema("args", map[string]*JSONSchema{
		"ticker": StringProp("symbol"),
		"days":   IntProp("lookback", 1),
		"from":   DayProp("first day"),
		"start":  TimestampProp("window start"),
	}, "ticker")

	if schema.Type != "object" || len(schema.Properties) != 4 {
		t.Fatalf("unexpected schema: %+v", schema)
	}
	if m := schema.Properties["days"].Minimum; m == nil || *m != 1 {
		t.Fatalf("minimum = %v, want 1", m)
	}
	if schema.Properties["from"].Pattern != DayPattern {
		t.Fatal("day pattern lost")
	}
	if schema.Properties["start"].Pattern != TimestampPattern {
		t.Fatal("timestamp pattern lost")
	}
}

func TestDescribeTools(t *testing.T) {
	out := DescribeTools([]Tool{
		{
			Name:        "search_news",
			Description: "Search news",
			Parameters: ObjectSchema("", map[string]*JSONSchema{
				"query":       StringProp("company name"),
				"max_records": IntProp("limit", 1),
			}, "query"),
		},
		{Name: "none", Description: "Stop"},
	})

	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), out)
	}
	if lines[0] != "- search_news: Search news" {
		t.Fatalf("line 0 = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "  args (max_records, query*): ") {
		t.Fatalf("line 1 = %q", lines[1])
	}
	if !strings.Contains(lines[1], `"query":{"type":"string","description":"company name"}`) {
		t.Fatalf("line 1 = %q", lines[1])
	}
	if lines[2] != "- none: Stop" {
		t.Fatalf("line 2 = %q", lines[2])
	}
}

// ════════════════════════════════════════════════════════════════════
// openai.go: OpenAI-compatible provider
// ════════════════════════════════════════════════════════════════════

func TestOpenAIProviderNew(t *testing.T) {
	_, err := NewOpenAIProvider("")
	if err != ErrNoAPIKey {
		t.Fatalf("expected ErrNoAPIKey, got: %v", err)
	}

	p, err := NewOpenAIProvider("sk-test", WithOpenAIModel("qwen3-32b"), WithOpenAIBaseURL("http://litellm:4000/v1/"))
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "openai" || p.model != "qwen3-32b" || p.baseURL != "http://litellm:4000/v1" {
		t.Fatalf("unexpected config: %+v", p)
	}
	if len(p.Models()) == 0 {
		t.Fatal("Models() should not be empty")
	}
}

func TestOpenAIChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Error("missing auth header")
		}

		var req openAIChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "qwen3-32b" {
			t.Errorf("unexpected model: %s", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		json.NewEncoder(w).Encode(openAIChatResponse{
			Choices: []openAIChoice{{
				Message:      openAIMessage{Role: "assistant", Content: `{"sentiment":"positive"}`},
				FinishReason: "stop",
			}},
			Usage: openAIUsage{PromptTokens: 20, CompletionTokens: 10, TotalTokens: 30},
			Model: "qwen3-32b",
		})
	}))
	defer server.Close()

	p, _ := NewOpenAIProvider("sk-test", WithOpenAIBaseURL(server.URL), WithOpenAIModel("qwen3-32b"))
	resp, err := p.Chat(context.Background(),
		[]Message{SystemMessage("You are an analyst."), UserMessage("Rate this headline.")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != `{"sentiment":"positive"}` {
		t.Fatalf("unexpected content: %s", resp.Content)
	}
	if resp.Provider != "openai" || resp.Usage.TotalTokens != 30 || resp.FinishReason != FinishStop {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestOpenAIChatSendsZeroTemperature(t *testing.T) {
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	p, _ := NewOpenAIProvider("sk-test", WithOpenAIBaseURL(server.URL))
	_, err := p.Chat(context.Background(), []Message{UserMessage("x")},
		&ChatOptions{Model: "override", Temperature: Float(0), MaxTokens: 64})
	if err != nil {
		t.Fatal(err)
	}
	if temp, ok := raw["temperature"]; !ok || temp.(float64) != 0 {
		t.Fatalf("temperature not sent: %v", raw)
	}
	if raw["model"] != "override" || raw["max_tokens"].(float64) != 64 {
		t.Fatalf("options not applied: %v", raw)
	}
}

func TestOpenAIErrorHandling(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		want       error
	}{
		{"unauthorized", 401, `{"error":{"message":"Invalid key","code":"invalid_api_key"}}`, ErrNoAPIKey},
		{"rate_limit", 429, `{"error":{"message":"Rate limit exceeded"}}`, ErrRateLimit},
		{"context_length", 400, `{"error":{"message":"Too many tokens","code":"context_length_exceeded"}}`, ErrContextLength},
		{"model_not_found", 404, `{"error":{"message":"Model not found","code":"model_not_found"}}`, ErrInvalidModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p, _ := NewOpenAIProvider("sk-test", WithOpenAIBaseURL(server.URL))
			_, err := p.Chat(context.Background(), []Message{UserMessage("test")}, nil)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got: %v", tt.want, err)
			}
		})
	}
}

func TestOpenAIErrorNumericCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		w.Write([]byte(`{"error":{"message":"upstream exploded","code":500}}`))
	}))
	defer server.Close()

	p, _ := NewOpenAIProvider("sk-test", WithOpenAIBaseURL(server.URL))
	_, err := p.Chat(context.Background(), []Message{UserMessage("test")}, nil)
	if err == nil || !strings.Contains(err.Error(), "upstream exploded") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOpenAIPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	p, _ := NewOpenAIProvider("sk-test", WithOpenAIBaseURL(server.URL))
	if err := p.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

// ════════════════════════════════════════════════════════════════════
// ollama.go: Ollama provider
// ════════════════════════════════════════════════════════════════════

func TestOllamaProviderNew(t *testing.T) {
	p, err := NewOllamaProvider("", WithOllamaModel("qwen3:32b"))
	if err != nil {
		t.Fatal(err)
	}
	if p.baseURL != "http://localhost:11434" || p.model != "qwen3:32b" {
		t.Fatalf("unexpected config: %+v", p)
	}
}

func TestOllamaChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req ollamaChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Stream {
			t.Error("stream should be false")
		}
		if req.Options == nil || req.Options.Temperature == nil || *req.Options.Temperature != 0 {
			t.Errorf("temperature not forwarded: %+v", req.Options)
		}
		w.Write([]byte(`{"model":"qwen3:8b","message":{"role":"assistant","content":"hello"},"done":true,"done_reason":"stop","prompt_eval_count":5,"eval_count":3}`))
	}))
	defer server.Close()

	p, _ := NewOllamaProvider(server.URL)
	resp, err := p.Chat(context.Background(), []Message{UserMessage("hi")}, &ChatOptions{Temperature: Float(0)})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != "hello" || resp.Usage.TotalTokens != 8 || resp.FinishReason != FinishStop {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestOllamaModelNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer server.Close()

	p, _ := NewOllamaProvider(server.URL)
	_, err := p.Chat(context.Background(), []Message{UserMessage("hi")}, nil)
	if !errors.Is(err, ErrInvalidModel) {
		t.Fatalf("expected ErrInvalidModel, got %v", err)
	}
}

func TestOllamaPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	p, _ := NewOllamaProvider(server.URL)
	if err := p.Ping(context.Background()); err != nil {
		t.Fatal(err)
	}
}

// ════════════════════════════════════════════════════════════════════
// anthropic.go / gemini.go: SDK providers
// ════════════════════════════════════════════════════════════════════

func TestSDKProvidersRequireKey(t *testing.T) {
	if _, err := NewAnthropicProvider(""); err != ErrNoAPIKey {
		t.Fatalf("anthropic: expected ErrNoAPIKey, got %v", err)
	}
	if _, err := NewGeminiProvider(context.Background(), "", ""); err != ErrNoAPIKey {
		t.Fatalf("gemini: expected ErrNoAPIKey, got %v", err)
	}
}

func TestAnthropicProviderOptions(t *testing.T) {
	p, err := NewAnthropicProvider("sk-ant", WithAnthropicModel("claude-sonnet-4-5"), WithAnthropicMaxTokens(512))
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != ProviderAnthropic || p.model != "claude-sonnet-4-5" || p.maxTokens != 512 {
		t.Fatalf("unexpected config: %+v", p)
	}
}

// ════════════════════════════════════════════════════════════════════
// router.go: Router tests
// ════════════════════════════════════════════════════════════════════

// mockProvider implements LLMProvider for testing the router.
type mockProvider struct {
	name     string
	chatFunc func(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error)
	pingErr  error
}

func (m *mockProvider) Name() string                   { return m.name }
func (m *mockProvider) Models() []string               { return []string{m.name + "-model"} }
func (m *mockProvider) Ping(ctx context.Context) error { return m.pingErr }
func (m *mockProvider) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	if m.chatFunc != nil {
		return m.chatFunc(ctx, messages, opts)
	}
	return &Response{Content: "mock response", Provider: m.name}, nil
}

func TestRouterBasic(t *testing.T) {
	r := NewRouter("primary", WithFallbacks("backup"))
	r.RegisterProvider(&mockProvider{name: "backup"})
	r.RegisterProvider(&mockProvider{name: "primary"})

	p, err := r.Primary()
	if err != nil || p.Name() != "primary" {
		t.Fatalf("Primary: %v, %v", p, err)
	}

	names := r.ProviderNames()
	if len(names) != 2 || names[0] != "primary" || names[1] != "backup" {
		t.Fatalf("ProviderNames: %v", names)
	}
	if models := r.Models(); len(models) != 2 || models[0] != "primary-model" {
		t.Fatalf("Models: %v", models)
	}
}

func TestRouterFallback(t *testing.T) {
	callCount := 0
	r := NewRouter("primary", WithFallbacks("backup"), WithMaxRetries(0))
	r.RegisterProvider(&mockProvider{
		name: "primary",
		chatFunc: func(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
			callCount++
			return nil, fmt.Errorf("%w: primary down", ErrProviderDown)
		},
	})
	r.RegisterProvider(&mockProvider{
		name: "backup",
		chatFunc: func(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
			callCount++
			return &Response{Content: "from backup", Provider: "backup"}, nil
		},
	})

	resp, err := r.Chat(context.Background(), []Message{UserMessage("test")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != "from backup" {
		t.Fatalf("expected fallback response, got: %+v", resp)
	}
	if callCount != 2 {
		t.Fatalf("expected 2 calls (primary + backup), got %d", callCount)
	}
}

func TestRouterRetriesBeforeFallback(t *testing.T) {
	attempts := 0
	r := NewRouter("a", WithMaxRetries(2), WithRetryDelay(time.Millisecond))
	r.RegisterProvider(&mockProvider{
		name: "a",
		chatFunc: func(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
			attempts++
			if attempts < 3 {
				return nil, ErrRateLimit
			}
			return &Response{Content: "third time"}, nil
		},
	})

	resp, err := r.Chat(context.Background(), []Message{UserMessage("x")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if attempts != 3 || resp.Content != "third time" {
		t.Fatalf("attempts=%d resp=%+v", attempts, resp)
	}
}

func TestRouterNonRetryableSkipsRetries(t *testing.T) {
	attempts := 0
	r := NewRouter("a", WithMaxRetries(3), WithRetryDelay(time.Millisecond))
	r.RegisterProvider(&mockProvider{
		name: "a",
		chatFunc: func(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
			attempts++
			return nil, fmt.Errorf("%w: bad key", ErrNoAPIKey)
		},
	})

	_, err := r.Chat(context.Background(), []Message{UserMessage("x")}, nil)
	if !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestRouterNoProviders(t *testing.T) {
	r := NewRouter("missing")
	_, err := r.Chat(context.Background(), []Message{UserMessage("x")}, nil)
	if !errors.Is(err, ErrNoProviders) {
		t.Fatalf("expected ErrNoProviders, got %v", err)
	}
}

func TestRouterHealthCheck(t *testing.T) {
	r := NewRouter("ok", WithFallbacks("down"))
	r.RegisterProvider(&mockProvider{name: "ok"})
	r.RegisterProvider(&mockProvider{name: "down", pingErr: ErrProviderDown})

	results := r.HealthCheck(context.Background())
	if results["ok"] != nil || !errors.Is(results["down"], ErrProviderDown) {
		t.Fatalf("unexpected results: %v", results)
	}
}

// testConfig returns defaults unaffected by provider keys in the process env.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	for _, e := range []string{
		"LITELLM_BASE_URL", "LITELLM_API_KEY", "MODEL_NAME", "ANTHROPIC_API_KEY", "GEMINI_API_KEY",
		"NEWSIMPACT_LLM_API_KEY", "NEWSIMPACT_LLM_MODEL", "NEWSIMPACT_LLM_PRIMARY",
	} {
		t.Setenv(e, "")
	}
	cfg := config.Default()
	cfg.LLM.Anthropic.APIKey = ""
	cfg.LLM.Gemini.APIKey = ""
	return cfg
}

func TestNewRouterFromConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.Primary = ProviderOpenAI
	cfg.LLM.Fallback = []string{ProviderAnthropic, ProviderOllama}
	cfg.LLM.APIKey = ""

	r, err := NewRouterFromConfig(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	// anthropic has no key and is skipped
	names := r.ProviderNames()
	if len(names) != 2 || names[0] != ProviderOpenAI || names[1] != ProviderOllama {
		t.Fatalf("ProviderNames: %v", names)
	}
	p, _ := r.GetProvider(ProviderOpenAI)
	if p.(*OpenAIProvider).apiKey != "dummy_key" {
		t.Fatal("empty key should fall back to dummy_key")
	}
}

func TestNewRouterFromConfigPrimaryMissingKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.Primary = ProviderGemini
	cfg.LLM.Gemini.APIKey = ""

	if _, err := NewRouterFromConfig(context.Background(), cfg); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestRouterSendsEachProviderItsOwnModel(t *testing.T) {
	var openaiModel, ollamaModel string
	openai := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openAIChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		openaiModel = req.Model
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer openai.Close()
	ollama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		ollamaModel = req.Model
		w.Write([]byte(`{"message":{"role":"assistant","content":"ok"},"done":true,"done_reason":"stop"}`))
	}))
	defer ollama.Close()

	cfg := testConfig(t)
	cfg.LLM.Primary = ProviderOpenAI
	cfg.LLM.Fallback = []string{ProviderOllama}
	cfg.LLM.Retries = 0
	cfg.LLM.BaseURL = openai.URL
	cfg.LLM.Model = "qwen3-32b"
	cfg.LLM.Ollama.URL = ollama.URL
	cfg.LLM.Ollama.Model = "llama3.1"

	r, err := NewRouterFromConfig(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	gen := NewGenerator(r, ChatOptions{Temperature: Float(cfg.LLM.Temperature), MaxTokens: cfg.LLM.MaxTokens})
	out, err := gen.GenerateText(context.Background(), Prompt{User: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "ok" {
		t.Fatalf("unexpected output: %q", out)
	}
	if openaiModel != "qwen3-32b" {
		t.Errorf("openai received model %q, want qwen3-32b", openaiModel)
	}
	if ollamaModel != "llama3.1" {
		t.Errorf("ollama received model %q, want llama3.1", ollamaModel)
	}
}

// ════════════════════════════════════════════════════════════════════
// generator.go: Text generation
// ════════════════════════════════════════════════════════════════════

func TestChatGenerator(t *testing.T) {
	var got []Message
	var gotOpts *ChatOptions
	provider := &mockProvider{
		name: "m",
		chatFunc: func(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
			got = messages
			gotOpts = opts
			return &Response{Content: "<think>\nlet me see\n</think>\n{\"ok\":true}"}, nil
		},
	}

	g := NewGenerator(provider, ChatOptions{Temperature: Float(0)})
	out, err := g.GenerateText(context.Background(), Prompt{System: "sys", User: "usr"})
	if err != nil {
		t.Fatal(err)
	}
	if out != `{"ok":true}` {
		t.Fatalf("unexpected output: %q", out)
	}
	if len(got) != 2 || got[0].Role != RoleSystem || got[1].Content != "usr" {
		t.Fatalf("unexpected messages: %+v", got)
	}
	if gotOpts == nil || *gotOpts.Temperature != 0 {
		t.Fatalf("options not forwarded: %+v", gotOpts)
	}
}

func TestChatGeneratorNoSystem(t *testing.T) {
	var got []Message
	provider := &mockProvider{
		name: "m",
		chatFunc: func(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
			got = messages
			return &Response{Content: "x"}, nil
		},
	}
	if _, err := NewGenerator(provider, ChatOptions{}).GenerateText(context.Background(), Prompt{User: "u"}); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Role != RoleUser {
		t.Fatalf("unexpected messages: %+v", got)
	}
}

func TestStripThinking(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain", "plain"},
		{"<think>a</think>b", "b"},
		{"<think>x\ny</think>  {\"a\":1} ", `{"a":1}`},
		{"<think>1</think>mid<think>2</think>end", "midend"},
	}
	for _, tt := range tests {
		if got := StripThinking(tt.in); got != tt.want {
			t.Errorf("StripThinking(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGeneratorFunc(t *testing.T) {
	var g Generator = GeneratorFunc(func(ctx context.Context, p Prompt) (string, error) {
		return p.System + "|" + p.User, nil
	})
	out, _ := g.GenerateText(context.Background(), Prompt{System: "s", User: "u"})
	if out != "s|u" {
		t.Fatalf("got %q", out)
	}
}
