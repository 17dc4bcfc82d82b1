// Package structured turns free-text model output into validated, typed
// values. Models are unreliable about emitting only JSON, so each attempt
// parses the whole reply first and then the outermost {...} span, and a
// bounded number of attempts are made with exponential backoff.
package structured

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/phuslu/log"

	"github.com/seenimoa/newsimpact/internal/infra"
	"github.com/seenimoa/newsimpact/internal/llm"
)

// Default retry settings.
const (
	DefaultMaxAttempts = 4
	DefaultBaseDelay   = 400 * time.Millisecond
	previewRunes       = 400
)

var (
	// ErrValidationExhausted is matched by every *ExhaustedError.
	ErrValidationExhausted = errors.New("structured: validation exhausted")

	errEmptyOutput = errors.New("empty generator output")
	errNoObject    = errors.New("no JSON object found in output")
)

// ExhaustedError reports a retrieval that never produced a valid value.
type ExhaustedError struct {
	Schema   string
	Attempts int
	Preview  string // first 400 runes of the last raw output
	Err      error  // last underlying failure
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("structured: %s not produced after %d attempts: %v (last output: %q)",
		e.Schema, e.Attempts, e.Err, e.Preview)
}

// Is makes errors.Is(err, ErrValidationExhausted) succeed.
func (e *ExhaustedError) Is(target error) bool { return target == ErrValidationExhausted }

// Unwrap exposes the last underlying failure.
func (e *ExhaustedError) Unwrap() error { return e.Err }

// Defaulter is implemented by target types that carry defaults which must
// survive fields the model omits.
type Defaulter interface {
	ApplyDefaults()
}

// Retriever holds the generator and retry policy shared by every call.
type Retriever struct {
	gen         llm.Generator
	validate    *validator.Validate
	maxAttempts int
	baseDelay   time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithMaxAttempts sets the number of generator calls per retrieval.
func WithMaxAttempts(n int) Option {
	return func(r *Retriever) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithBaseDelay sets the first backoff delay; attempt i waits base*2^i.
func WithBaseDelay(d time.Duration) Option {
	return func(r *Retriever) {
		if d >= 0 {
			r.baseDelay = d
		}
	}
}

// WithSleep replaces the backoff sleep, for tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Retriever) { r.sleep = fn }
}

// New creates a Retriever around gen.
func New(gen llm.Generator, opts ...Option) *Retriever {
	r := &Retriever{
		gen:         gen,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		sleep:       infra.Sleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve asks the generator for a T until one parses and validates or the
// attempts run out. Context cancellation is returned immediately.
func Retrieve[T any](ctx context.Context, r *Retriever, p llm.Prompt) (*T, error) {
	schema := schemaName[T]()
	var (
		lastErr error
		lastRaw string
	)

	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := r.sleep(ctx, infra.Backoff(r.baseDelay, attempt-1)); err != nil {
				return nil, err
			}
		}

		raw, err := r.gen.GenerateText(ctx, p)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			lastErr = fmt.Errorf("generate: %w", err)
		} else {
			lastRaw = raw
			var v *T
			v, err = decode[T](r.validate, raw)
			if err == nil {
				return v, nil
			}
			lastErr = err
		}

		log.Debug().Str("schema", schema).Int("attempt", attempt+1).Err(lastErr).Msg("structured output rejected")
	}

	return nil, &ExhaustedError{
		Schema:   schema,
		Attempts: r.maxAttempts,
		Preview:  preview(lastRaw),
		Err:      lastErr,
	}
}

// decode parses raw into a fresh T, trying the whole text first and the
// span from the first '{' to the last '}' second, then validates it.
func decode[T any](validate *validator.Validate, raw string) (*T, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, errEmptyOutput
	}

	v, err := unmarshalInto[T](text)
	if err != nil {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("%w: %v", errNoObject, err)
		}
		v, err = unmarshalInto[T](text[start : end+1])
		if err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}
	}

	if err := validate.Struct(v); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return v, nil
}

func unmarshalInto[T any](text string) (*T, error) {
	v := new(T)
	if d, ok := any(v).(Defaulter); ok {
		d.ApplyDefaults()
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return nil, err
	}
	return v, nil
}

func schemaName[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

func preview(s string) string {
	r := []rune(s)
	if len(r) > previewRunes {
		return string(r[:previewRunes])
	}
	return s
}
