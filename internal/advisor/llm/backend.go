// Package llm holds the generative backends the orchestrator can call.
// Every backend makes exactly one attempt per call; deadlines come from the
// caller's context.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loan-advisor/internal/common/config"
	commonhttp "loan-advisor/internal/common/http"
)

var (
	ErrBackendTimeout     = errors.New("GENAI_TIMEOUT")
	ErrBackendUnavailable = errors.New("GENAI_UNAVAILABLE")
)

// Message roles understood by every backend.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single completion call.
type Request struct {
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Backend produces the assistant's next message. Errors wrap
// ErrBackendTimeout or ErrBackendUnavailable.
type Backend interface {
	Name() string
	Complete(ctx context.Context, req *Request) (string, error)
}

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// New builds the backend selected by cfg.Provider.
func New(ctx context.Context, cfg config.GenAIConfig, log Logger) (Backend, error) {
	switch cfg.Provider {
	case config.ProviderGroq, config.ProviderOpenAI:
		if cfg.APIKey == "" {
			log.Warn("generative backend has no API key; every turn will use the fallback matcher", map[string]interface{}{
				"provider": cfg.Provider,
			})
		}
		return NewChatCompletions(ChatCompletionsConfig{
			Provider: cfg.Provider,
			BaseURL:  cfg.BaseURL,
			APIKey:   cfg.APIKey,
			Model:    cfg.Model,
			TopP:     cfg.TopP,
		}, commonhttp.NewClient(2*config.GetDuration(cfg.Timeout))), nil
	case config.ProviderGemini:
		return NewGemini(ctx, GeminiConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			TopP:    cfg.TopP,
		})
	default:
		return nil, fmt.Errorf("unsupported generative provider %q", cfg.Provider)
	}
}

// classify maps a transport error onto the package sentinels.
func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrBackendTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
}

// Static returns a fixed reply or error, optionally after a delay.
type Static struct {
	Reply string
	Err   error
	Delay time.Duration
}

func (s *Static) Name() string { return "static" }

func (s *Static) Complete(ctx context.Context, _ *Request) (string, error) {
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return "", classify(ctx, ctx.Err())
		}
	}
	if s.Err != nil {
		return "", s.Err
	}
	return s.Reply, nil
}
