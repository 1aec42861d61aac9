package llm

import (
	"context"
	"fmt"
	"strings"

	commonhttp "loan-advisor/internal/common/http"
)

// ChatCompletionsConfig targets any OpenAI-compatible endpoint (Groq, OpenAI).
type ChatCompletionsConfig struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
	TopP     float64
}

// ChatCompletions calls POST {BaseURL}/chat/completions without streaming.
type ChatCompletions struct {
	config ChatCompletionsConfig
	client *commonhttp.Client
}

func NewChatCompletions(cfg ChatCompletionsConfig, client *commonhttp.Client) *ChatCompletions {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &ChatCompletions{config: cfg, client: client}
}

func (c *ChatCompletions) Name() string { return c.config.Provider }

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	TopP        float64   `json:"top_p,omitempty"`
	Stream      bool      `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (c *ChatCompletions) Complete(ctx context.Context, req *Request) (string, error) {
	if c.config.APIKey == "" {
		return "", fmt.Errorf("%w: missing API key", ErrBackendUnavailable)
	}

	messages := make([]Message, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, Message{Role: "system", Content: req.System})
	}
	messages = append(messages, req.Messages...)

	body := chatRequest{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		TopP:        c.config.TopP,
	}

	var resp chatResponse
	headers := map[string]string{"Authorization": "Bearer " + c.config.APIKey}
	if err := c.client.PostJSON(ctx, c.config.BaseURL+"/chat/completions", headers, body, &resp); err != nil {
		return "", classify(ctx, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: response has no choices", ErrBackendUnavailable)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: empty completion", ErrBackendUnavailable)
	}
	return content, nil
}
