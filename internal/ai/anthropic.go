package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/magabrotheeeer/autopay-alert/internal/config"
)

// AnthropicClient — альтернативный сервис генерации на Messages API.
type AnthropicClient struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	enabled   bool
	log       *slog.Logger
}

// NewAnthropicClient создаёт клиента по секции ai конфига.
func NewAnthropicClient(cfg config.AI, log *slog.Logger) *AnthropicClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" && !strings.Contains(cfg.BaseURL, "googleapis.com") {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	maxTokens := int64(cfg.MaxOutputTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &AnthropicClient{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: maxTokens,
		enabled:   cfg.APIKey != "",
		log:       log.With(slog.String("component", "anthropic")),
	}
}

func (c *AnthropicClient) params(prompt string) anthropic.MessageNewParams {
	return anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
}

// Generate запрашивает ответ целиком.
func (c *AnthropicClient) Generate(ctx context.Context, prompt string) (string, error) {
	const op = "ai.AnthropicClient.Generate"
	if !c.enabled {
		return "", fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}
	msg, err := c.client.Messages.New(ctx, c.params(prompt))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, c.translate(ctx, err))
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyResponse)
	}
	return b.String(), nil
}

// Stream передаёт текстовые дельты в onChunk.
func (c *AnthropicClient) Stream(ctx context.Context, prompt string, onChunk func(string)) error {
	const op = "ai.AnthropicClient.Stream"
	if !c.enabled {
		return fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}
	stream := c.client.Messages.NewStreaming(ctx, c.params(prompt))
	defer stream.Close()

	for stream.Next() {
		event := stream.Current()
		delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		if text, ok := delta.Delta.AsAny().(anthropic.TextDelta); ok && text.Text != "" {
			onChunk(text.Text)
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, c.translate(ctx, err))
	}
	return nil
}

func (c *AnthropicClient) translate(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &TransportError{Status: apiErr.StatusCode, Message: apiErr.Error()}
	}
	c.log.Debug("anthropic request failed", slog.String("error", err.Error()))
	return &TransportError{Message: err.Error()}
}

// NewClient выбирает сервис генерации по cfg.Provider.
func NewClient(cfg config.AI, log *slog.Logger) (Client, error) {
	switch cfg.Provider {
	case "", "gemini":
		return NewGeminiClient(cfg, log), nil
	case "anthropic":
		return NewAnthropicClient(cfg, log), nil
	default:
		return nil, fmt.Errorf("ai.NewClient: unknown provider %q", cfg.Provider)
	}
}
