package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/memohai/docchat/internal/config"
)

const (
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// Provider is a hosted completion API.
type Provider interface {
	Name() string
	Chat(ctx context.Context, req Request) (Result, error)
	StreamChat(ctx context.Context, req Request) (<-chan StreamChunk, <-chan error)
}

// NewProvider selects the provider named by cfg.Provider.
func NewProvider(ctx context.Context, cfg config.ChatConfig) (Provider, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, timeout), nil
	case ProviderGoogle:
		return NewGoogleProvider(ctx, cfg.APIKey, cfg.BaseURL, timeout)
	case ProviderAnthropic:
		return NewAnthropicProvider(cfg.APIKey, cfg.BaseURL, timeout), nil
	case ProviderOllama:
		return NewOllamaProvider(cfg.BaseURL, timeout), nil
	default:
		return nil, fmt.Errorf("unknown chat provider %q", cfg.Provider)
	}
}
