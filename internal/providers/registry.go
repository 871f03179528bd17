package providers

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnknownProvider is returned for an unsupported provider type.
	ErrUnknownProvider = errors.New("unknown provider type")

	// ErrMissingAPIKey is returned when a remote provider has no resolved API key.
	ErrMissingAPIKey = errors.New("missing API key")
)

// Provider types accepted by NewClient.
const (
	TypeOpenAI = "openai"
	TypeGemini = "gemini"
	TypeMock   = "mock"
)

// LLMProviderConfig is a provider entry with its API key already resolved.
type LLMProviderConfig struct {
	Name    string
	Type    string
	Model   string
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewClient instantiates the LLMClient for cfg.Type.
func NewClient(ctx context.Context, cfg LLMProviderConfig) (LLMClient, error) {
	name := cfg.Name
	if name == "" {
		name = cfg.Type
	}

	switch cfg.Type {
	case TypeOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w for provider %q", ErrMissingAPIKey, name)
		}
		return NewOpenAIClient(OpenAIConfig{
			Name:    name,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		}), nil
	case TypeGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w for provider %q", ErrMissingAPIKey, name)
		}
		client, err := NewGeminiClient(ctx, GeminiConfig{
			Name:    name,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case TypeMock:
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Type)
	}
}
