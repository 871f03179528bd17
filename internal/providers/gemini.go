package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

const (
	GeminiName         = "gemini"
	geminiDefaultModel = "gemini-2.0-flash"
)

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	Name       string
	APIKey     string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// GeminiClient implements LLMClient on the Google Gen AI SDK.
type GeminiClient struct {
	name  string
	model string
	cli   *genai.Client
}

// NewGeminiClient creates a Gemini API client.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.Name == "" {
		cfg.Name = GeminiName
	}
	if cfg.Model == "" {
		cfg.Model = geminiDefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRequestTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{name: cfg.Name, model: cfg.Model, cli: cli}, nil
}

// Name returns the client identifier.
func (g *GeminiClient) Name() string {
	return g.name
}

// Model returns the configured default model.
func (g *GeminiClient) Model() string {
	return g.model
}

// Chat sends the request messages as one generation call and returns the
// text of the first candidate.
func (g *GeminiClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	if req == nil || len(req.Messages) == 0 {
		return nil, fmt.Errorf("request has no messages")
	}
	start := time.Now()

	model := req.Model
	if model == "" {
		model = g.model
	}
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	resp, err := g.cli.Models.GenerateContent(ctx, model, toGeminiContents(req.Messages), geminiConfig(req))
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", g.name, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("%s returned no candidates", g.name)
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}

	result := &ChatResult{
		Content:       text.String(),
		ExecutionTime: time.Since(start),
		Provider:      g.name,
		ModelUsed:     model,
		RequestID:     requestID,
	}
	if resp.UsageMetadata != nil {
		result.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return result, nil
}

func geminiConfig(req *ChatRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature != nil {
		temp := float32(*req.Temperature)
		cfg.Temperature = &temp
	}
	if req.JSONOutput {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}

func toGeminiContents(msgs []Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := "user"
		if strings.EqualFold(m.Role, "assistant") {
			role = "model"
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	return out
}

var _ LLMClient = (*GeminiClient)(nil)
