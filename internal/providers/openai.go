package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	OpenAIName            = "openai"
	openAIDefaultModel    = "gpt-4o-mini"
	defaultRequestTimeout = 60 * time.Second
)

// OpenAIConfig holds configuration for an OpenAI-compatible chat client.
// OpenRouter and other compatible gateways are reached by setting BaseURL.
type OpenAIConfig struct {
	Name       string        // Client identifier; defaults to "openai"
	APIKey     string
	Model      string        // Default model
	BaseURL    string        // Optional endpoint override
	Timeout    time.Duration // HTTP timeout
	HTTPClient *http.Client  // Optional (tests)
}

// OpenAIClient implements LLMClient using the official OpenAI SDK.
// It makes exactly one attempt per request; the SDK's own retries are off.
type OpenAIClient struct {
	name   string
	model  string
	client openai.Client
}

// NewOpenAIClient creates a new OpenAI-compatible client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Name == "" {
		cfg.Name = OpenAIName
	}
	if cfg.Model == "" {
		cfg.Model = openAIDefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRequestTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		name:   cfg.Name,
		model:  cfg.Model,
		client: openai.NewClient(opts...),
	}
}

// Name returns the client identifier.
func (c *OpenAIClient) Name() string {
	return c.name
}

// Model returns the configured default model.
func (c *OpenAIClient) Model() string {
	return c.model
}

// Chat sends a single chat completion request and returns the first choice.
func (c *OpenAIClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	if req == nil || len(req.Messages) == 0 {
		return nil, fmt.Errorf("request has no messages")
	}
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.model
	}
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: toOpenAIMessages(req.Messages),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.JSONOutput {
		format, err := openAIResponseFormat(req.Schema)
		if err != nil {
			return nil, err
		}
		params.ResponseFormat = format
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, c.mapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s returned no choices", c.name)
	}

	modelUsed := resp.Model
	if modelUsed == "" {
		modelUsed = model
	}

	return &ChatResult{
		Content:          resp.Choices[0].Message.Content,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		ExecutionTime:    time.Since(start),
		Provider:         c.name,
		ModelUsed:        modelUsed,
		RequestID:        requestID,
	}, nil
}

// openAIResponseFormat selects json_schema when a schema is given and
// json_object otherwise.
func openAIResponseFormat(schema json.RawMessage) (openai.ChatCompletionNewParamsResponseFormatUnion, error) {
	if len(schema) == 0 {
		return openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}, nil
	}

	var wrapper struct {
		Name   string          `json:"name"`
		Strict bool            `json:"strict"`
		Schema json.RawMessage `json:"schema"`
	}
	if err := json.Unmarshal(schema, &wrapper); err != nil {
		return openai.ChatCompletionNewParamsResponseFormatUnion{}, fmt.Errorf("invalid response schema: %w", err)
	}
	if len(wrapper.Schema) == 0 {
		wrapper.Schema = schema
	}
	if wrapper.Name == "" {
		wrapper.Name = "response"
	}

	js := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:   wrapper.Name,
		Schema: wrapper.Schema,
	}
	if wrapper.Strict {
		js.Strict = openai.Bool(true)
	}
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: js},
	}, nil
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch strings.ToLower(m.Role) {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func (c *OpenAIClient) mapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return fmt.Errorf("%s error (status %d): %s", c.name, apiErr.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("%s error (status %d)", c.name, apiErr.StatusCode)
	}
	return fmt.Errorf("%s request failed: %w", c.name, err)
}

var _ LLMClient = (*OpenAIClient)(nil)
