package providers

import (
	"context"
	"encoding/json"
	"time"
)

// LLMClient is the interface for single-turn text generation requests.
type LLMClient interface {
	// Chat sends a chat completion request.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error)

	// Name returns the client identifier (e.g., "openrouter").
	Name() string

	// Model returns the model used when a request names none.
	Model() string
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// UserMessage builds a single user-role message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// ChatRequest is a request to an LLM.
type ChatRequest struct {
	// Required
	Messages []Message `json:"messages"`

	// Model selection (uses client default if empty)
	Model string `json:"model,omitempty"`

	// Generation parameters. A nil Temperature leaves the provider default.
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`

	// JSONOutput asks providers with a native JSON mode to use it.
	JSONOutput bool `json:"-"`
	// Schema optionally constrains JSON output. It takes the
	// {"name", "strict", "schema"} wrapper form.
	Schema json.RawMessage `json:"-"`

	// Request tracking
	RequestID string `json:"-"`
}

// ChatResult is the complete response from an LLM call.
type ChatResult struct {
	Content string `json:"content"`

	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`

	ExecutionTime time.Duration `json:"execution_time"`

	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`
	RequestID string `json:"request_id"`
}
