package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMockClient(t *testing.T) {
	ctx := context.Background()

	t.Run("scripted responses then default", func(t *testing.T) {
		client := &MockClient{Responses: []string{"first", "second"}, ResponseText: "fallback"}
		want := []string{"first", "second", "fallback"}
		for i, w := range want {
			result, err := client.Chat(ctx, &ChatRequest{Messages: []Message{UserMessage("hi")}})
			if err != nil {
				t.Fatalf("Chat() #%d error = %v", i+1, err)
			}
			if result.Content != w {
				t.Errorf("Chat() #%d = %q, want %q", i+1, result.Content, w)
			}
		}
		if client.RequestCount() != 3 {
			t.Errorf("RequestCount() = %d, want 3", client.RequestCount())
		}
	})

	t.Run("should fail", func(t *testing.T) {
		client := NewMockClient()
		client.ShouldFail = true
		if _, err := client.Chat(ctx, &ChatRequest{Messages: []Message{UserMessage("hi")}}); err == nil {
			t.Error("expected error")
		}
		if client.RequestCount() != 1 {
			t.Error("failed requests should still be counted")
		}
	})

	t.Run("fail on specific request", func(t *testing.T) {
		client := &MockClient{ResponseText: "ok", FailOn: map[int]bool{2: true}}
		for i := 1; i <= 3; i++ {
			_, err := client.Chat(ctx, &ChatRequest{Messages: []Message{UserMessage("hi")}})
			if (err != nil) != (i == 2) {
				t.Errorf("request %d: err = %v", i, err)
			}
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		client := &MockClient{Latency: time.Second}
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := client.Chat(cctx, &ChatRequest{Messages: []Message{UserMessage("hi")}}); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("records requests", func(t *testing.T) {
		client := NewMockClient()
		client.Chat(ctx, &ChatRequest{Messages: []Message{UserMessage("prompt")}, MaxTokens: 300})
		reqs := client.Requests()
		if len(reqs) != 1 || reqs[0].MaxTokens != 300 || reqs[0].Messages[0].Content != "prompt" {
			t.Errorf("unexpected recorded requests: %+v", reqs)
		}
		client.Reset()
		if client.RequestCount() != 0 {
			t.Error("Reset() should clear requests")
		}
	})
}

// chatServer is a minimal OpenAI-compatible chat completions endpoint.
func chatServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected Authorization header: %q", got)
		}
		if seen != nil {
			raw, _ := io.ReadAll(r.Body)
			json.Unmarshal(raw, seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestOpenAIClient_Chat(t *testing.T) {
	var seen map[string]any
	server := chatServer(t, http.StatusOK, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"created": 1700000000,
		"model": "gpt-4o-mini-2024",
		"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "{\"regions\": [\"Frostpeak\"]}"}}],
		"usage": {"prompt_tokens": 120, "completion_tokens": 8, "total_tokens": 128}
	}`, &seen)
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{
		Name:    "openrouter",
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
		BaseURL: server.URL,
	})

	temperature := 0.1
	result, err := client.Chat(context.Background(), &ChatRequest{
		Messages:    []Message{UserMessage("classify")},
		MaxTokens:   300,
		Temperature: &temperature,
		RequestID:   "req-1",
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	if result.Content != `{"regions": ["Frostpeak"]}` {
		t.Errorf("unexpected content: %q", result.Content)
	}
	if result.Provider != "openrouter" || result.ModelUsed != "gpt-4o-mini-2024" || result.RequestID != "req-1" {
		t.Errorf("unexpected result metadata: %+v", result)
	}
	if result.PromptTokens != 120 || result.CompletionTokens != 8 {
		t.Errorf("unexpected usage: %+v", result)
	}

	if seen["model"] != "gpt-4o-mini" {
		t.Errorf("request model = %v", seen["model"])
	}
	if seen["max_tokens"] != float64(300) {
		t.Errorf("request max_tokens = %v", seen["max_tokens"])
	}
	if seen["temperature"] != 0.1 {
		t.Errorf("request temperature = %v", seen["temperature"])
	}
	msgs, _ := seen["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("expected a single message, got %v", seen["messages"])
	}
	if m, _ := msgs[0].(map[string]any); m["role"] != "user" || m["content"] != "classify" {
		t.Errorf("unexpected message: %v", msgs[0])
	}
}

const okCompletion = `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"{}"}}]}`

func TestOpenAIClient_Chat_ResponseFormat(t *testing.T) {
	zero := 0.0
	tests := []struct {
		name       string
		req        ChatRequest
		wantFormat string
		wantName   string
	}{
		{"plain text", ChatRequest{}, "", ""},
		{"json object", ChatRequest{JSONOutput: true}, "json_object", ""},
		{
			"json schema",
			ChatRequest{JSONOutput: true, Schema: json.RawMessage(`{"name": "region_classification", "strict": true, "schema": {"type": "object"}}`)},
			"json_schema",
			"region_classification",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen map[string]any
			server := chatServer(t, http.StatusOK, okCompletion, &seen)
			defer server.Close()

			client := NewOpenAIClient(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})
			req := tt.req
			req.Messages = []Message{UserMessage("classify")}
			req.Temperature = &zero
			if _, err := client.Chat(context.Background(), &req); err != nil {
				t.Fatalf("Chat() error = %v", err)
			}

			if temp, ok := seen["temperature"]; !ok || temp != float64(0) {
				t.Errorf("explicit zero temperature not sent: %v", seen["temperature"])
			}

			format, _ := seen["response_format"].(map[string]any)
			if tt.wantFormat == "" {
				if format != nil {
					t.Errorf("unexpected response_format: %v", format)
				}
				return
			}
			if format["type"] != tt.wantFormat {
				t.Errorf("response_format type = %v, want %s", format["type"], tt.wantFormat)
			}
			if tt.wantName != "" {
				js, _ := format["json_schema"].(map[string]any)
				if js["name"] != tt.wantName || js["strict"] != true {
					t.Errorf("unexpected json_schema: %v", js)
				}
				if inner, _ := js["schema"].(map[string]any); inner["type"] != "object" {
					t.Errorf("inner schema not unwrapped: %v", js["schema"])
				}
			}
		})
	}
}

func TestOpenAIClient_Chat_NoChoices(t *testing.T) {
	server := chatServer(t, http.StatusOK, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`, nil)
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})
	if _, err := client.Chat(context.Background(), &ChatRequest{Messages: []Message{UserMessage("hi")}}); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestOpenAIClient_Chat_SingleAttempt(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error": {"message": "overloaded", "type": "server_error"}}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})
	_, err := client.Chat(context.Background(), &ChatRequest{Messages: []Message{UserMessage("hi")}})
	if err == nil {
		t.Fatal("expected error for 503")
	}
	if calls != 1 {
		t.Errorf("expected exactly one attempt, got %d", calls)
	}
}

func TestOpenAIClient_Chat_EmptyRequest(t *testing.T) {
	client := NewOpenAIClient(OpenAIConfig{APIKey: "test-key"})
	if _, err := client.Chat(context.Background(), &ChatRequest{}); err == nil {
		t.Error("expected error for request without messages")
	}
}

func TestNewClient(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		cfg       LLMProviderConfig
		wantName  string
		wantModel string
		wantErr   error
	}{
		{"openai", LLMProviderConfig{Name: "openrouter", Type: TypeOpenAI, APIKey: "k"}, "openrouter", openAIDefaultModel, nil},
		{"openai with model", LLMProviderConfig{Name: "openrouter", Type: TypeOpenAI, APIKey: "k", Model: "x-large"}, "openrouter", "x-large", nil},
		{"openai without key", LLMProviderConfig{Type: TypeOpenAI}, "", "", ErrMissingAPIKey},
		{"gemini without key", LLMProviderConfig{Type: TypeGemini}, "", "", ErrMissingAPIKey},
		{"mock", LLMProviderConfig{Type: TypeMock}, MockClientName, MockClientName, nil},
		{"unknown", LLMProviderConfig{Type: "bedrock"}, "", "", ErrUnknownProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(ctx, tt.cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewClient() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if client != nil {
					t.Error("expected nil client on error")
				}
				return
			}
			if client.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", client.Name(), tt.wantName)
			}
			if client.Model() != tt.wantModel {
				t.Errorf("Model() = %q, want %q", client.Model(), tt.wantModel)
			}
		})
	}
}
