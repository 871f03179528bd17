package providers

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const MockClientName = "mock"

// MockClient is an LLMClient for testing.
// Responses are consumed in order; once exhausted ResponseText is returned.
type MockClient struct {
	Latency      time.Duration
	ShouldFail   bool
	FailOn       map[int]bool // 1-based request numbers that return an error
	Responses    []string
	ResponseText string

	mu       sync.Mutex
	requests []ChatRequest
}

// NewMockClient creates a new mock client with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		ResponseText: "mock response",
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Model returns the mock model name.
func (c *MockClient) Model() string {
	return MockClientName
}

// Chat records the request and returns the next scripted response.
func (c *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	c.mu.Lock()
	c.requests = append(c.requests, *req)
	count := len(c.requests)
	c.mu.Unlock()

	if c.ShouldFail {
		return nil, fmt.Errorf("mock client configured to fail")
	}
	if c.FailOn[count] {
		return nil, fmt.Errorf("mock client failed on request %d", count)
	}

	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	content := c.ResponseText
	if count <= len(c.Responses) {
		content = c.Responses[count-1]
	}

	promptTokens := 0
	for _, m := range req.Messages {
		promptTokens += len(m.Content) / 4 // Rough estimate
	}

	return &ChatResult{
		Content:          content,
		PromptTokens:     promptTokens,
		CompletionTokens: len(content) / 4,
		ExecutionTime:    time.Since(start),
		Provider:         MockClientName,
		ModelUsed:        req.Model,
		RequestID:        fmt.Sprintf("mock-%d", count),
	}, nil
}

// RequestCount returns the number of requests made.
func (c *MockClient) RequestCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

// Requests returns a copy of every request received.
func (c *MockClient) Requests() []ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ChatRequest, len(c.requests))
	copy(out, c.requests)
	return out
}

// Reset clears recorded requests.
func (c *MockClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = nil
}

var _ LLMClient = (*MockClient)(nil)
