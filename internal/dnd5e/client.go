// Package dnd5e imports raw monster records from the public D&D 5e GraphQL API.
package dnd5e

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// DefaultEndpoint is the public dnd5e GraphQL endpoint.
const DefaultEndpoint = "https://www.dnd5eapi.co/graphql"

// ErrGraphQL is returned when the API reports errors in its response.
var ErrGraphQL = errors.New("dnd5e graphql error")

const monstersQuery = `query Monsters($limit: Int!) {
  monsters(limit: $limit) {
    index
    name
    size
    type
    alignment
    languages
    challenge_rating
    xp
    special_abilities { name desc }
    actions { name desc }
    legendary_actions { name desc }
    reactions { name desc }
  }
}`

// Client talks to the dnd5e GraphQL API.
type Client struct {
	endpoint   string
	httpClient *http.Client
	attempts   uint
}

// NewClient creates a client for endpoint. An empty endpoint uses DefaultEndpoint.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		attempts:   3,
	}
}

type gqlError struct {
	Message string `json:"message"`
}

type monstersResponse struct {
	Data *struct {
		Monsters []map[string]any `json:"monsters"`
	} `json:"data"`
	Errors []gqlError `json:"errors"`
}

// FetchMonsters returns up to limit raw monster objects. Numbers are decoded
// as json.Number. Transport failures and 5xx responses are retried; GraphQL
// errors are not.
func (c *Client) FetchMonsters(ctx context.Context, limit int) ([]map[string]any, error) {
	body, err := json.Marshal(map[string]any{
		"query":     monstersQuery,
		"variables": map[string]any{"limit": limit},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var raw []byte
	err = retry.Do(
		func() error {
			raw, err = c.post(ctx, body)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var resp monstersResponse
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, fmt.Errorf("%w: %s", ErrGraphQL, strings.Join(msgs, "; "))
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("%w: response has no data", ErrGraphQL)
	}
	return resp.Data.Monsters, nil
}

func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("dnd5e server error (status %d)", resp.StatusCode)
	case resp.StatusCode >= 400 && len(data) == 0:
		return nil, retry.Unrecoverable(fmt.Errorf("dnd5e request rejected (status %d)", resp.StatusCode))
	}
	return data, nil
}
