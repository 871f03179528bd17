// Package classify asks a text-generation model which region a monster
// belongs to and turns the raw reply into a validated Result.
package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/bestiary/internal/providers"
	"github.com/jackzampolin/bestiary/internal/regions"
)

var (
	// ErrEmptyResponse is returned when the model reply has no text.
	ErrEmptyResponse = errors.New("empty model response")

	// ErrMalformedOutput is returned when the reply is not a JSON object of the
	// expected shape.
	ErrMalformedOutput = errors.New("malformed classification output")

	// ErrUnknownRegion is returned when none of the returned labels is a known
	// region name.
	ErrUnknownRegion = errors.New("no known region in classification")
)

// Failure is the error returned for any record that could not be classified.
type Failure struct {
	Name  string
	Cause error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("classify %s: %v", f.Name, f.Cause)
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

// Result is a successful classification.
type Result struct {
	// Region is the committed label, always one of the known names.
	Region string `json:"region"`
	// Candidates are all labels the model returned, in order.
	Candidates []string `json:"candidates"`
	// Raw is the unmodified model text.
	Raw string `json:"-"`
}

// Options tune the generation request.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature *float64 // nil means 0.1; an explicit 0 is sent as is
	Timeout     time.Duration
	// Schema, when set, validates the parsed reply before interpretation.
	Schema json.RawMessage
}

// DefaultOptions returns the standard generation settings.
func DefaultOptions() Options {
	return Options{
		MaxTokens:   300,
		Temperature: Float(0.1),
		Timeout:     60 * time.Second,
	}
}

// Float returns a pointer to v, for Options.Temperature.
func Float(v float64) *float64 {
	return &v
}

// Classifier sends classification prompts to an LLMClient. It makes exactly
// one request per call and never retries.
type Classifier struct {
	client providers.LLMClient
	opts   Options
}

// New creates a Classifier. Zero fields in opts take DefaultOptions values.
func New(client providers.LLMClient, opts Options) *Classifier {
	def := DefaultOptions()
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = def.MaxTokens
	}
	if opts.Temperature == nil {
		opts.Temperature = def.Temperature
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	return &Classifier{client: client, opts: opts}
}

type answer struct {
	Regions []string `json:"regions"`
}

// Classify sends prompt for the record called name and interprets the reply
// against the known regions. Every failure is returned as a *Failure.
func (c *Classifier) Classify(ctx context.Context, name, prompt string, known regions.Context) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	resp, err := c.client.Chat(ctx, &providers.ChatRequest{
		Messages:    []providers.Message{providers.UserMessage(prompt)},
		Model:       c.opts.Model,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
		JSONOutput:  true,
		Schema:      c.opts.Schema,
		RequestID:   uuid.NewString(),
	})
	if err != nil {
		return nil, &Failure{Name: name, Cause: err}
	}

	res, err := c.interpret(resp.Content, known)
	if err != nil {
		return nil, &Failure{Name: name, Cause: err}
	}
	return res, nil
}

// interpret parses and validates raw model text.
func (c *Classifier) interpret(raw string, known regions.Context) (*Result, error) {
	text := providers.StripCodeFences(raw)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	doc, err := providers.ParseStructuredJSON(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if err := providers.ValidateStructuredJSON(c.opts.Schema, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	var a answer
	if err := json.Unmarshal(doc, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	candidates := make([]string, 0, len(a.Regions))
	for _, r := range a.Regions {
		if strings.TrimSpace(r) != "" {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no regions listed", ErrMalformedOutput)
	}

	for _, cand := range candidates {
		if known.Known(cand) {
			return &Result{Region: cand, Candidates: candidates, Raw: raw}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownRegion, strings.Join(candidates, ", "))
}
