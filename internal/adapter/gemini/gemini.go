// Package gemini implements llm.Generator on the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/Strob0t/crmlite/internal/port/llm"
	"github.com/Strob0t/crmlite/internal/resilience"
)

// ErrEmptyCandidate is returned when Gemini answers without text.
var ErrEmptyCandidate = errors.New("gemini returned no text candidate")

// Client generates content with a Gemini model.
type Client struct {
	client  *genai.Client
	model   string
	breaker *resilience.Breaker

	newModel func(name string) *genai.GenerativeModel
	call     func(ctx context.Context, m *genai.GenerativeModel, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// NewClient connects to Gemini with an API key. model is used when a request
// does not name one.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{
		client:   client,
		model:    model,
		newModel: client.GenerativeModel,
		call: func(ctx context.Context, m *genai.GenerativeModel, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
			return m.GenerateContent(ctx, parts...)
		},
	}, nil
}

// SetBreaker attaches a circuit breaker to all generation calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Generate sends one prompt. It never retries.
func (c *Client) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	name := req.Model
	if name == "" {
		name = c.model
	}

	// A model per call: GenerativeModel settings are not safe to share.
	m := c.newModel(name)
	if req.System != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	m.SetTemperature(float32(req.Temperature))
	if req.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(req.MaxTokens)) //nolint:gosec // bounded by config
	}
	if req.JSON {
		m.ResponseMIMEType = "application/json"
	}

	var resp *genai.GenerateContentResponse
	call := func() error {
		var err error
		resp, err = c.call(ctx, m, genai.Text(req.Prompt))
		return err
	}
	var err error
	if c.breaker != nil {
		err = c.breaker.Execute(call)
	} else {
		err = call()
	}
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return nil, ErrEmptyCandidate
	}

	out := &llm.Response{Content: text, Model: name}
	if resp.UsageMetadata != nil {
		out.TokensIn = int(resp.UsageMetadata.PromptTokenCount)
		out.TokensOut = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}
