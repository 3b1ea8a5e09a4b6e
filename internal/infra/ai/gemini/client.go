package gemini

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/bryanwahyu/chestlogic/internal/domain/ai"
)

const defaultModel = "gemini-1.5-flash"

// Client generates case analyses with the Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// Options tweaks the underlying transport; the zero value talks to the public API.
type Options struct {
	HTTPClient *http.Client
	BaseURL    string
}

// NewClient creates a Gemini client for the given key and model.
func NewClient(ctx context.Context, apiKey, model string, opts Options) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = defaultModel
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

// Generate returns the concatenated text of the first candidate.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", ai.ErrEmptyResponse
	}
	return resp.Text(), nil
}
