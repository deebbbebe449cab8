package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

const (
	anthropicBaseURL      = "https://api.anthropic.com"
	anthropicVersion      = "2023-06-01"
	defaultAnthropicModel = "claude-sonnet-4-20250514"
)

// AnthropicClient calls the Messages API.
type AnthropicClient struct {
	client    *resty.Client
	model     string
	maxTokens int
}

var _ Client = (*AnthropicClient)(nil)

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewAnthropicClient(opts Options) *AnthropicClient {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = anthropicBaseURL
	}
	model := opts.Model
	if model == "" {
		model = defaultAnthropicModel
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(opts.httpTimeout()).
		SetHeader("x-api-key", opts.APIKey).
		SetHeader("anthropic-version", anthropicVersion).
		SetHeader("Content-Type", "application/json")

	return &AnthropicClient{
		client:    client,
		model:     model,
		maxTokens: opts.MaxTokens,
	}
}

func (c *AnthropicClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	var result anthropicResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(anthropicRequest{
			Model:     c.model,
			MaxTokens: c.maxTokens,
			System:    system,
			Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
		}).
		SetResult(&result).
		SetError(&result).
		Post("/v1/messages")
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		if result.Error != nil {
			return "", fmt.Errorf("anthropic API error %d: %s", resp.StatusCode(), result.Error.Message)
		}
		return "", fmt.Errorf("anthropic API returned status %d", resp.StatusCode())
	}

	for _, block := range result.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			return strings.TrimSpace(block.Text), nil
		}
	}
	return "", fmt.Errorf("anthropic returned empty response")
}
