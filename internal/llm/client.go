// Package llm wraps the text-generation providers used for tip phrasing and
// rewrites.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Provider names accepted by New.
const (
	ProviderNone      = "none"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Client generates a completion for a system instruction and a user prompt.
type Client interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Options configures a provider client.
type Options struct {
	Provider  string
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration // HTTP timeout per call, 60s when unset
}

const defaultTimeout = 60 * time.Second

func (o Options) httpTimeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return defaultTimeout
}

// New returns the client for opts.Provider, or nil when the provider is none.
func New(opts Options) (Client, error) {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1000
	}

	switch strings.ToLower(opts.Provider) {
	case "", ProviderNone:
		return nil, nil
	case ProviderOpenAI:
		return NewOpenAIClient(opts), nil
	case ProviderAnthropic:
		return NewAnthropicClient(opts), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", opts.Provider)
	}
}

var (
	fencedJSON = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")
	objectJSON = regexp.MustCompile(`\{[\s\S]*\}`)
)

// ExtractJSON decodes the first JSON object found in text into v. It tries the
// whole text, then a fenced code block, then the outermost braces.
func ExtractJSON(text string, v any) error {
	text = strings.TrimSpace(text)
	if err := json.Unmarshal([]byte(text), v); err == nil {
		return nil
	}
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		if err := json.Unmarshal([]byte(m[1]), v); err == nil {
			return nil
		}
	}
	if m := objectJSON.FindString(text); m != "" {
		if err := json.Unmarshal([]byte(m), v); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no JSON object in model output")
}
