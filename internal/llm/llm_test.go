package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	type payload struct {
		Text string `json:"text"`
	}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "Direct", input: `{"text":"a"}`, want: "a"},
		{name: "Fenced", input: "Here you go:\n```json\n{\"text\":\"b\"}\n```", want: "b"},
		{name: "Fenced without tag", input: "```\n{\"text\":\"c\"}\n```", want: "c"},
		{name: "Embedded", input: `Sure! {"text":"d"} Hope that helps.`, want: "d"},
		{name: "None", input: "no json at all", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			err := ExtractJSON(tt.input, &p)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Text)
		})
	}
}

func TestNew(t *testing.T) {
	c, err := New(Options{Provider: "none"})
	assert.NoError(t, err)
	assert.Nil(t, c)

	c, err = New(Options{Provider: "OpenAI", APIKey: "k"})
	assert.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)

	c, err = New(Options{Provider: "anthropic", APIKey: "k"})
	assert.NoError(t, err)
	assert.IsType(t, &AnthropicClient{}, c)

	_, err = New(Options{Provider: "cohere"})
	assert.Error(t, err)
}

func TestAnthropicClient_Complete(t *testing.T) {
	var got anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[{"type":"text","text":"  rewritten  "}]}`))
	}))
	defer server.Close()

	c := NewAnthropicClient(Options{APIKey: "test-key", BaseURL: server.URL, MaxTokens: 200})
	out, err := c.Complete(context.Background(), "be brief", "hello")

	require.NoError(t, err)
	assert.Equal(t, "rewritten", out)
	assert.Equal(t, "be brief", got.System)
	assert.Equal(t, 200, got.MaxTokens)
	assert.Equal(t, defaultAnthropicModel, got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "hello", got.Messages[0].Content)
}

func TestAnthropicClient_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	c := NewAnthropicClient(Options{APIKey: "k", BaseURL: server.URL, MaxTokens: 10})
	_, err := c.Complete(context.Background(), "", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slow down")
}

func TestOpenAIClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-test", req["model"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"done"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	c := NewOpenAIClient(Options{APIKey: "test-key", Model: "gpt-test", BaseURL: server.URL + "/v1", MaxTokens: 50})
	out, err := c.Complete(context.Background(), "sys", "prompt")

	require.NoError(t, err)
	assert.Equal(t, "done", out)
}

func TestOptions_HTTPTimeout(t *testing.T) {
	assert.Equal(t, defaultTimeout, Options{}.httpTimeout())
	assert.Equal(t, 5*time.Second, Options{Timeout: 5 * time.Second}.httpTimeout())

	c, err := New(Options{Provider: "openai", APIKey: "k", Timeout: 5 * time.Second})
	require.NoError(t, err)
	assert.NotNil(t, c)
}
