package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ppiankov/claimtrace/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Verdict string `json:"verdict"`
	}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "plain", input: `{"verdict":"supported"}`, want: "supported"},
		{name: "fenced", input: "```json\n{\"verdict\":\"neutral\"}\n```", want: "neutral"},
		{name: "prose around object", input: "Sure! Here it is: {\"verdict\":\"contradicted\"} Hope that helps.", want: "contradicted"},
		{name: "no object", input: "I cannot answer that.", wantErr: ErrNoJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			err := DecodeJSON(tt.input, &p)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Verdict)
		})
	}
}

func TestDecodeJSON_InvalidObject(t *testing.T) {
	var v map[string]any
	err := DecodeJSON("prefix {not: valid} suffix", &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestCitedURLs(t *testing.T) {
	text := "See https://example.com/a, and (https://example.org/b). Again https://example.com/a."
	assert.Equal(t, []string{"https://example.com/a", "https://example.org/b"}, CitedURLs(text))
	assert.Empty(t, CitedURLs("no links here"))
}

func TestCheckCitations(t *testing.T) {
	allowed := []string{"https://example.com/a/", "https://example.org/b"}

	assert.NoError(t, CheckCitations("per https://example.com/a and https://example.org/b", allowed))
	assert.NoError(t, CheckCitations("nothing cited", nil))

	err := CheckCitations("per https://evil.test/x", allowed)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCitationLeak))
	assert.Contains(t, err.Error(), "https://evil.test/x")
}

func TestAllowedURL(t *testing.T) {
	assert.True(t, AllowedURL("https://example.com/", []string{"https://example.com"}))
	assert.False(t, AllowedURL("https://example.com/other", []string{"https://example.com"}))
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorType
	}{
		{nil, ""},
		{errors.New("insufficient_quota: you exceeded your plan"), ErrorQuota},
		{errors.New("API error (429): rate_limit_error"), ErrorRate},
		{errors.New("maximum context length is 8192 tokens"), ErrorContext},
		{errors.New("service temporarily unavailable"), ErrorTransient},
		{fmt.Errorf("stage: %w", context.DeadlineExceeded), ErrorDeadline},
		{fmt.Errorf("decode: %w", ErrNoJSON), ErrorParse},
		{errors.New("invalid api key"), ErrorPermanent},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyError(tt.err), "error: %v", tt.err)
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{})
	require.NoError(t, err)
	assert.Nil(t, p, "empty provider name disables the LLM")

	p, err = NewProvider(Config{Provider: "OpenAI", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	p, err = NewProvider(Config{Provider: "claude", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())

	p, err = NewProvider(Config{Provider: "ollama"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())

	_, err = NewProvider(Config{Provider: "gemini"})
	assert.Error(t, err)
}

func TestConfigFromModel(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")

	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "openai"
	cfg.HTTP.HTTPSProxy = "http://proxy:3128"

	got := ConfigFromModel(cfg.LLM, cfg.HTTP)
	assert.Equal(t, "env-key", got.APIKey)
	assert.Equal(t, "http://proxy:3128", got.HTTPSProxy)
	assert.Equal(t, cfg.LLM.MaxToolRounds, got.MaxToolRounds)

	cfg.LLM.APIKey = "explicit"
	assert.Equal(t, "explicit", ConfigFromModel(cfg.LLM, cfg.HTTP).APIKey)
}

func TestMockProvider(t *testing.T) {
	m := &MockProvider{Responses: []string{"one", "two"}}
	ctx := context.Background()

	for _, want := range []string{"one", "two", "two"} {
		resp, err := m.Complete(ctx, CompletionRequest{Prompt: want})
		require.NoError(t, err)
		assert.Equal(t, want, resp.Text)
	}
	assert.Len(t, m.Requests(), 3)

	failing := &MockProvider{Err: errors.New("boom")}
	_, err := failing.Complete(ctx, CompletionRequest{})
	assert.EqualError(t, err, "boom")
}
