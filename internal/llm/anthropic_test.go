package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestAnthropicProvider_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Expected path /v1/messages, got %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("Expected x-api-key header test-key, got %s", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != anthropicVersion {
			t.Errorf("Expected anthropic-version header %s, got %s", anthropicVersion, r.Header.Get("anthropic-version"))
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if !strings.Contains(req.System, jsonInstruction) {
			t.Errorf("Expected JSON instruction in system prompt, got %q", req.System)
		}
		if len(req.Tools) != 0 {
			t.Errorf("Expected no tools, got %d", len(req.Tools))
		}

		resp := anthropicResponse{
			ID:         "msg_123",
			Type:       "message",
			Role:       "assistant",
			Content:    []anthropicBlock{{Type: "text", Text: `{"claims":["The sky is blue."]}`}},
			Model:      "claude-3-5-sonnet-20241022",
			StopReason: "end_turn",
		}
		resp.Usage.InputTokens = 50
		resp.Usage.OutputTokens = 25
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Complete(context.Background(), CompletionRequest{
		System: "extract claims",
		Prompt: "The sky is blue.",
		JSON:   true,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if resp.Text != `{"claims":["The sky is blue."]}` {
		t.Errorf("Unexpected text: %s", resp.Text)
	}
	if resp.TokensUsed != 75 {
		t.Errorf("Expected 75 tokens, got %d", resp.TokensUsed)
	}
	if !SupportsTools(provider) {
		t.Error("Anthropic provider should report native tool support")
	}
}

func TestAnthropicProvider_Complete_ToolLoop(t *testing.T) {
	var mu sync.Mutex
	var requests []anthropicRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		mu.Lock()
		requests = append(requests, req)
		n := len(requests)
		mu.Unlock()

		if n == 1 {
			_ = json.NewEncoder(w).Encode(anthropicResponse{
				StopReason: anthropicStopToolUse,
				Content: []anthropicBlock{
					{Type: "text", Text: "Let me search."},
					{Type: "tool_use", ID: "toolu_1", Name: "web_search", Input: json.RawMessage(`{"query":"eiffel tower height"}`)},
				},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(anthropicResponse{
			StopReason: "end_turn",
			Content:    []anthropicBlock{{Type: "text", Text: `{"verdict":"supported"}`}},
		})
	}))
	defer server.Close()

	var gotArgs string
	tool := Tool{
		Name:       "web_search",
		Parameters: map[string]any{"type": "object"},
		Call: func(ctx context.Context, args string) (string, error) {
			gotArgs = args
			return "1. Eiffel Tower\n   330 m", nil
		},
	}

	provider, _ := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	resp, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "verify", Tools: []Tool{tool}, MaxToolRounds: 2})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if resp.Text != `{"verdict":"supported"}` {
		t.Errorf("Unexpected text: %s", resp.Text)
	}
	if resp.ToolCalls != 1 {
		t.Errorf("Expected 1 tool call, got %d", resp.ToolCalls)
	}
	if gotArgs != `{"query":"eiffel tower height"}` {
		t.Errorf("Unexpected tool args: %s", gotArgs)
	}

	if len(requests) != 2 {
		t.Fatalf("Expected 2 requests, got %d", len(requests))
	}
	if len(requests[0].Tools) != 1 || requests[0].Tools[0].Name != "web_search" {
		t.Errorf("Expected web_search tool definition, got %+v", requests[0].Tools)
	}
	second := requests[1].Messages
	if len(second) != 3 {
		t.Fatalf("Expected user, assistant, tool_result messages, got %d", len(second))
	}
	result := second[2].Content[0]
	if result.Type != "tool_result" || result.ToolUseID != "toolu_1" || !strings.Contains(result.Content, "330 m") {
		t.Errorf("Unexpected tool_result block: %+v", result)
	}
}

func TestAnthropicProvider_Complete_FinalRoundDisablesTools(t *testing.T) {
	var choices []*anthropicToolChoice
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req anthropicRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		choices = append(choices, req.ToolChoice)

		if req.ToolChoice != nil && req.ToolChoice.Type == "none" {
			_ = json.NewEncoder(w).Encode(anthropicResponse{Content: []anthropicBlock{{Type: "text", Text: "done"}}})
			return
		}
		_ = json.NewEncoder(w).Encode(anthropicResponse{
			StopReason: anthropicStopToolUse,
			Content:    []anthropicBlock{{Type: "tool_use", ID: "t", Name: "web_search", Input: json.RawMessage(`{}`)}},
		})
	}))
	defer server.Close()

	tool := Tool{Name: "web_search", Call: func(ctx context.Context, args string) (string, error) { return "ok", nil }}
	provider, _ := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	resp, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "x", Tools: []Tool{tool}, MaxToolRounds: 1})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Text != "done" {
		t.Errorf("Unexpected text: %s", resp.Text)
	}
	if len(choices) != 2 || choices[0] != nil || choices[1] == nil {
		t.Errorf("Expected tool_choice none only on the final round, got %v", choices)
	}
}

func TestAnthropicProvider_Complete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad model"}}`))
	}))
	defer server.Close()

	provider, _ := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	_, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "invalid_request_error - bad model") {
		t.Errorf("Expected decoded API error, got %v", err)
	}
}

func TestAnthropicProvider_Complete_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	provider, _ := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	_, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if got := ClassifyError(err); got != ErrorRate {
		t.Errorf("Expected rate classification, got %s", got)
	}
}

func TestAnthropicProvider_Complete_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	provider, _ := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	_, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	if err == nil || !strings.Contains(err.Error(), "unmarshal response") {
		t.Errorf("Expected unmarshal error, got %v", err)
	}
}

func TestAnthropicProvider_Complete_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"msg","content":[]}`))
	}))
	defer server.Close()

	provider, _ := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	_, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	if ClassifyError(err) != ErrorParse {
		t.Errorf("Expected parse classification for empty content, got %v", err)
	}
}

func TestAnthropicProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/models" {
			t.Errorf("Expected GET /v1/models, got %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	provider, _ := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected provider to be available")
	}
}

func TestNewAnthropicProvider_RequiresKey(t *testing.T) {
	if _, err := NewAnthropicProvider(Config{}); err == nil {
		t.Error("Expected error without API key")
	}
}
