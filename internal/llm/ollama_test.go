package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOllamaProvider_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("Expected path /api/chat, got %s", r.URL.Path)
		}

		var req ollamaChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Format != "json" {
			t.Errorf("Expected json format, got %q", req.Format)
		}
		if req.Stream {
			t.Error("Expected non-streaming request")
		}
		if req.Options.NumPredict != 200 {
			t.Errorf("Expected num_predict 200, got %d", req.Options.NumPredict)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "judge" {
			t.Errorf("Unexpected messages: %+v", req.Messages)
		}

		_ = json.NewEncoder(w).Encode(ollamaChatResponse{
			Model:   "llama3.1:8b",
			Message: ollamaMessage{Role: "assistant", Content: `{"verdict":"neutral"}`},
			Done:    true,
		})
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llama3.1:8b", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Complete(context.Background(), CompletionRequest{System: "be careful", Prompt: "judge", JSON: true, MaxTokens: 200})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Text != `{"verdict":"neutral"}` {
		t.Errorf("Unexpected text: %s", resp.Text)
	}
	if resp.TokensUsed == 0 {
		t.Error("Expected token estimate when counts are missing")
	}
}

func TestOllamaProvider_Complete_ToolLoop(t *testing.T) {
	var requests []ollamaChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		requests = append(requests, req)

		if len(requests) == 1 {
			var call ollamaToolCall
			call.Function.Name = "web_search"
			call.Function.Arguments = json.RawMessage(`{"query":"boiling point"}`)
			_ = json.NewEncoder(w).Encode(ollamaChatResponse{
				Message: ollamaMessage{Role: "assistant", ToolCalls: []ollamaToolCall{call}},
				Done:    true,
			})
			return
		}
		_ = json.NewEncoder(w).Encode(ollamaChatResponse{
			Message:   ollamaMessage{Role: "assistant", Content: "100 C at sea level"},
			EvalCount: 12,
			Done:      true,
		})
	}))
	defer server.Close()

	tool := Tool{
		Name: "web_search",
		Call: func(ctx context.Context, args string) (string, error) {
			if args != `{"query":"boiling point"}` {
				t.Errorf("Unexpected tool args: %s", args)
			}
			return "1. Water\n   boils at 100 C", nil
		},
	}

	provider, _ := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llama3.1:8b"})
	resp, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "verify", Tools: []Tool{tool}, MaxToolRounds: 2})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Text != "100 C at sea level" {
		t.Errorf("Unexpected text: %s", resp.Text)
	}
	if resp.ToolCalls != 1 {
		t.Errorf("Expected 1 tool call, got %d", resp.ToolCalls)
	}
	if len(requests) != 2 {
		t.Fatalf("Expected 2 requests, got %d", len(requests))
	}
	if len(requests[0].Tools) != 1 || requests[0].Tools[0].Type != "function" {
		t.Errorf("Expected a function tool, got %+v", requests[0].Tools)
	}
	last := requests[1].Messages[len(requests[1].Messages)-1]
	if last.Role != "tool" || last.ToolName != "web_search" || last.Content != "1. Water\n   boils at 100 C" {
		t.Errorf("Unexpected tool message: %+v", last)
	}
}

func TestOllamaProvider_Complete_FinalRoundHasNoTools(t *testing.T) {
	var toolCounts []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		toolCounts = append(toolCounts, len(req.Tools))

		var call ollamaToolCall
		call.Function.Name = "web_search"
		call.Function.Arguments = json.RawMessage(`{}`)
		msg := ollamaMessage{Role: "assistant", Content: "final", ToolCalls: []ollamaToolCall{call}}
		_ = json.NewEncoder(w).Encode(ollamaChatResponse{Message: msg, Done: true})
	}))
	defer server.Close()

	tool := Tool{Name: "web_search", Call: func(ctx context.Context, args string) (string, error) { return "", nil }}
	provider, _ := NewOllamaProvider(Config{BaseURL: server.URL, Model: "m"})
	resp, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "x", Tools: []Tool{tool}, MaxToolRounds: 1})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Text != "final" {
		t.Errorf("Unexpected text: %s", resp.Text)
	}
	if len(toolCounts) != 2 || toolCounts[0] != 1 || toolCounts[1] != 0 {
		t.Errorf("Expected tools only before the final round, got %v", toolCounts)
	}
}

func TestOllamaProvider_Complete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer server.Close()

	provider, _ := NewOllamaProvider(Config{BaseURL: server.URL, Model: "nope"})
	_, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
}

func TestOllamaProvider_Complete_NoModel(t *testing.T) {
	provider, _ := NewOllamaProvider(Config{BaseURL: "http://127.0.0.1:1"})
	if _, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "x"}); err == nil {
		t.Error("Expected error when no model is configured")
	}
}

func TestOllamaProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			_, _ = w.Write([]byte(`{"models":[]}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	provider, _ := NewOllamaProvider(Config{BaseURL: server.URL})
	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected provider to be available")
	}

	server.Close()
	if provider.IsAvailable(context.Background()) {
		t.Error("Expected provider to be unavailable after shutdown")
	}
}
