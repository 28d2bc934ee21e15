package llm

import (
	"context"
	"sync"
)

// MockProvider is a deterministic Provider for tests and dry runs.
// Handler wins over Responses; Responses are returned in order and the
// last one repeats.
type MockProvider struct {
	Handler   func(req CompletionRequest) (string, error)
	Responses []string
	Err       error
	Tools     bool // report native tool support

	mu       sync.Mutex
	requests []CompletionRequest
	next     int
}

// Name returns the provider name
func (m *MockProvider) Name() string {
	return "mock"
}

// SupportsTools reports whether tool calls are resolved natively
func (m *MockProvider) SupportsTools() bool {
	return m.Tools
}

// IsAvailable always reports true
func (m *MockProvider) IsAvailable(ctx context.Context) bool {
	return true
}

// Complete returns the scripted response
func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.requests = append(m.requests, req)
	var text string
	var err error
	switch {
	case m.Handler != nil:
		m.mu.Unlock()
		text, err = m.Handler(req)
		m.mu.Lock()
	case m.Err != nil:
		err = m.Err
	case len(m.Responses) > 0:
		i := m.next
		if i >= len(m.Responses) {
			i = len(m.Responses) - 1
		}
		text = m.Responses[i]
		m.next++
	default:
		err = ErrEmptyResponse
	}
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return &CompletionResponse{Text: text, Model: "mock-llm-v1"}, nil
}

// Requests returns a copy of every request received so far
func (m *MockProvider) Requests() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CompletionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}
