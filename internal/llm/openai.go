package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/claimtrace/internal/util"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface for OpenAI models
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
		},
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// SupportsTools reports native function calling
func (p *OpenAIProvider) SupportsTools() bool {
	return true
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "OpenAI API check failed: %v\n", err)
		return false
	}
	return true
}

// Complete runs a chat completion. When tools are supplied the model may
// call them; results are fed back until it answers or the round budget
// is spent, after which tool use is disabled for a final answer.
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.config.Model
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	maxRounds := p.config.toolRounds(req)

	ctx, cancel := context.WithTimeout(ctx, p.config.timeout(60*time.Second))
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, 4)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:       model,
		MaxTokens:   p.config.maxTokens(req),
		Temperature: float32(p.config.temperature(req)),
	}
	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	handlers := make(map[string]Tool, len(req.Tools))
	for _, tool := range req.Tools {
		handlers[tool.Name] = tool
		chatReq.Tools = append(chatReq.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}

	out := &CompletionResponse{Model: model}
	for round := 0; round <= maxRounds; round++ {
		if len(chatReq.Tools) > 0 && round == maxRounds {
			chatReq.ToolChoice = "none"
		}
		chatReq.Messages = messages

		resp, err := p.client.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			return nil, fmt.Errorf("OpenAI API error: %w", err)
		}
		out.TokensUsed += resp.Usage.TotalTokens
		if resp.Model != "" {
			out.Model = resp.Model
		}

		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("no response from OpenAI: %w", ErrEmptyResponse)
		}
		msg := resp.Choices[0].Message

		if len(msg.ToolCalls) == 0 {
			out.Text = strings.TrimSpace(msg.Content)
			if out.Text == "" {
				return nil, fmt.Errorf("OpenAI returned no content: %w", ErrEmptyResponse)
			}
			return out, nil
		}

		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			out.ToolCalls++
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    runTool(ctx, handlers, call.Function.Name, call.Function.Arguments),
				ToolCallID: call.ID,
			})
		}
	}

	return nil, fmt.Errorf("OpenAI tool loop exceeded %d rounds: %w", maxRounds, ErrEmptyResponse)
}

// runTool executes a tool call. Failures are reported back to the model
// as text so it can recover instead of aborting the completion.
func runTool(ctx context.Context, handlers map[string]Tool, name, args string) string {
	tool, ok := handlers[name]
	if !ok || tool.Call == nil {
		return fmt.Sprintf("error: unknown tool %q", name)
	}
	result, err := tool.Call(ctx, args)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return result
}
