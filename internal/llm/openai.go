package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/nextlevelrentals/assistant-platform/internal/model"

	"github.com/cenkalti/backoff/v4"
)

// OpenAIGateway talks to the OpenAI chat completions API.
type OpenAIGateway struct {
	client    *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewOpenAIGateway creates an OpenAI-backed gateway.
func NewOpenAIGateway(opts Options) (*OpenAIGateway, error) {
	if opts.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	m := opts.Model
	if m == "" {
		m = "gpt-4o-mini"
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIGateway{
		client:    openai.NewClient(opts.APIKey),
		model:     m,
		maxTokens: 1024,
		timeout:   timeout,
	}, nil
}

// Name returns the provider name.
func (g *OpenAIGateway) Name() string { return "openai" }

// Model returns the configured model identifier.
func (g *OpenAIGateway) Model() string { return g.model }

// Converse sends the request and returns text or a function call.
func (g *OpenAIGateway) Converse(ctx context.Context, req *Request) (*Reply, error) {
	messages := g.buildMessages(req)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.UserMessage,
	})

	tools := make([]openai.Tool, 0, len(req.Functions))
	for _, fn := range req.Functions {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        fn.Name,
				Description: fn.Description,
				Parameters:  paramSchema(fn),
			},
		})
	}

	resp, err := g.complete(ctx, messages, tools)
	if err != nil {
		return nil, err
	}

	usage := Usage{TokensIn: resp.Usage.PromptTokens, TokensOut: resp.Usage.CompletionTokens}
	choice := resp.Choices[0].Message
	if len(choice.ToolCalls) > 0 {
		tc := choice.ToolCalls[0]
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("decode tool arguments: %w", err)
			}
		}
		return &Reply{
			Kind:  ReplyFunctionCall,
			Call:  &FunctionCall{Name: tc.Function.Name, Args: args},
			Usage: usage,
		}, nil
	}

	return &Reply{Kind: ReplyText, Text: choice.Content, Usage: usage}, nil
}

// Narrate converts a function result into a user-facing sentence.
func (g *OpenAIGateway) Narrate(ctx context.Context, req *Request, functionName, resultJSON string) (string, error) {
	messages := g.buildMessages(req)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: narrationPrompt(functionName, resultJSON),
	})

	resp, err := g.complete(ctx, messages, nil)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Message.Content, nil
}

func (g *OpenAIGateway) buildMessages(req *Request) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemBlock(req),
	})
	for _, turn := range req.History {
		role := openai.ChatMessageRoleUser
		if turn.Role == model.MessageRoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Content,
		})
	}
	return messages
}

func (g *OpenAIGateway) complete(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (*openai.ChatCompletionResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var resp openai.ChatCompletionResponse
	err := withRetry(callCtx, func() error {
		var err error
		resp, err = g.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model:     g.model,
			Messages:  messages,
			MaxTokens: g.maxTokens,
			Tools:     tools,
		})
		if err == nil {
			if len(resp.Choices) == 0 {
				err = errors.New("empty completion response")
			}
		}
		if err != nil && !retryableOpenAI(err) {
			return backoff.Permanent(err)
		}
		return err
	})
	if err != nil {
		return nil, unavailable(err)
	}
	return &resp, nil
}

// retryableOpenAI reports whether the error is worth one more attempt.
// Request-shape errors (4xx other than 429) are not.
func retryableOpenAI(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	// Transport-level failure.
	return true
}
