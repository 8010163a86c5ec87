package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cenkalti/backoff/v4"

	"github.com/nextlevelrentals/assistant-platform/internal/model"
)

// AnthropicGateway talks to the Anthropic messages API.
type AnthropicGateway struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
}

// NewAnthropicGateway creates an Anthropic-backed gateway.
func NewAnthropicGateway(opts Options) (*AnthropicGateway, error) {
	if opts.APIKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}
	m := opts.Model
	if m == "" {
		m = "claude-3-5-haiku-20241022"
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &AnthropicGateway{
		client:    anthropic.NewClient(option.WithAPIKey(opts.APIKey)),
		model:     m,
		maxTokens: 1024,
		timeout:   timeout,
	}, nil
}

// Name returns the provider name.
func (g *AnthropicGateway) Name() string { return "anthropic" }

// Model returns the configured model identifier.
func (g *AnthropicGateway) Model() string { return g.model }

// Converse sends the request and returns text or a function call.
func (g *AnthropicGateway) Converse(ctx context.Context, req *Request) (*Reply, error) {
	tools := make([]anthropic.ToolParam, 0, len(req.Functions))
	for _, fn := range req.Functions {
		schema := paramSchema(fn)
		if schema == nil {
			schema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		tools = append(tools, anthropic.ToolParam{
			Name:        anthropic.F(fn.Name),
			Description: anthropic.F(fn.Description),
			InputSchema: anthropic.F[any](schema),
		})
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.F(g.model),
		MaxTokens: anthropic.F(g.maxTokens),
		System: anthropic.F([]anthropic.TextBlockParam{{
			Type: anthropic.F(anthropic.TextBlockParamTypeText),
			Text: anthropic.F(systemBlock(req)),
		}}),
		Messages: anthropic.F(g.buildMessages(req, req.UserMessage)),
	}
	if len(tools) > 0 {
		params.Tools = anthropic.F(tools)
	}

	resp, err := g.send(ctx, params)
	if err != nil {
		return nil, err
	}

	usage := Usage{TokensIn: int(resp.Usage.InputTokens), TokensOut: int(resp.Usage.OutputTokens)}
	var text string
	for _, block := range resp.Content {
		switch block.Type {
		case anthropic.ContentBlockTypeToolUse:
			args := map[string]any{}
			if len(block.Input) > 0 {
				if err := json.Unmarshal(block.Input, &args); err != nil {
					return nil, fmt.Errorf("decode tool input: %w", err)
				}
			}
			return &Reply{
				Kind:  ReplyFunctionCall,
				Call:  &FunctionCall{Name: block.Name, Args: args},
				Usage: usage,
			}, nil
		case anthropic.ContentBlockTypeText:
			text += block.Text
		}
	}

	return &Reply{Kind: ReplyText, Text: text, Usage: usage}, nil
}

// Narrate converts a function result into a user-facing sentence.
func (g *AnthropicGateway) Narrate(ctx context.Context, req *Request, functionName, resultJSON string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.F(g.model),
		MaxTokens: anthropic.F(g.maxTokens),
		System: anthropic.F([]anthropic.TextBlockParam{{
			Type: anthropic.F(anthropic.TextBlockParamTypeText),
			Text: anthropic.F(systemBlock(req)),
		}}),
		Messages: anthropic.F(g.buildMessages(req, narrationPrompt(functionName, resultJSON))),
	}

	resp, err := g.send(ctx, params)
	if err != nil {
		return "", err
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			text += block.Text
		}
	}
	return text, nil
}

func (g *AnthropicGateway) buildMessages(req *Request, finalUser string) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(req.History)+1)
	for _, turn := range req.History {
		role := anthropic.MessageParamRoleUser
		if turn.Role == model.MessageRoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}
		messages = append(messages, textMessage(role, turn.Content))
	}
	messages = append(messages, textMessage(anthropic.MessageParamRoleUser, finalUser))
	return messages
}

func textMessage(role anthropic.MessageParamRole, content string) anthropic.MessageParam {
	return anthropic.MessageParam{
		Role: anthropic.F(role),
		Content: anthropic.F([]anthropic.ContentBlockParamUnion{
			anthropic.TextBlockParam{
				Type: anthropic.F(anthropic.TextBlockParamTypeText),
				Text: anthropic.F(content),
			},
		}),
	}
}

func (g *AnthropicGateway) send(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var resp *anthropic.Message
	err := withRetry(callCtx, func() error {
		var err error
		resp, err = g.client.Messages.New(callCtx, params)
		if err != nil && !retryableAnthropic(err) {
			return backoff.Permanent(err)
		}
		return err
	})
	if err != nil {
		return nil, unavailable(err)
	}
	return resp, nil
}

func retryableAnthropic(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return true
}
