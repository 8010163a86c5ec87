package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/nextlevelrentals/assistant-platform/internal/model"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiGateway talks to the Gemini generateContent API over REST.
type GeminiGateway struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
}

// NewGeminiGateway creates a Gemini-backed gateway.
func NewGeminiGateway(opts Options) (*GeminiGateway, error) {
	if opts.APIKey == "" {
		return nil, errors.New("Gemini API key is required")
	}
	m := opts.Model
	if m == "" {
		m = "gemini-1.5-flash"
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &GeminiGateway{
		apiKey:     opts.APIKey,
		baseURL:    geminiBaseURL,
		model:      m,
		maxTokens:  1024,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Name returns the provider name.
func (g *GeminiGateway) Name() string { return "gemini" }

// Model returns the configured model identifier.
func (g *GeminiGateway) Model() string { return g.model }

// Wire types for the generateContent endpoint.

type geminiPart struct {
	Text         string              `json:"text,omitempty"`
	FunctionCall *geminiFunctionCall `json:"functionCall,omitempty"`
}

type geminiFunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiFunctionDecl struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type geminiTool struct {
	FunctionDeclarations []geminiFunctionDecl `json:"functionDeclarations"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	Tools             []geminiTool            `json:"tools,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (r *geminiResponse) usage() Usage {
	return Usage{
		TokensIn:  r.UsageMetadata.PromptTokenCount,
		TokensOut: r.UsageMetadata.CandidatesTokenCount,
	}
}

// Converse sends the request and returns text or a function call.
func (g *GeminiGateway) Converse(ctx context.Context, req *Request) (*Reply, error) {
	body := g.buildRequest(req, req.UserMessage)
	if len(req.Functions) > 0 {
		decls := make([]geminiFunctionDecl, 0, len(req.Functions))
		for _, fn := range req.Functions {
			decls = append(decls, geminiFunctionDecl{
				Name:        fn.Name,
				Description: fn.Description,
				Parameters:  paramSchema(fn),
			})
		}
		body.Tools = []geminiTool{{FunctionDeclarations: decls}}
	}

	resp, err := g.generate(ctx, body)
	if err != nil {
		return nil, err
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.FunctionCall != nil {
			args := part.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			return &Reply{
				Kind:  ReplyFunctionCall,
				Call:  &FunctionCall{Name: part.FunctionCall.Name, Args: args},
				Usage: resp.usage(),
			}, nil
		}
		text += part.Text
	}

	return &Reply{Kind: ReplyText, Text: text, Usage: resp.usage()}, nil
}

// Narrate converts a function result into a user-facing sentence.
func (g *GeminiGateway) Narrate(ctx context.Context, req *Request, functionName, resultJSON string) (string, error) {
	body := g.buildRequest(req, narrationPrompt(functionName, resultJSON))

	resp, err := g.generate(ctx, body)
	if err != nil {
		return "", err
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		text += part.Text
	}
	return text, nil
}

func (g *GeminiGateway) buildRequest(req *Request, finalUser string) *geminiRequest {
	contents := make([]geminiContent, 0, len(req.History)+1)
	for _, turn := range req.History {
		role := "user"
		if turn.Role == model.MessageRoleAssistant {
			role = "model"
		}
		contents = append(contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: turn.Content}},
		})
	}
	contents = append(contents, geminiContent{
		Role:  "user",
		Parts: []geminiPart{{Text: finalUser}},
	})

	return &geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: systemBlock(req)}}},
		Contents:          contents,
		GenerationConfig:  &geminiGenerationConfig{MaxOutputTokens: g.maxTokens},
	}
}

func (g *GeminiGateway) generate(ctx context.Context, body *geminiRequest) (*geminiResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)

	var out geminiResponse
	err = withRetry(ctx, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("x-goog-api-key", g.apiKey)

		httpResp, err := g.httpClient.Do(httpReq)
		if err != nil {
			return err
		}
		defer httpResp.Body.Close()

		data, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return err
		}

		if httpResp.StatusCode != http.StatusOK {
			err := fmt.Errorf("gemini API status %d: %s", httpResp.StatusCode, truncate(data, 256))
			if httpResp.StatusCode == http.StatusTooManyRequests || httpResp.StatusCode >= 500 {
				return err
			}
			return backoff.Permanent(err)
		}

		out = geminiResponse{}
		if err := json.Unmarshal(data, &out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
			return backoff.Permanent(errors.New("empty candidate response"))
		}
		return nil
	})
	if err != nil {
		return nil, unavailable(err)
	}
	return &out, nil
}

func truncate(data []byte, n int) string {
	if len(data) > n {
		return string(data[:n]) + "..."
	}
	return string(data)
}
