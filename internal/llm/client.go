// Package llm provides the model-gateway interface and provider
// implementations with function-calling support.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/nextlevelrentals/assistant-platform/internal/model"
)

// ErrUnavailable marks network/model failures. Callers fall back to a
// canned in-conversation apology instead of failing the request.
var ErrUnavailable = errors.New("model gateway unavailable")

// Turn is one prior message of the conversation history.
type Turn struct {
	Role    model.MessageRole `json:"role"`
	Content string            `json:"content"`
}

// Request is a fully assembled model invocation.
type Request struct {
	System      string
	Context     string
	History     []Turn
	UserMessage string
	Functions   []model.FunctionSpec
}

// ReplyKind discriminates the two reply variants.
type ReplyKind int

const (
	ReplyText ReplyKind = iota
	ReplyFunctionCall
)

// FunctionCall is a structured operation request emitted by the model.
// Its arguments are untrusted input and are re-validated by the executor.
type FunctionCall struct {
	Name string
	Args map[string]any
}

// Reply is the tagged union returned by Converse: exactly one of Text or
// Call is populated, per Kind.
type Reply struct {
	Kind  ReplyKind
	Text  string
	Call  *FunctionCall
	Usage Usage
}

// Usage is the token accounting reported by the provider for one call.
type Usage struct {
	TokensIn  int
	TokensOut int
}

// Gateway is the interface to the external language model.
type Gateway interface {
	// Converse sends the assembled request and returns either free text
	// or a function-call request.
	Converse(ctx context.Context, req *Request) (*Reply, error)

	// Narrate converts a structured function result into a user-facing
	// sentence.
	Narrate(ctx context.Context, req *Request, functionName, resultJSON string) (string, error)

	// Name returns the provider name.
	Name() string

	// Model returns the configured model identifier.
	Model() string
}

// Provider selects a gateway implementation.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Options configures a gateway.
type Options struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewGateway creates a gateway for the given provider.
func NewGateway(provider Provider, opts Options) (Gateway, error) {
	switch provider {
	case ProviderGemini:
		return NewGeminiGateway(opts)
	case ProviderOpenAI:
		return NewOpenAIGateway(opts)
	case ProviderAnthropic:
		return NewAnthropicGateway(opts)
	default:
		return nil, fmt.Errorf("unknown model provider %q", provider)
	}
}

// unavailable wraps a provider error into the unavailable kind.
func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// withRetry runs op with at most one jittered retry for transient
// failures. Validation-class errors are returned immediately; op marks
// them with backoff.Permanent.
func withRetry(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.RandomizationFactor = 0.5
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, 1), ctx))
}

// narrationPrompt is the instruction wrapped around a function result for
// the second model pass.
func narrationPrompt(functionName, resultJSON string) string {
	return fmt.Sprintf(
		"The %s function was executed. Here is the result:\n\n%s\n\n"+
			"Please provide a natural, helpful response to the user based on this result.",
		functionName, resultJSON)
}

// systemBlock joins the role prompt and the context snapshot.
func systemBlock(req *Request) string {
	if req.Context == "" {
		return req.System
	}
	return req.System + "\n\nCurrent context:\n" + req.Context
}
