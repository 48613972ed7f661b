package llm

import (
	"context"
	"time"

	"github.com/amendo-ai/amendo/types"
)

// Request is a normalized generation request. The same shape is sent to
// every vendor; providers translate it into their own wire format.
type Request struct {
	ID          string          `json:"id,omitempty"`
	Model       string          `json:"model"`
	Messages    []types.Message `json:"messages"`
	Temperature float32         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

// Usage reports token consumption for a completed request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// Response is a normalized generation response.
type Response struct {
	ID        string    `json:"id,omitempty"`
	Provider  string    `json:"provider,omitempty"`
	Model     string    `json:"model"`
	Text      string    `json:"text"`
	Usage     Usage     `json:"usage,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Provider is the unified adapter interface for a text-generation vendor.
//
// Implementations must return a *types.Error with an appropriate code and
// Retryable flag on transport or provider failure, so that the retry layer
// and fallback routing can distinguish failure modes.
type Provider interface {
	// Complete issues a synchronous generation request.
	Complete(ctx context.Context, req *Request) (*Response, error)

	// Name returns the provider's unique identifier.
	Name() string

	// SupportedModels lists the model ids this provider serves.
	// Model ids are conventionally vendor-prefixed, e.g. "openai/gpt-4o".
	SupportedModels() []string
}

// providerFunc adapts an opaque request/response function to Provider.
type providerFunc struct {
	name   string
	models []string
	fn     func(ctx context.Context, req *Request) (*Response, error)
}

// NewProviderFunc wraps an opaque generation function as a Provider.
// This is the integration point for vendor SDK clients, which the library
// treats as external collaborators.
func NewProviderFunc(name string, models []string, fn func(ctx context.Context, req *Request) (*Response, error)) Provider {
	return &providerFunc{name: name, models: models, fn: fn}
}

func (p *providerFunc) Complete(ctx context.Context, req *Request) (*Response, error) {
	return p.fn(ctx, req)
}

func (p *providerFunc) Name() string { return p.name }

func (p *providerFunc) SupportedModels() []string { return p.models }
