package providers

import (
	"context"
	"fmt"
	"io"
)

// Request contains the data sent to an LLM for one completion.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	// Model overrides the client's default model when set.
	Model     string
	MaxTokens int
}

// Response contains the raw response from an LLM.
type Response struct {
	Content    string
	TokensUsed int
}

// Client is the provider abstraction interface.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Name() string
}

// Settings selects and configures a provider.
type Settings struct {
	Provider string
	Model    string
	// Endpoint is the base URL of the inference service. Empty uses the
	// provider's default.
	Endpoint string
	// APIKey is the credential. Empty falls back to the provider's
	// environment variable.
	APIKey string
	Vertex VertexSettings
}

// VertexSettings locates a Vertex AI project.
type VertexSettings struct {
	Project  string
	Location string
}

const defaultMaxTokens = 2048

var defaultModels = map[string]string{
	"github":    "openai/gpt-4o",
	"openai":    "gpt-4o-mini",
	"anthropic": "claude-sonnet-4-5",
	"ollama":    "llama3.3",
	"vertex":    "gemini-2.5-flash",
}

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string {
	return defaultModels[provider]
}

// New creates a provider by name. An empty s.Model selects the provider's
// default model.
func New(ctx context.Context, s Settings) (Client, error) {
	if s.Model == "" {
		s.Model = DefaultModel(s.Provider)
	}
	switch s.Provider {
	case "github", "openai", "ollama":
		return NewOpenAI(s)
	case "anthropic":
		return NewAnthropic(s)
	case "vertex":
		return NewVertex(ctx, s)
	default:
		return nil, fmt.Errorf("unknown provider: %s", s.Provider)
	}
}

// Close releases resources held by c, if it holds any.
func Close(c Client) error {
	if closer, ok := c.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func modelOr(req Request, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	return fallback
}

func maxTokensOr(req Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return defaultMaxTokens
}
