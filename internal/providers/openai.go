package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultGitHubModelsURL = "https://models.github.ai/inference"
	defaultOpenAIURL       = "https://api.openai.com/v1"
	defaultOllamaURL       = "http://localhost:11434/v1"
)

// OpenAI implements the Client interface for any OpenAI-compatible chat
// completions API: GitHub Models, OpenAI, and Ollama / LM Studio.
type OpenAI struct {
	name    string
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAI creates a client for s.Provider, which must be "github",
// "openai", or "ollama".
func NewOpenAI(s Settings) (*OpenAI, error) {
	var baseURL, key, keyVar string
	timeout := 120 * time.Second

	switch s.Provider {
	case "github":
		baseURL, keyVar = defaultGitHubModelsURL, "GITHUB_TOKEN"
	case "openai":
		baseURL, keyVar = defaultOpenAIURL, "OPENAI_API_KEY"
	case "ollama":
		baseURL, keyVar = defaultOllamaURL, "DUPECHECK_OLLAMA_API_KEY"
		if host := os.Getenv("OLLAMA_HOST"); host != "" {
			baseURL = host
		}
		timeout = 300 * time.Second
	default:
		return nil, fmt.Errorf("provider %q is not OpenAI-compatible", s.Provider)
	}

	if s.Endpoint != "" {
		baseURL = s.Endpoint
	}
	key = s.APIKey
	if key == "" {
		key = os.Getenv(keyVar)
	}
	// Local servers run without a key.
	if key == "" && s.Provider != "ollama" {
		return nil, fmt.Errorf("%s environment variable is not set", keyVar)
	}

	return &OpenAI{
		name:    s.Provider,
		apiKey:  key,
		model:   s.Model,
		baseURL: completionsURL(baseURL),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// completionsURL normalizes a base URL to its chat completions endpoint.
func completionsURL(base string) string {
	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, "/chat/completions") {
		return base
	}
	if !strings.Contains(base, "/v1") && !strings.Contains(base, "/inference") {
		base += "/v1"
	}
	return base + "/chat/completions"
}

func (o *OpenAI) Name() string { return o.name }

func (o *OpenAI) Complete(ctx context.Context, req Request) (Response, error) {
	body := openaiRequest{
		Model: modelOr(req, o.model),
		Messages: []openaiMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		MaxTokens: maxTokensOr(req),
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL, bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	httpResp, err := o.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("sending request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("reading response: %w", err)
	}
	if err := statusError(httpResp.StatusCode, string(respBody)); err != nil {
		return Response{}, err
	}

	var result openaiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return Response{}, fmt.Errorf("parsing response: %w", err)
	}
	if len(result.Choices) == 0 {
		return Response{}, fmt.Errorf("no choices in response")
	}
	if result.Choices[0].Message.Content == "" {
		return Response{}, fmt.Errorf("empty text content in API response")
	}

	return Response{
		Content:    result.Choices[0].Message.Content,
		TokensUsed: result.Usage.TotalTokens,
	}, nil
}

type openaiRequest struct {
	Model     string          `json:"model"`
	Messages  []openaiMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []openaiChoice `json:"choices"`
	Usage   openaiUsage    `json:"usage"`
}

type openaiChoice struct {
	Message openaiMessage `json:"message"`
}

type openaiUsage struct {
	TotalTokens int `json:"total_tokens"`
}
