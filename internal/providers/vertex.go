package providers

import (
	"context"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"
)

const defaultVertexLocation = "us-central1"

// Vertex implements the Client interface using Gemini models on Vertex AI.
type Vertex struct {
	client *genai.Client
	model  string
}

// NewVertex creates a Vertex AI client. Credentials come from
// GOOGLE_APPLICATION_CREDENTIALS or the ambient Google Cloud environment.
func NewVertex(ctx context.Context, s Settings) (*Vertex, error) {
	project := s.Vertex.Project
	if project == "" {
		project = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}
	if project == "" {
		return nil, fmt.Errorf("vertex project is not set (vertex.project or GOOGLE_CLOUD_PROJECT)")
	}
	location := s.Vertex.Location
	if location == "" {
		location = os.Getenv("GOOGLE_CLOUD_LOCATION")
	}
	if location == "" {
		location = defaultVertexLocation
	}

	var opts []option.ClientOption
	if creds := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); creds != "" {
		opts = append(opts, option.WithCredentialsFile(creds))
	}
	if s.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.Endpoint))
	}

	client, err := genai.NewClient(ctx, project, location, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}
	return &Vertex{client: client, model: s.Model}, nil
}

func (v *Vertex) Name() string { return "vertex" }

func (v *Vertex) Complete(ctx context.Context, req Request) (Response, error) {
	model := v.client.GenerativeModel(modelOr(req, v.model))
	model.SetMaxOutputTokens(int32(maxTokensOr(req)))
	if req.SystemPrompt != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.SystemPrompt)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.UserPrompt))
	if err != nil {
		return Response{}, fmt.Errorf("generating content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Response{}, fmt.Errorf("no candidates in response")
	}

	var content strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			content.WriteString(string(text))
		}
	}
	if content.Len() == 0 {
		return Response{}, fmt.Errorf("empty text content in API response")
	}

	out := Response{Content: content.String()}
	if resp.UsageMetadata != nil {
		out.TokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}
	return out, nil
}

// Close closes the underlying Vertex AI client.
func (v *Vertex) Close() error {
	return v.client.Close()
}
