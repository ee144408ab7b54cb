// Package providers implements the Client interface for each supported LLM
// inference service.
//
// Supported providers: GitHub Models, OpenAI, and Ollama / LM Studio through
// the OpenAI-compatible chat completions API; Anthropic through its Go SDK;
// and Gemini on Vertex AI.
//
// Calls are made once. Failures are returned as typed errors (see
// [IsAuthError] and [IsRateLimited]) and never retried here. [NewPaced] adds
// client-side request pacing for rate-limited endpoints.
//
// Use [New] to obtain a Client from [Settings].
package providers
