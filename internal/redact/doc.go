// Package redact scrubs secrets from issue text before it is sent to an
// inference provider.
//
// Issue reporters regularly paste logs and config snippets that carry
// credentials. Detection uses regex heuristics for common secret shapes:
// API keys, JWTs, private key headers, AWS keys, bearer tokens, and
// provider-specific tokens (Anthropic, OpenAI, Google, GitHub, Slack).
// Matches are replaced with [REDACTED].
package redact
