package redact

import (
	"regexp"

	"github.com/dshills/dupecheck/internal/detect"
)

const placeholder = "[REDACTED]"

// secretPatterns are regex heuristics for common secret types.
var secretPatterns = []*regexp.Regexp{
	// Generic API keys (long hex/base64 strings after common key patterns)
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`),
	// AWS access key IDs
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	// AWS secret access keys
	regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`),
	// Generic secrets/tokens/passwords in assignments
	regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["']([^"']{8,})["']`),
	// Bearer tokens
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`),
	// JWTs
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	// Private key headers
	regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|OPENSSH\s+)?PRIVATE KEY-----`),
	// GitHub tokens, classic and fine-grained
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	regexp.MustCompile(`github_pat_[A-Za-z0-9_]{22,}`),
	// Slack tokens
	regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`),
	// Google API keys
	regexp.MustCompile(`AIza[0-9A-Za-z_-]{35}`),
	// Anthropic API keys
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
	// OpenAI API keys
	regexp.MustCompile(`sk-(proj-)?[A-Za-z0-9]{20,}`),
}

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	out, _ := scrub(text)
	return out
}

func scrub(text string) (string, int) {
	n := 0
	for _, pat := range secretPatterns {
		text = pat.ReplaceAllStringFunc(text, func(string) string {
			n++
			return placeholder
		})
	}
	return text, n
}

// Redactor scrubs issue text and counts what it removed.
type Redactor struct {
	enabled bool
	count   int
}

// New returns a Redactor. A disabled Redactor returns its input unchanged.
func New(enabled bool) *Redactor {
	return &Redactor{enabled: enabled}
}

// Count returns the number of secrets replaced so far.
func (r *Redactor) Count() int { return r.count }

// Text scrubs a single string.
func (r *Redactor) Text(s string) string {
	if !r.enabled {
		return s
	}
	out, n := scrub(s)
	r.count += n
	return out
}

// Target returns a copy of t with title and body scrubbed.
func (r *Redactor) Target(t detect.Target) detect.Target {
	t.Title = r.Text(t.Title)
	t.Body = r.Text(t.Body)
	return t
}

// Candidates returns scrubbed copies of cs. The input slice is not modified.
func (r *Redactor) Candidates(cs []detect.Candidate) []detect.Candidate {
	if !r.enabled {
		return cs
	}
	out := make([]detect.Candidate, len(cs))
	for i, c := range cs {
		c.Title = r.Text(c.Title)
		c.Body = r.Text(c.Body)
		out[i] = c
	}
	return out
}
