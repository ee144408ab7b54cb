package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dshills/dupecheck/internal/detect"
)

var (
	validProviders = []string{"github", "openai", "anthropic", "ollama", "vertex"}
	validStates    = []string{"all", "open", "closed"}
	validFormats   = []string{"markdown", "json"}
	validFailOn    = []string{"none", "low", "medium", "high"}
)

// sinceLayouts are tried in order by ParseSince.
var sinceLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Validate checks cfg before any network call. Every error wraps
// detect.ErrInvalidArgument.
func Validate(cfg Config) error {
	if !slices.Contains(validProviders, cfg.Provider) {
		return invalid("invalid provider %q: must be one of %s", cfg.Provider, strings.Join(validProviders, ", "))
	}
	if cfg.BatchSize < 1 || cfg.BatchSize > detect.MaxBatchSize {
		return invalid("invalid batch size %d: must be between 1 and %d", cfg.BatchSize, detect.MaxBatchSize)
	}
	if !slices.Contains(validStates, cfg.State) {
		return invalid("invalid state %q: must be one of %s", cfg.State, strings.Join(validStates, ", "))
	}
	if _, err := ParseSince(cfg.Since); err != nil {
		return err
	}
	if !slices.Contains(validFormats, cfg.Format) {
		return invalid("invalid format %q: must be one of %s", cfg.Format, strings.Join(validFormats, ", "))
	}
	if !slices.Contains(validFailOn, cfg.FailOn) {
		return invalid("invalid failOn %q: must be one of %s", cfg.FailOn, strings.Join(validFailOn, ", "))
	}
	if cfg.MaxTokens < 1 {
		return invalid("invalid maxTokens %d: must be positive", cfg.MaxTokens)
	}
	if cfg.Concurrency < 1 {
		return invalid("invalid concurrency %d: must be at least 1", cfg.Concurrency)
	}
	if cfg.RequestsPerMinute < 0 {
		return invalid("invalid requestsPerMinute %d: must not be negative", cfg.RequestsPerMinute)
	}
	if cfg.Cache.Enabled && cfg.Cache.TTLSeconds < 0 {
		return invalid("invalid cache.ttlSeconds %d: must not be negative", cfg.Cache.TTLSeconds)
	}
	return nil
}

// ParseSince parses the since filter. An empty string yields the zero time.
func ParseSince(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range sinceLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, invalid("invalid since date %q: expected a date such as 2024-01-31 or 2024-01-31T15:04:05Z", s)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", detect.ErrInvalidArgument, fmt.Sprintf(format, args...))
}
