package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dshills/dupecheck/internal/detect"
)

// Config represents the dupecheck configuration.
type Config struct {
	Provider          string        `yaml:"provider" env:"DUPECHECK_PROVIDER"`
	Model             string        `yaml:"model" env:"DUPECHECK_MODEL"`
	Endpoint          string        `yaml:"endpoint" env:"DUPECHECK_ENDPOINT"`
	MaxTokens         int           `yaml:"maxTokens" env:"DUPECHECK_MAX_TOKENS"`
	SystemPrompt      string        `yaml:"systemPrompt" env:"DUPECHECK_SYSTEM_PROMPT"`
	BatchSize         int           `yaml:"batchSize" env:"DUPECHECK_BATCH_SIZE"`
	Concurrency       int           `yaml:"concurrency" env:"DUPECHECK_CONCURRENCY"`
	RequestsPerMinute int           `yaml:"requestsPerMinute" env:"DUPECHECK_REQUESTS_PER_MINUTE"`
	State             string        `yaml:"state" env:"DUPECHECK_STATE"`
	Since             string        `yaml:"since,omitempty" env:"DUPECHECK_SINCE"`
	Labels            []string      `yaml:"labels,omitempty" env:"DUPECHECK_LABELS" env-separator:","`
	Comment           bool          `yaml:"comment" env:"DUPECHECK_COMMENT"`
	Format            string        `yaml:"format" env:"DUPECHECK_FORMAT"`
	FailOn            string        `yaml:"failOn" env:"DUPECHECK_FAIL_ON"`
	LenientFences     bool          `yaml:"lenientFences" env:"DUPECHECK_LENIENT_FENCES"`
	Cache             CacheConfig   `yaml:"cache"`
	Privacy           PrivacyConfig `yaml:"privacy"`
	Vertex            VertexConfig  `yaml:"vertex"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled" env:"DUPECHECK_CACHE_ENABLED"`
	Dir        string `yaml:"dir,omitempty" env:"DUPECHECK_CACHE_DIR"`
	TTLSeconds int    `yaml:"ttlSeconds" env:"DUPECHECK_CACHE_TTL_SECONDS"`
}

// PrivacyConfig controls privacy/redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool `yaml:"redactSecrets" env:"DUPECHECK_REDACT_SECRETS"`
}

// VertexConfig selects the Google Cloud project for the vertex provider.
type VertexConfig struct {
	Project  string `yaml:"project,omitempty" env:"DUPECHECK_VERTEX_PROJECT"`
	Location string `yaml:"location,omitempty" env:"DUPECHECK_VERTEX_LOCATION"`
}

// DefaultSystemPrompt frames the model as a triage assistant. The output
// rules travel in the user prompt of every batch.
const DefaultSystemPrompt = "You are an assistant that helps maintainers triage GitHub issues by finding existing issues that report the same problem."

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:     "github",
		MaxTokens:    2048,
		SystemPrompt: DefaultSystemPrompt,
		BatchSize:    20,
		Concurrency:  1,
		State:        "all",
		Comment:      true,
		Format:       "markdown",
		FailOn:       "none",
		Cache: CacheConfig{
			Enabled:    false,
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: false,
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for dupecheck.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "dupecheck"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "dupecheck"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "dupecheck"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "dupecheck"), nil
	default:
		return filepath.Join(home, ".config", "dupecheck"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Save writes the config to path, or to ConfigPath when path is empty.
func Save(cfg Config, path string) error {
	if path == "" {
		var err error
		if path, err = ConfigPath(); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadFile returns the defaults overlaid with the file at path only,
// ignoring the environment. A missing file yields the defaults. It backs
// edits to the file so that environment values are not written into it.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Load builds the effective config by merging:
// defaults <- .env <- file <- env <- overrides.
// path selects the config file; empty means ConfigPath. A missing file is
// not an error. The overrides map comes from CLI flags (only explicitly set
// values should be present).
func Load(path string, overrides map[string]string) (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}

	explicit := path != ""
	if !explicit {
		var err error
		if path, err = ConfigPath(); err != nil {
			return Config{}, err
		}
	}

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else if explicit || !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("reading environment: %w", err)
	}

	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	cfg.Labels = splitLabels(cfg.Labels)
	return cfg, nil
}

// loadDotEnv reads .env from the working directory without overriding
// variables that are already set.
func loadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for key, value := range overrides {
		if err := SetField(cfg, key, value); err != nil {
			return fmt.Errorf("%w: %v", detect.ErrInvalidArgument, err)
		}
	}
	return nil
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "endpoint":
		cfg.Endpoint = value
	case "systemPrompt":
		cfg.SystemPrompt = value
	case "state":
		cfg.State = value
	case "since":
		cfg.Since = value
	case "labels":
		cfg.Labels = splitLabels(strings.Split(value, ","))
	case "format":
		cfg.Format = value
	case "failOn":
		cfg.FailOn = value
	case "cache.dir":
		cfg.Cache.Dir = value
	case "vertex.project":
		cfg.Vertex.Project = value
	case "vertex.location":
		cfg.Vertex.Location = value
	case "maxTokens", "batchSize", "concurrency", "requestsPerMinute", "cache.ttlSeconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		*intField(cfg, key) = n
	case "comment", "lenientFences", "cache.enabled", "privacy.redactSecrets":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false: %w", key, err)
		}
		*boolField(cfg, key) = b
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func intField(cfg *Config, key string) *int {
	switch key {
	case "maxTokens":
		return &cfg.MaxTokens
	case "batchSize":
		return &cfg.BatchSize
	case "concurrency":
		return &cfg.Concurrency
	case "requestsPerMinute":
		return &cfg.RequestsPerMinute
	default:
		return &cfg.Cache.TTLSeconds
	}
}

func boolField(cfg *Config, key string) *bool {
	switch key {
	case "comment":
		return &cfg.Comment
	case "lenientFences":
		return &cfg.LenientFences
	case "cache.enabled":
		return &cfg.Cache.Enabled
	default:
		return &cfg.Privacy.RedactSecrets
	}
}

// splitLabels trims every entry and drops empty ones. Entries may
// themselves contain commas when they came from a single env value.
func splitLabels(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
