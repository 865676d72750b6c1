package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables that steer loading itself.
const (
	envPrefix  = "FORMSUBMIT_"
	envConfig  = "FORMSUBMIT_CONFIG"
	envEnvFile = "FORMSUBMIT_ENV_FILE"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if FORMSUBMIT_CONFIG is set
//  3. env (prefix FORMSUBMIT_), optionally seeded from the dotenv file named
//     by FORMSUBMIT_ENV_FILE; variables already set in the process win
//
// Load does not validate; callers apply their own overrides and then call Validate.
func Load(_ context.Context) (*Config, error) {
	base := New()

	if path := os.Getenv(envEnvFile); path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("%w: env file %s: %w", ErrLoadConfig, path, err)
		}
	}

	k := koanf.New(".")

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// FORMSUBMIT_BASE_URL -> base_url; underscores are kept to match koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	return &cfg, nil
}

// Validate checks the fields a submitter cannot run without.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: base_url must be an absolute http(s) URL, got %q", ErrInvalidConfig, c.BaseURL)
	}
	if !strings.HasPrefix(c.SubmitPath, "/") {
		return fmt.Errorf("%w: submit_path must start with '/', got %q", ErrInvalidConfig, c.SubmitPath)
	}
	if c.Submissions < 1 {
		return fmt.Errorf("%w: submissions must be at least 1", ErrInvalidConfig)
	}
	if c.TimeoutMS < 0 {
		return fmt.Errorf("%w: timeout_ms must not be negative", ErrInvalidConfig)
	}
	return nil
}
