// Package config defines submitter configuration and its loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"time"
)

// DefaultSubmitPath is the fixed endpoint path submissions are posted to.
const DefaultSubmitPath = "/submit_form"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// BaseURL is the origin the submit path is resolved against, e.g. "http://localhost:8080".
	BaseURL string `koanf:"base_url"`

	// SubmitPath is the endpoint path; "/submit_form" unless overridden.
	SubmitPath string `koanf:"submit_path"`

	// TimeoutMS bounds a single request. Zero means no timeout.
	TimeoutMS int `koanf:"timeout_ms"`

	// StrictStatus reports non-2xx responses as failures instead of success.
	StrictStatus bool `koanf:"strict_status"`

	// FormFile points at a YAML form definition.
	FormFile string `koanf:"form_file"`

	// Submissions is how many times the CLI host submits the form.
	Submissions int `koanf:"submissions"`

	// MetricsFile, when set, receives a Prometheus textfile on exit.
	MetricsFile string `koanf:"metrics_file"`

	// TracingEnabled installs an OTLP tracer provider.
	TracingEnabled bool `koanf:"tracing_enabled"`

	// OTLPProtocol selects "http/protobuf" or "grpc".
	OTLPProtocol string `koanf:"otlp_protocol"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:     "info",
		BaseURL:      "http://localhost:8080",
		SubmitPath:   DefaultSubmitPath,
		Submissions:  1,
		OTLPProtocol: "http/protobuf",
	}
}

// Timeout returns TimeoutMS as a duration.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutMS <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutMS) * time.Millisecond
}
