package app

import (
	"net/http"
	"time"

	"github.com/okian/formsubmit/pkg/logger"
	"github.com/okian/formsubmit/pkg/metrics"
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option applies a configuration option to the Handler.
type Option func(*Handler)

// WithBaseURL sets the origin the submit path resolves against.
func WithBaseURL(base string) Option {
	return func(h *Handler) {
		if base != "" {
			h.baseURL = base
		}
	}
}

// WithSubmitPath overrides the endpoint path.
func WithSubmitPath(path string) Option {
	return func(h *Handler) {
		if path != "" {
			h.submitPath = path
		}
	}
}

// WithClient sets the HTTP client used to dispatch requests.
func WithClient(client Doer) Option {
	return func(h *Handler) {
		if client != nil {
			h.client = client
		}
	}
}

// WithTimeout bounds each request. Zero keeps requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithStrictStatus reports non-2xx responses as failures.
func WithStrictStatus(strict bool) Option {
	return func(h *Handler) {
		h.strictStatus = strict
	}
}

// WithLogger sets the diagnostic log sink.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(h *Handler) {
		if m != nil {
			h.metrics = m
		}
	}
}

// WithForm binds form at construction time.
func WithForm(f Form) Option {
	return func(h *Handler) {
		h.form = f
	}
}
