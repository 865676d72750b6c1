// Package metrics provides Prometheus metrics for form submissions.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels recorded for settled submissions.
const (
	OutcomeCompleted = "completed"
	OutcomeTransport = "transport_error"
	OutcomeStatus    = "unexpected_status"
	OutcomeEncode    = "encode_error"
)

// payloadSizeBuckets covers small text-only forms up to multi-megabyte uploads.
var payloadSizeBuckets = prometheus.ExponentialBuckets(256, 4, 10) //nolint:gochecknoglobals,mnd // fixed bucket layout

// Manager manages all Prometheus metrics for submissions.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	submissions    prometheus.Counter
	outcomes       *prometheus.CounterVec
	responses      *prometheus.CounterVec
	requestLatency prometheus.Histogram
	payloadBytes   prometheus.Histogram
	inFlight       prometheus.Gauge
	filePartsTotal prometheus.Counter
	textPartsTotal prometheus.Counter
	preventedTotal prometheus.Counter
	unboundSubmits prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "formsubmit",
		subsystem:        "client",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(base string) string {
	if m.metricPrefix == "" {
		return base
	}
	return m.metricPrefix + "_" + base
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.submissions = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("submissions_total"),
		Help:        "Total number of submission events handled",
		ConstLabels: labels,
	})

	m.outcomes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("outcomes_total"),
		Help:        "Settled submissions by outcome",
		ConstLabels: labels,
	}, []string{"outcome"})

	m.responses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("responses_total"),
		Help:        "Responses received from the submit endpoint by status class",
		ConstLabels: labels,
	}, []string{"status_class"})

	m.requestLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("request_duration_seconds"),
		Help:        "Time from dispatch until the request settled",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.payloadBytes = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("payload_bytes"),
		Help:        "Encoded multipart body size",
		Buckets:     payloadSizeBuckets,
		ConstLabels: labels,
	})

	m.inFlight = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("in_flight"),
		Help:        "Requests dispatched and not yet settled",
		ConstLabels: labels,
	})

	m.textPartsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("text_parts_total"),
		Help:        "Text parts encoded into submission payloads",
		ConstLabels: labels,
	})

	m.filePartsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("file_parts_total"),
		Help:        "File parts encoded into submission payloads",
		ConstLabels: labels,
	})

	m.preventedTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("default_prevented_total"),
		Help:        "Submission events whose default navigation was suppressed",
		ConstLabels: labels,
	})

	m.unboundSubmits = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("unbound_submissions_total"),
		Help:        "Submission events received before a form was bound",
		ConstLabels: labels,
	})
}

// StatusClass maps an HTTP status code to its class label, e.g. 404 -> "4xx".
func StatusClass(code int) string {
	if code < 100 || code > 599 {
		return "other"
	}
	return strconv.Itoa(code/100) + "xx" //nolint:mnd // status class divisor
}

// RecordSubmission counts one handled submission event.
func (m *Manager) RecordSubmission() {
	if m.enabled {
		m.submissions.Inc()
	}
}

// RecordDefaultPrevented counts one suppressed default action.
func (m *Manager) RecordDefaultPrevented() {
	if m.enabled {
		m.preventedTotal.Inc()
	}
}

// RecordUnbound counts a submission received without a bound form.
func (m *Manager) RecordUnbound() {
	if m.enabled {
		m.unboundSubmits.Inc()
	}
}

// RecordPayload records the encoded size and part mix of one payload.
func (m *Manager) RecordPayload(bytes int64, textParts, fileParts int) {
	if !m.enabled {
		return
	}
	m.payloadBytes.Observe(float64(bytes))
	m.textPartsTotal.Add(float64(textParts))
	m.filePartsTotal.Add(float64(fileParts))
}

// RecordDispatch marks a request as in flight.
func (m *Manager) RecordDispatch() {
	if m.enabled {
		m.inFlight.Inc()
	}
}

// RecordSettled closes an in-flight request with its outcome, status and latency.
// statusCode is zero when no response was received.
func (m *Manager) RecordSettled(outcome string, statusCode int, seconds float64) {
	if !m.enabled {
		return
	}
	m.inFlight.Dec()
	m.outcomes.WithLabelValues(outcome).Inc()
	if statusCode != 0 {
		m.responses.WithLabelValues(StatusClass(statusCode)).Inc()
	}
	m.requestLatency.Observe(seconds)
}

// RecordEncodeError counts a payload that could not be encoded.
func (m *Manager) RecordEncodeError() {
	if m.enabled {
		m.outcomes.WithLabelValues(OutcomeEncode).Inc()
	}
}

// Default returns the process-wide manager bound to the custom registry.
func Default() *Manager {
	return globalManager
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile writes the custom registry in the node-exporter textfile format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return nil
}
