// Package tracing wires an OpenTelemetry tracer provider for outbound submissions.
//
// Tracing is opt-in. While disabled no propagator is installed, so requests
// carry no trace headers.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/okian/formsubmit/pkg/logger"
)

// Supported OTLP protocols.
const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http/protobuf"
)

// ErrUnsupportedProtocol is returned for an unknown OTLP protocol.
var ErrUnsupportedProtocol = errors.New("unsupported OTLP protocol")

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Options configures Init.
type Options struct {
	Enabled     bool
	Protocol    string
	ServiceName string
}

// Init installs a global tracer provider with an OTLP exporter.
// A failed exporter degrades to a no-op and is logged, never fatal.
func Init(ctx context.Context, opts Options, log logger.Logger) (ShutdownFunc, error) {
	if !opts.Enabled {
		log.Debug(ctx, "tracing disabled")
		return noopShutdown, nil
	}

	name := opts.ServiceName
	if name == "" {
		name = "formsubmit"
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(name)),
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := newExporter(ctx, opts.Protocol)
	if err != nil {
		log.Error(ctx, "tracing init failed; continuing without traces", logger.Error(err))
		return noopShutdown, nil
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(sampler()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	log.Info(ctx, "tracing configured", logger.String("otlp_protocol", protocolOrDefault(opts.Protocol)))
	return tp.Shutdown, nil
}

func protocolOrDefault(p string) string {
	if p == "" {
		return ProtocolHTTP
	}
	return p
}

func newExporter(ctx context.Context, protocol string) (*otlptrace.Exporter, error) {
	switch protocolOrDefault(protocol) {
	case ProtocolGRPC:
		return otlptracegrpc.New(ctx)
	case ProtocolHTTP:
		return otlptracehttp.New(ctx)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProtocol, protocol)
	}
}

// sampler honours OTEL_TRACES_SAMPLER / OTEL_TRACES_SAMPLER_ARG.
func sampler() trace.Sampler {
	ratio := 1.0
	if arg := os.Getenv("OTEL_TRACES_SAMPLER_ARG"); arg != "" {
		if v, err := strconv.ParseFloat(arg, 64); err == nil {
			ratio = v
		}
	}

	switch os.Getenv("OTEL_TRACES_SAMPLER") {
	case "always_on":
		return trace.AlwaysSample()
	case "always_off":
		return trace.NeverSample()
	case "traceidratio":
		return trace.TraceIDRatioBased(ratio)
	case "parentbased_always_off":
		return trace.ParentBased(trace.NeverSample())
	case "parentbased_traceidratio":
		return trace.ParentBased(trace.TraceIDRatioBased(ratio))
	default:
		return trace.ParentBased(trace.AlwaysSample())
	}
}
