// Package tracing sets up OpenTelemetry for devdeck. When tracing is
// disabled every tracer it hands out is a no-op.
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/justinpbarnett/devdeck/internal/config"
)

const defaultServiceName = "devdeck"

// Provider wraps the SDK tracer provider so callers can hand out tracers and
// flush on exit without caring whether tracing is on.
type Provider struct {
	provider *sdktrace.TracerProvider
	noop     trace.TracerProvider
	service  string
}

// NewProvider builds a provider from config and installs it as the global
// provider when tracing is enabled.
func NewProvider(cfg config.TracingConfig) (*Provider, error) {
	return newProvider(cfg, os.Stdout)
}

func newProvider(cfg config.TracingConfig, stdout io.Writer) (*Provider, error) {
	service := cfg.ServiceName
	if service == "" {
		service = defaultServiceName
	}
	if !cfg.IsEnabled() {
		return &Provider{noop: noop.NewTracerProvider(), service: service}, nil
	}

	var exporter sdktrace.SpanExporter
	var err error
	switch cfg.Exporter {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(stdout), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
	case "otlp":
		exporter, err = otlptracegrpc.New(
			context.Background(),
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("create otlp exporter: %w", err)
		}
	case "none", "":
	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", cfg.Exporter)
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	opts := []sdktrace.TracerProviderOption{
		// NewSchemaless avoids schema URL conflicts with resource.Default().
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", service))),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRate))),
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	return &Provider{provider: tp, service: service}, nil
}

// Tracer returns a named tracer. It is a no-op tracer when tracing is off.
func (p *Provider) Tracer(name string) trace.Tracer {
	if p.provider == nil {
		return p.noop.Tracer(name)
	}
	return p.provider.Tracer(name)
}

func (p *Provider) Enabled() bool { return p.provider != nil }

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.provider == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}
