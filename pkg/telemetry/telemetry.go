// Package telemetry installs the OpenTelemetry tracer provider used by the
// HTTP tracing middleware.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/JaimeStill/speakeval/pkg/lifecycle"
)

// System owns the tracer provider for the process.
type System struct {
	cfg      *Config
	logger   *slog.Logger
	exporter sdktrace.SpanExporter
	provider *sdktrace.TracerProvider
}

// New prepares an OTLP gRPC exporter when tracing is enabled. Nothing
// connects until Start.
func New(cfg *Config, logger *slog.Logger) (*System, error) {
	s := &System{cfg: cfg, logger: logger.With("system", "telemetry")}
	if !cfg.Enabled {
		return s, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exp, err := otlptracegrpc.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}
	s.exporter = exp
	return s, nil
}

// NewWithExporter uses exp in place of the OTLP exporter.
func NewWithExporter(cfg *Config, exp sdktrace.SpanExporter, logger *slog.Logger) *System {
	return &System{cfg: cfg, logger: logger.With("system", "telemetry"), exporter: exp}
}

// Enabled reports whether spans are exported.
func (s *System) Enabled() bool {
	return s.exporter != nil
}

// Provider returns the installed provider, or nil when disabled or not started.
func (s *System) Provider() *sdktrace.TracerProvider {
	return s.provider
}

// Start installs the W3C propagator and, when enabled, the global tracer
// provider. The provider is flushed and shut down with the lifecycle.
func (s *System) Start(lc *lifecycle.Coordinator) error {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if s.exporter == nil {
		s.logger.Info("tracing disabled")
		return nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", s.cfg.ServiceName),
	))
	if err != nil {
		return fmt.Errorf("build resource: %w", err)
	}

	s.provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(s.exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(s.cfg.SampleRatio))),
	)
	otel.SetTracerProvider(s.provider)
	s.logger.Info("tracing enabled", "endpoint", s.cfg.Endpoint, "sample_ratio", s.cfg.SampleRatio)

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := s.provider.Shutdown(context.Background()); err != nil {
			s.logger.Error("tracer provider shutdown failed", "error", err)
		}
	})
	return nil
}
