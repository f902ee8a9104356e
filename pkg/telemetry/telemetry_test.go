package telemetry_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/JaimeStill/speakeval/pkg/lifecycle"
	"github.com/JaimeStill/speakeval/pkg/telemetry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConfig_Finalize(t *testing.T) {
	t.Setenv("TEST_TRACING_ENABLED", "true")
	t.Setenv("TEST_TRACING_RATIO", "0.25")

	cfg := &telemetry.Config{}
	err := cfg.Finalize(&telemetry.Env{Enabled: "TEST_TRACING_ENABLED", SampleRatio: "TEST_TRACING_RATIO"})
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if !cfg.Enabled || cfg.SampleRatio != 0.25 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Endpoint != "localhost:4317" || cfg.ServiceName != "speakeval" {
		t.Errorf("defaults = %q %q", cfg.Endpoint, cfg.ServiceName)
	}
}

func TestConfig_Finalize_BadRatio(t *testing.T) {
	cfg := &telemetry.Config{SampleRatio: 2}
	if err := cfg.Finalize(nil); err == nil {
		t.Error("Finalize() should reject ratio > 1")
	}
}

func TestSystem_Disabled(t *testing.T) {
	cfg := &telemetry.Config{}
	cfg.Finalize(nil)

	sys, err := telemetry.New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if sys.Enabled() {
		t.Error("Enabled() = true for disabled config")
	}
	if err := sys.Start(lifecycle.New()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if sys.Provider() != nil {
		t.Error("Provider() should be nil when disabled")
	}
}

func TestSystem_ExportsSpans(t *testing.T) {
	cfg := &telemetry.Config{Enabled: true}
	cfg.Finalize(nil)

	exp := tracetest.NewInMemoryExporter()
	sys := telemetry.NewWithExporter(cfg, exp, testLogger())

	lc := lifecycle.New()
	if err := sys.Start(lc); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	_, span := otel.Tracer("test").Start(context.Background(), "resolve")
	span.End()

	if err := sys.Provider().ForceFlush(context.Background()); err != nil {
		t.Fatalf("ForceFlush() error = %v", err)
	}

	spans := exp.GetSpans()
	if len(spans) != 1 || spans[0].Name != "resolve" {
		t.Fatalf("spans = %v", spans)
	}

	if err := lc.Shutdown(time.Second); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
