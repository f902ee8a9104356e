package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/JaimeStill/speakeval/pkg/logging"
)

func TestConfig_Finalize(t *testing.T) {
	t.Setenv("TEST_LOG_LEVEL", "debug")

	cfg := &logging.Config{}
	if err := cfg.Finalize(&logging.Env{Level: "TEST_LOG_LEVEL", Format: "TEST_LOG_FORMAT"}); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if cfg.Level != logging.LevelDebug {
		t.Errorf("Level = %q, want debug", cfg.Level)
	}
	if cfg.Format != logging.FormatText {
		t.Errorf("Format = %q, want text", cfg.Format)
	}
	if cfg.Service != logging.DefaultService {
		t.Errorf("Service = %q", cfg.Service)
	}
}

func TestConfig_Finalize_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  logging.Config
	}{
		{"level", logging.Config{Level: "verbose"}},
		{"format", logging.Config{Format: "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Finalize(nil); err == nil {
				t.Error("Finalize() should fail")
			}
		})
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&logging.Config{
		Level:   logging.LevelInfo,
		Format:  logging.FormatJSON,
		Service: "speakeval",
	}, &buf)

	logger.Debug("hidden")
	logger.Info("visible", "exam_id", "42")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if record["service"] != "speakeval" || record["exam_id"] != "42" {
		t.Errorf("record = %v", record)
	}
}
