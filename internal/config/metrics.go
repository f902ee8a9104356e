package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	EnvMetricsEnabled   = "METRICS_ENABLED"
	EnvMetricsPath      = "METRICS_PATH"
	EnvMetricsNamespace = "METRICS_NAMESPACE"
)

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `toml:"enabled"`
	Path      string `toml:"path"`
	Namespace string `toml:"namespace"`
}

func (c *MetricsConfig) Finalize() error {
	if c.Path == "" {
		c.Path = "/metrics"
	}
	if c.Namespace == "" {
		c.Namespace = "speakeval"
	}
	if v := os.Getenv(EnvMetricsEnabled); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Enabled = b
		}
	}
	if v := os.Getenv(EnvMetricsPath); v != "" {
		c.Path = v
	}
	if v := os.Getenv(EnvMetricsNamespace); v != "" {
		c.Namespace = v
	}

	if !strings.HasPrefix(c.Path, "/") || strings.Count(c.Path, "/") != 1 || c.Path == "/" {
		return fmt.Errorf("path must be a single segment like /metrics, got %q", c.Path)
	}
	return nil
}

func (c *MetricsConfig) Merge(overlay *MetricsConfig) {
	if overlay.Enabled {
		c.Enabled = true
	}
	if overlay.Path != "" {
		c.Path = overlay.Path
	}
	if overlay.Namespace != "" {
		c.Namespace = overlay.Namespace
	}
}
