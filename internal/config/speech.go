package config

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

const (
	EnvSpeechEndpoint = "SPEECH_ENDPOINT"
	EnvSpeechAPIKey   = "SPEECH_API_KEY"
	EnvSpeechTimeout  = "SPEECH_TIMEOUT"
)

// SpeechConfig points at the transcription service. An empty endpoint
// disables audio submission.
type SpeechConfig struct {
	Endpoint string `toml:"endpoint"`
	APIKey   string `toml:"api_key"`
	Timeout  string `toml:"timeout"`
}

func (c *SpeechConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

func (c *SpeechConfig) Finalize() error {
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if v := os.Getenv(EnvSpeechEndpoint); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv(EnvSpeechAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvSpeechTimeout); v != "" {
		c.Timeout = v
	}

	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if c.Endpoint != "" {
		u, err := url.Parse(c.Endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid endpoint %q", c.Endpoint)
		}
	}
	return nil
}

func (c *SpeechConfig) Merge(overlay *SpeechConfig) {
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}
