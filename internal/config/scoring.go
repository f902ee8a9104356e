package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvScoringThreshold = "SCORING_THRESHOLD"
	EnvScoringAgentFile = "SCORING_AGENT_FILE"
	EnvScoringAgent     = "SCORING_AGENT"
	EnvScoringTimeout   = "SCORING_TIMEOUT"

	defaultScoreThreshold = 0.80
	defaultEmbedTimeout   = "15s"
)

// ScoringConfig sets the similarity at or above which an answer earns full
// points and the embedding agent used to measure it.
type ScoringConfig struct {
	Threshold float64         `toml:"threshold"`
	Embedding EmbeddingConfig `toml:"embedding"`
}

// EmbeddingConfig names a go-agents agent definition, either as a JSON file
// or inline JSON. With neither set, answers are compared lexically.
type EmbeddingConfig struct {
	AgentFile string         `toml:"agent_file"`
	Agent     string         `toml:"agent"`
	Options   map[string]any `toml:"options"`
	Timeout   string         `toml:"timeout"`
}

// Enabled reports whether an embedding agent is configured.
func (c *EmbeddingConfig) Enabled() bool {
	return c.AgentFile != "" || c.Agent != ""
}

func (c *EmbeddingConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

func (c *ScoringConfig) Finalize() error {
	if c.Threshold == 0 {
		c.Threshold = defaultScoreThreshold
	}
	if c.Embedding.Timeout == "" {
		c.Embedding.Timeout = defaultEmbedTimeout
	}

	if v := os.Getenv(EnvScoringThreshold); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Threshold = f
		}
	}
	if v := os.Getenv(EnvScoringAgentFile); v != "" {
		c.Embedding.AgentFile = v
	}
	if v := os.Getenv(EnvScoringAgent); v != "" {
		c.Embedding.Agent = v
	}
	if v := os.Getenv(EnvScoringTimeout); v != "" {
		c.Embedding.Timeout = v
	}

	if c.Threshold <= 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be in (0, 1], got %v", c.Threshold)
	}
	if _, err := time.ParseDuration(c.Embedding.Timeout); err != nil {
		return fmt.Errorf("invalid embedding timeout: %w", err)
	}
	if c.Embedding.Agent != "" && !json.Valid([]byte(c.Embedding.Agent)) {
		return fmt.Errorf("embedding agent is not valid JSON")
	}
	return nil
}

func (c *ScoringConfig) Merge(overlay *ScoringConfig) {
	if overlay.Threshold != 0 {
		c.Threshold = overlay.Threshold
	}
	if overlay.Embedding.AgentFile != "" {
		c.Embedding.AgentFile = overlay.Embedding.AgentFile
	}
	if overlay.Embedding.Agent != "" {
		c.Embedding.Agent = overlay.Embedding.Agent
	}
	if overlay.Embedding.Options != nil {
		c.Embedding.Options = overlay.Embedding.Options
	}
	if overlay.Embedding.Timeout != "" {
		c.Embedding.Timeout = overlay.Embedding.Timeout
	}
}
