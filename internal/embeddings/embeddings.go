// Package embeddings provides sentence embeddings for answer scoring through
// a go-agents agent.
package embeddings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/JaimeStill/go-agents/pkg/agent"
	agtconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/JaimeStill/speakeval/internal/scoring"
)

var (
	ErrInvalidConfig = errors.New("invalid embedding agent config")
	ErrEmptyVector   = errors.New("embedding response has no vector")
)

// Config locates the go-agents agent definition used for embeddings.
type Config struct {
	// AgentFile is a JSON go-agents AgentConfig. Ignored when Agent is set.
	AgentFile string
	// Agent is an inline JSON go-agents AgentConfig.
	Agent   json.RawMessage
	Options map[string]any
	Timeout time.Duration
}

type embedFunc func(ctx context.Context, input string) (any, error)

// Agent embeds text with a go-agents agent.
type Agent struct {
	embed   embedFunc
	timeout time.Duration
	logger  *slog.Logger
}

// New builds the embedding agent described by cfg. When cfg names no agent
// it returns scoring.Unavailable so that scoring stays lexical.
func New(cfg Config, logger *slog.Logger) (scoring.Embedder, error) {
	logger = logger.With("system", "embeddings")

	raw, err := cfg.agentConfig()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		logger.Warn("no embedding agent configured, scoring is lexical")
		return scoring.Unavailable(), nil
	}

	agentCfg := agtconfig.DefaultAgentConfig()

	var userCfg agtconfig.AgentConfig
	if err := json.Unmarshal(raw, &userCfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	agentCfg.Merge(&userCfg)

	a, err := agent.New(&agentCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	options := cfg.Options
	logger.Info("embedding agent ready")

	return &Agent{
		embed: func(ctx context.Context, input string) (any, error) {
			return a.Embed(ctx, input, options)
		},
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

func (c Config) agentConfig() (json.RawMessage, error) {
	if len(c.Agent) > 0 {
		return c.Agent, nil
	}
	if c.AgentFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.AgentFile)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidConfig, c.AgentFile, err)
	}
	return data, nil
}

// Embed returns the first vector of the agent's embeddings response.
func (a *Agent) Embed(ctx context.Context, text string) ([]float64, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := a.embed(ctx, text)
	if err != nil {
		return nil, err
	}

	vec, err := vector(resp)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("text embedded", "dimensions", len(vec), "duration", time.Since(start))
	return vec, nil
}

// payload accepts the OpenAI data list as well as the Ollama embeddings
// forms. Field matching is case-insensitive, so untagged response structs
// decode too.
type payload struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Embeddings [][]float64 `json:"embeddings"`
	Embedding  []float64   `json:"embedding"`
}

// vector normalises a provider response through its JSON form.
func vector(resp any) ([]float64, error) {
	b, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode embedding response: %w", err)
	}

	var p payload
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}

	switch {
	case len(p.Data) > 0 && len(p.Data[0].Embedding) > 0:
		return p.Data[0].Embedding, nil
	case len(p.Embeddings) > 0 && len(p.Embeddings[0]) > 0:
		return p.Embeddings[0], nil
	case len(p.Embedding) > 0:
		return p.Embedding, nil
	}
	return nil, ErrEmptyVector
}
