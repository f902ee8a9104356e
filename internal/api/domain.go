package api

import (
	"encoding/json"

	"github.com/JaimeStill/speakeval/internal/attempts"
	"github.com/JaimeStill/speakeval/internal/auth"
	"github.com/JaimeStill/speakeval/internal/config"
	"github.com/JaimeStill/speakeval/internal/embeddings"
	"github.com/JaimeStill/speakeval/internal/exams"
	"github.com/JaimeStill/speakeval/internal/scoring"
	"github.com/JaimeStill/speakeval/internal/speech"
	"github.com/JaimeStill/speakeval/internal/users"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Tokens   *auth.Tokens
	Users    users.System
	Auth     auth.System
	Exams    exams.System
	Attempts attempts.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime, cfg *config.Config) (*Domain, error) {
	db := runtime.Database.Connection()

	tokens := auth.NewTokens(cfg.Auth.Secret, cfg.Auth.TokenTTLDuration(), cfg.Auth.Issuer)

	usersSys := users.New(db, runtime.Logger)

	authSys := auth.New(usersSys, tokens, auth.DefaultHashParams, runtime.Logger)

	examsSys := exams.New(db, runtime.Logger, runtime.Pagination)

	transcriber := speech.New(speech.Config{
		Endpoint: cfg.Speech.Endpoint,
		APIKey:   cfg.Speech.APIKey,
		Timeout:  cfg.Speech.TimeoutDuration(),
	}, runtime.Logger)

	var inline json.RawMessage
	if cfg.Scoring.Embedding.Agent != "" {
		inline = json.RawMessage(cfg.Scoring.Embedding.Agent)
	}
	embedder, err := embeddings.New(embeddings.Config{
		AgentFile: cfg.Scoring.Embedding.AgentFile,
		Agent:     inline,
		Options:   cfg.Scoring.Embedding.Options,
		Timeout:   cfg.Scoring.Embedding.TimeoutDuration(),
	}, runtime.Logger)
	if err != nil {
		return nil, err
	}

	attemptsSys := attempts.New(
		attempts.NewStore(db),
		scoring.New(cfg.Scoring.Threshold).WithEmbedder(embedder),
		transcriber,
		runtime.Storage,
		runtime.Logger,
	)

	return &Domain{
		Tokens:   tokens,
		Users:    usersSys,
		Auth:     authSys,
		Exams:    examsSys,
		Attempts: attemptsSys,
	}, nil
}
