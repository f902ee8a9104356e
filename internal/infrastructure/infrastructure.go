// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, storage, telemetry,
// metrics) that domain systems require.
package infrastructure

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/JaimeStill/speakeval/internal/config"
	"github.com/JaimeStill/speakeval/pkg/database"
	"github.com/JaimeStill/speakeval/pkg/lifecycle"
	"github.com/JaimeStill/speakeval/pkg/logging"
	"github.com/JaimeStill/speakeval/pkg/storage"
	"github.com/JaimeStill/speakeval/pkg/telemetry"
)

// Infrastructure holds the core systems required by all domain modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Telemetry *telemetry.System
	Registry  *prometheus.Registry
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config, logOut io.Writer) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := logging.New(&cfg.Logging, logOut)

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	tel, err := telemetry.New(&cfg.Tracing, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Telemetry: tel,
		Registry:  NewRegistry(),
	}, nil
}

// NewRegistry returns a registry carrying the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Start initializes all infrastructure systems and registers them with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Telemetry.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("telemetry start failed: %w", err)
	}
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	return nil
}
