// Package api assembles the JSON API module: domain systems, their
// handlers, the generated OpenAPI document and the module middleware.
package api

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JaimeStill/speakeval/internal/config"
	"github.com/JaimeStill/speakeval/internal/infrastructure"
	"github.com/JaimeStill/speakeval/pkg/middleware"
	"github.com/JaimeStill/speakeval/pkg/module"
	"github.com/JaimeStill/speakeval/pkg/openapi"
	"github.com/JaimeStill/speakeval/pkg/views"
)

func NewModule(
	cfg *config.Config,
	infra *infrastructure.Infrastructure,
	metrics *middleware.Metrics,
	table *views.Table,
) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain, err := NewDomain(runtime, cfg)
	if err != nil {
		return nil, err
	}

	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.Domain)

	mux := http.NewServeMux()
	registerRoutes(mux, spec, runtime, domain, table, cfg)

	specBytes, err := openapi.MarshalJSON(spec)
	if err != nil {
		return nil, err
	}
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(specBytes))

	m := module.New(cfg.API.BasePath, mux)
	m.Use(chimw.RequestID)
	m.Use(chimw.RealIP)
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(chimw.Recoverer)
	if metrics != nil {
		m.Use(metrics.Instrument("api"))
	}
	m.Use(middleware.Tracing("speakeval/api"))
	m.Use(middleware.CORS(&cfg.API.CORS))

	return m, nil
}
