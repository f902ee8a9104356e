package main

import (
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JaimeStill/speakeval/internal/api"
	"github.com/JaimeStill/speakeval/internal/config"
	"github.com/JaimeStill/speakeval/internal/infrastructure"
	"github.com/JaimeStill/speakeval/pkg/middleware"
	"github.com/JaimeStill/speakeval/pkg/module"
	"github.com/JaimeStill/speakeval/web/app"
	"github.com/JaimeStill/speakeval/web/scalar"
)

// Modules holds the prefixed API and docs modules plus the web app, which
// serves every path no module claims. Scalar is nil when the reference is
// disabled.
type Modules struct {
	API    *module.Module
	Scalar *module.Module
	App    http.Handler
}

func NewModules(infra *infrastructure.Infrastructure, metrics *middleware.Metrics, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra, metrics, app.Table)
	if err != nil {
		return nil, err
	}

	var scalarModule *module.Module
	if cfg.API.Docs.IsEnabled() {
		scalarModule, err = scalar.NewModule(cfg.API.Docs.Path, cfg.API.SpecURL())
		if err != nil {
			return nil, err
		}
	}

	webApp, err := app.New(app.Table, app.Options{
		Logger:    infra.Logger,
		Registry:  infra.Registry,
		Namespace: cfg.Metrics.Namespace,
	})
	if err != nil {
		return nil, err
	}

	return &Modules{
		API:    apiModule,
		Scalar: scalarModule,
		App:    appChain(webApp.Handler(), infra.Logger, metrics),
	}, nil
}

// appChain wraps the web app in the same middleware order as the API
// module: request ID outermost, tracing innermost.
func appChain(handler http.Handler, logger *slog.Logger, metrics *middleware.Metrics) http.Handler {
	handler = middleware.Tracing("speakeval/app")(handler)
	if metrics != nil {
		handler = metrics.Instrument("app")(handler)
	}
	handler = middleware.Logger(logger.With("module", "app"))(handler)
	return chimw.RequestID(handler)
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
	if m.Scalar != nil {
		router.Mount(m.Scalar)
	}
	router.SetFallback(m.App)
}

func buildRouter(infra *infrastructure.Infrastructure, cfg *config.Config) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("NOT READY"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("READY"))
	})

	if cfg.Metrics.Enabled {
		router.HandleNative("GET "+cfg.Metrics.Path, promhttp.HandlerFor(infra.Registry, promhttp.HandlerOpts{
			Registry: infra.Registry,
		}).ServeHTTP)
	}

	return router
}
