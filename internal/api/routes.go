package api

import (
	"net/http"

	"github.com/JaimeStill/speakeval/internal/attempts"
	"github.com/JaimeStill/speakeval/internal/auth"
	"github.com/JaimeStill/speakeval/internal/config"
	"github.com/JaimeStill/speakeval/internal/exams"
	"github.com/JaimeStill/speakeval/internal/routing"
	"github.com/JaimeStill/speakeval/pkg/openapi"
	"github.com/JaimeStill/speakeval/pkg/routes"
	"github.com/JaimeStill/speakeval/pkg/views"
)

// registerRoutes mounts every domain handler. Exam and attempt routes sit
// behind the bearer token middleware; auth and view routes are public.
func registerRoutes(
	mux *http.ServeMux,
	spec *openapi.Spec,
	runtime *Runtime,
	domain *Domain,
	table *views.Table,
	cfg *config.Config,
) {
	authHandler := auth.NewHandler(domain.Auth, runtime.Logger)
	examsHandler := exams.NewHandler(domain.Exams, domain.Users, runtime.Logger, runtime.Pagination)
	attemptsHandler := attempts.NewHandler(
		domain.Attempts,
		runtime.Logger,
		cfg.Storage.MaxUploadSizeBytes(),
		cfg.API.WebSocketOrigins(),
	)
	routingHandler := routing.NewHandler(table, runtime.Logger)

	requireToken := auth.Middleware(domain.Tokens, runtime.Logger)

	routes.Register(
		mux,
		cfg.API.BasePath,
		spec,
		authHandler.Routes(),
		examsHandler.Routes().Wrap(requireToken),
		attemptsHandler.Routes().Wrap(requireToken),
		routingHandler.Routes(),
	)

	spec.Components.AddSchemas(auth.Spec.Schemas())
	spec.Components.AddSchemas(exams.Spec.Schemas())
	spec.Components.AddSchemas(attempts.Spec.Schemas())
	spec.Components.AddSchemas(routing.Spec.Schemas())
}
