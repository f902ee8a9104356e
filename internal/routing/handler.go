// Package routing exposes the web app's view table over the JSON API so
// clients can introspect routes, resolve paths and build named URLs.
package routing

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/speakeval/pkg/handlers"
	"github.com/JaimeStill/speakeval/pkg/routes"
	"github.com/JaimeStill/speakeval/pkg/views"
)

type Handler struct {
	table  *views.Table
	logger *slog.Logger
}

func NewHandler(table *views.Table, logger *slog.Logger) *Handler {
	return &Handler{
		table:  table,
		logger: logger.With("handler", "views"),
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/views",
		Tags:        []string{"Views"},
		Description: "Client view table introspection and path resolution",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, OpenAPI: Spec.List},
			{Method: "GET", Pattern: "/resolve", Handler: h.Resolve, OpenAPI: Spec.Resolve},
			{Method: "GET", Pattern: "/url/{name}", Handler: h.URL, OpenAPI: Spec.URL},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.table.Routes())
}

func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrMissingPath)
		return
	}

	res, err := h.table.Resolve(path)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, res)
}

// URL builds the path of a named route. Each query parameter supplies the
// value of the route parameter with the same name.
func (h *Handler) URL(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	params := make(map[string]string)
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}

	url, err := h.table.URL(name, params)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]string{
		"name": name,
		"url":  url,
	})
}
