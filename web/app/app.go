// Package app serves the exam web application. Every request that no other
// module claims is resolved against Table: redirects answer 302, views
// render their template inside the app layout with route props embedded
// for the client bundle.
package app

import (
	"embed"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/JaimeStill/speakeval/pkg/views"
	"github.com/JaimeStill/speakeval/pkg/web"
)

//go:embed dist/*
var distFS embed.FS

//go:embed public/*
var publicFS embed.FS

//go:embed server/layouts/*
var layoutFS embed.FS

//go:embed server/views/*
var viewFS embed.FS

const layout = "app.html"

var publicFiles = []string{
	"favicon.svg",
	"robots.txt",
	"site.webmanifest",
}

// viewDefs maps the view names used in Table to their templates.
var viewDefs = map[string]web.ViewDef{
	"login":        {Template: "login.html", Title: "Sign in", Bundle: "app"},
	"register":     {Template: "register.html", Title: "Create account", Bundle: "app"},
	"exams":        {Template: "exams.html", Title: "Exams", Bundle: "app"},
	"exam-start":   {Template: "exam-start.html", Title: "Exam", Bundle: "app"},
	"exam-results": {Template: "exam-results.html", Title: "Results", Bundle: "app"},
}

var notFoundView = web.ViewDef{Template: "404.html", Title: "Not Found", Bundle: "app"}

// Options configures the app handler.
type Options struct {
	// BasePath prefixes asset and redirect URLs. Empty when served at the root.
	BasePath string
	Logger   *slog.Logger
	Registry prometheus.Registerer
	// Namespace is the metrics namespace for the resolution counter.
	Namespace string
}

type App struct {
	table       *views.Table
	templates   *web.TemplateSet
	basePath    string
	logger      *slog.Logger
	resolutions *prometheus.CounterVec
	notFound    http.HandlerFunc
}

// New parses the app templates for table. Every view named in table must
// have a template.
func New(table *views.Table, opts Options) (*App, error) {
	defs := make([]web.ViewDef, 0, len(viewDefs)+1)
	for _, r := range table.Routes() {
		if r.View == "" {
			continue
		}
		def, ok := viewDefs[r.View]
		if !ok {
			return nil, &UnknownViewError{Route: r.Path, View: r.View}
		}
		defs = append(defs, def)
	}
	defs = append(defs, notFoundView)

	ts, err := web.NewTemplateSet(
		layoutFS,
		viewFS,
		"server/layouts/*.html",
		"server/views",
		opts.BasePath,
		defs,
	)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &App{
		table:     table,
		templates: ts,
		basePath:  opts.BasePath,
		logger:    logger.With("module", "app"),
		resolutions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Subsystem: "views",
			Name:      "resolutions_total",
			Help:      "Client path resolutions by outcome and route name.",
		}, []string{"outcome", "name"}),
		notFound: ts.ErrorHandler(layout, notFoundView, http.StatusNotFound),
	}, nil
}

// Handler returns the app router: built assets under /dist/, public files
// at their fixed names, and view resolution for everything else.
func (a *App) Handler() http.Handler {
	r := web.NewRouter()
	r.SetFallback(a.serveView)

	r.HandleFunc("GET /dist/", web.DistServer(distFS, "dist", "/dist/"))

	for _, route := range web.PublicFileRoutes(publicFS, "public", publicFiles...) {
		r.HandleFunc(route.Method+" "+route.Pattern, route.Handler)
	}

	return r
}

func (a *App) serveView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	res, err := a.table.Resolve(r.URL.RequestURI())
	if err != nil {
		a.resolutions.WithLabelValues("not_found", "").Inc()
		a.logger.Debug("view resolution failed", "path", r.URL.Path, "error", err)
		a.notFound(w, r)
		return
	}

	if res.Redirected() {
		a.resolutions.WithLabelValues("redirect", res.Name).Inc()
		http.Redirect(w, r, a.basePath+res.Location(), http.StatusFound)
		return
	}

	a.resolutions.WithLabelValues("view", res.Name).Inc()

	def := viewDefs[res.View]
	data := a.templates.Data(def)
	data.Name = res.Name
	data.Path = res.Path
	data.Props = res.Props

	if err := a.templates.Render(w, layout, def.Template, data); err != nil {
		a.logger.Error("render view", "view", res.View, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// UnknownViewError reports a table route whose view has no template.
type UnknownViewError struct {
	Route string
	View  string
}

func (e *UnknownViewError) Error() string {
	return "app: route " + e.Route + " names unknown view " + e.View
}
