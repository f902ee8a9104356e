package module

import (
	"net/http"
	"strings"
)

// Router dispatches requests to native handlers, then to mounted modules by
// first path segment, then to an optional fallback handler.
type Router struct {
	native   *http.ServeMux
	modules  map[string]*Module
	fallback http.Handler
}

func NewRouter() *Router {
	return &Router{
		native:  http.NewServeMux(),
		modules: make(map[string]*Module),
	}
}

// HandleNative registers a handler on the root mux, bypassing modules.
func (r *Router) HandleNative(pattern string, handler http.HandlerFunc) {
	r.native.HandleFunc(pattern, handler)
}

// Mount attaches a module at its prefix. Mounting the same prefix twice
// replaces the earlier module.
func (r *Router) Mount(m *Module) {
	r.modules[m.prefix] = m
}

// SetFallback sets the handler for requests no module or native route
// claims. The request path is left untouched.
func (r *Router) SetFallback(handler http.Handler) {
	r.fallback = handler
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if _, pattern := r.native.Handler(req); pattern != "" {
		r.native.ServeHTTP(w, req)
		return
	}

	if m, ok := r.modules[firstSegment(req.URL.Path)]; ok {
		m.Serve(w, req)
		return
	}

	if r.fallback != nil {
		r.fallback.ServeHTTP(w, req)
		return
	}

	http.NotFound(w, req)
}

func firstSegment(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		trimmed = trimmed[:i]
	}
	return "/" + trimmed
}
