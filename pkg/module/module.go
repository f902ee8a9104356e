// Package module composes the HTTP surface of the service from isolated
// modules. Each module owns a single-level path prefix, its own handler
// and its own middleware chain.
package module

import (
	"fmt"
	"net/http"
	"strings"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Module is a prefixed handler with an ordered middleware chain.
type Module struct {
	prefix     string
	handler    http.Handler
	middleware []Middleware
}

// New creates a module mounted at prefix. The prefix must be a single
// path segment such as "/api"; New panics otherwise since modules are
// wired once at startup.
func New(prefix string, handler http.Handler) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix:  prefix,
		handler: handler,
	}
}

func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends middleware. The first middleware added is the outermost.
func (m *Module) Use(mw Middleware) {
	m.middleware = append(m.middleware, mw)
}

// Handler returns the module handler wrapped in its middleware.
func (m *Module) Handler() http.Handler {
	h := m.handler
	for i := len(m.middleware) - 1; i >= 0; i-- {
		h = m.middleware[i](h)
	}
	return h
}

// Serve strips the module prefix from the request path and dispatches to
// the wrapped handler.
func (m *Module) Serve(w http.ResponseWriter, r *http.Request) {
	r2 := r.Clone(r.Context())
	path := strings.TrimPrefix(r.URL.Path, m.prefix)
	if path == "" {
		path = "/"
	}
	r2.URL.Path = path
	if r.URL.RawPath != "" {
		raw := strings.TrimPrefix(r.URL.RawPath, m.prefix)
		if raw == "" {
			raw = "/"
		}
		r2.URL.RawPath = raw
	}
	m.Handler().ServeHTTP(w, r2)
}

func validatePrefix(prefix string) error {
	if prefix == "" || !strings.HasPrefix(prefix, "/") {
		return fmt.Errorf("module prefix %q must start with /", prefix)
	}
	if strings.Count(prefix, "/") != 1 || len(prefix) == 1 {
		return fmt.Errorf("module prefix %q must be a single path segment", prefix)
	}
	return nil
}
