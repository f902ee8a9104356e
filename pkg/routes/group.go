// Package routes declares HTTP routes as data so handlers, OpenAPI
// generation and introspection share one source of truth.
package routes

import (
	"net/http"

	"github.com/JaimeStill/speakeval/pkg/openapi"
)

// Route is a single method and pattern bound to a handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	OpenAPI *openapi.Operation
}

// Group represents a collection of routes under a common URL prefix.
// Groups can contain child groups for hierarchical route organization.
type Group struct {
	Prefix      string
	Tags        []string
	Description string
	Routes      []Route
	Children    []Group
}

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Wrap returns a copy of the group with every route handler, including
// child groups, wrapped in mw.
func (g Group) Wrap(mw Middleware) Group {
	out := g
	out.Routes = make([]Route, len(g.Routes))
	for i, r := range g.Routes {
		r.Handler = mw(r.Handler).ServeHTTP
		out.Routes[i] = r
	}
	out.Children = make([]Group, len(g.Children))
	for i, child := range g.Children {
		out.Children[i] = child.Wrap(mw)
	}
	return out
}
