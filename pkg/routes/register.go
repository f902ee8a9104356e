package routes

import (
	"net/http"

	"github.com/JaimeStill/speakeval/pkg/openapi"
)

// Register adds every route of groups to mux and records their operations
// in spec under basePath. Group tags are applied to operations that declare
// none.
func Register(mux *http.ServeMux, basePath string, spec *openapi.Spec, groups ...Group) {
	for _, g := range groups {
		registerGroup(mux, basePath, "", spec, g)
	}
}

func registerGroup(mux *http.ServeMux, basePath, parent string, spec *openapi.Spec, g Group) {
	prefix := parent + g.Prefix

	for _, r := range g.Routes {
		pattern := prefix + r.Pattern
		if pattern == "" {
			pattern = "/"
		}
		mux.HandleFunc(r.Method+" "+pattern, r.Handler)

		if spec != nil && r.OpenAPI != nil {
			op := *r.OpenAPI
			if len(op.Tags) == 0 {
				op.Tags = g.Tags
			}
			spec.AddOperation(basePath+pattern, r.Method, &op)
		}
	}

	for _, child := range g.Children {
		registerGroup(mux, basePath, prefix, spec, child)
	}
}
