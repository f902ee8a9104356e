package openapi

import (
	"encoding/json"
	"net/http"
	"strings"
)

// NewSpec creates an empty OpenAPI 3.1 document.
func NewSpec(title, version string) *Spec {
	return &Spec{
		OpenAPI:    "3.1.0",
		Info:       &Info{Title: title, Version: version},
		Paths:      make(map[string]*PathItem),
		Components: NewComponents(),
	}
}

func (s *Spec) SetDescription(desc string) {
	s.Info.Description = desc
}

// AddServer appends a server entry. Empty URLs are ignored.
func (s *Spec) AddServer(url string) {
	if url == "" {
		return
	}
	s.Servers = append(s.Servers, &Server{URL: url})
}

// AddOperation attaches op to path under the given HTTP method.
func (s *Spec) AddOperation(path, method string, op *Operation) {
	if op == nil {
		return
	}
	item, ok := s.Paths[path]
	if !ok {
		item = &PathItem{}
		s.Paths[path] = item
	}

	switch strings.ToUpper(method) {
	case http.MethodGet:
		item.Get = op
	case http.MethodPost:
		item.Post = op
	case http.MethodPut:
		item.Put = op
	case http.MethodDelete:
		item.Delete = op
	}
}

// NewComponents returns components preloaded with the shared error
// responses and the bearer security scheme.
func NewComponents() *Components {
	errorSchema := &Schema{
		Type:       "object",
		Properties: map[string]*Schema{"error": {Type: "string"}},
	}
	errorResponse := func(desc string) *Response {
		return &Response{
			Description: desc,
			Content: map[string]*MediaType{
				"application/json": {Schema: SchemaRef("Error")},
			},
		}
	}

	return &Components{
		Schemas: map[string]*Schema{"Error": errorSchema},
		Responses: map[string]*Response{
			"BadRequest":   errorResponse("Invalid request"),
			"Unauthorized": errorResponse("Missing or invalid bearer token"),
			"Forbidden":    errorResponse("Access denied"),
			"NotFound":     errorResponse("Resource not found"),
			"Conflict":     errorResponse("Resource state conflict"),
		},
		SecuritySchemes: map[string]*SecurityScheme{
			"bearerAuth": {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
		},
	}
}

// AddSchemas merges schemas into the component set.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	if c.Schemas == nil {
		c.Schemas = make(map[string]*Schema, len(schemas))
	}
	for name, schema := range schemas {
		c.Schemas[name] = schema
	}
}

// MarshalJSON renders the spec with indentation.
func MarshalJSON(spec *Spec) ([]byte, error) {
	return json.MarshalIndent(spec, "", "  ")
}

// ServeSpec returns a handler that writes the pre-rendered spec.
func ServeSpec(spec []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(spec)
	}
}
