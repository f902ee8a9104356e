package routing

import "github.com/JaimeStill/speakeval/pkg/openapi"

type spec struct {
	List    *openapi.Operation
	Resolve *openapi.Operation
	URL     *openapi.Operation
}

var Spec = spec{
	List: &openapi.Operation{
		Summary:     "List views",
		Description: "Returns the client route table in declaration order",
		Responses: map[int]*openapi.Response{
			200: {
				Description: "Route table",
				Content: map[string]*openapi.MediaType{
					"application/json": {Schema: &openapi.Schema{Type: "array", Items: openapi.SchemaRef("ViewRoute")}},
				},
			},
		},
	},
	Resolve: &openapi.Operation{
		Summary:     "Resolve path",
		Description: "Matches a browser path against the route table and follows redirects",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("path", "string", "Browser path, optionally with a query string", true),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Resolved view", "ViewResolution"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
			508: {Description: "Redirect loop"},
		},
	},
	URL: &openapi.Operation{
		Summary:     "Build view URL",
		Description: "Builds the path of a named route. Route parameters are passed as query parameters",
		Parameters: []*openapi.Parameter{
			openapi.NamedPathParam("name", "Route name"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Built URL", "ViewURL"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
}

func (spec) Schemas() map[string]*openapi.Schema {
	strMap := &openapi.Schema{Type: "object", Description: "String values keyed by parameter name"}

	return map[string]*openapi.Schema{
		"ViewTarget": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"name": {Type: "string"},
				"path": {Type: "string"},
			},
		},
		"ViewRoute": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"path":     {Type: "string", Example: "/exams/:examId"},
				"name":     {Type: "string", Example: "ExamStart"},
				"view":     {Type: "string", Example: "exam-start.html"},
				"props":    {Type: "boolean"},
				"redirect": openapi.SchemaRef("ViewTarget"),
			},
			Required: []string{"path"},
		},
		"ViewResolution": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"name":            {Type: "string"},
				"path":            {Type: "string"},
				"query":           {Type: "string"},
				"view":            {Type: "string"},
				"pattern":         {Type: "string"},
				"params":          strMap,
				"props":           strMap,
				"redirected_from": {Type: "string"},
				"redirects":       {Type: "integer"},
			},
		},
		"ViewURL": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"name": {Type: "string"},
				"url":  {Type: "string"},
			},
		},
	}
}
