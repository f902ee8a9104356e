package exams

import "github.com/JaimeStill/speakeval/pkg/openapi"

type spec struct {
	List   *openapi.Operation
	Create *openapi.Operation
	Find   *openapi.Operation
	Start  *openapi.Operation
}

var Spec = spec{
	List: &openapi.Operation{
		Summary:     "List exams",
		Description: "Educators see the exams they authored; students see active exams",
		Security:    openapi.BearerAuth,
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", "integer", "Page number (1-indexed)", false),
			openapi.QueryParam("page_size", "integer", "Results per page", false),
			openapi.QueryParam("search", "string", "Search query (matches title and description)", false),
			openapi.QueryParam("sort", "string", "Comma-separated sort fields (title, created_at, duration_minutes, ...). Prefix with - for descending", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Paginated list of exams", "ExamPageResult"),
			400: openapi.ResponseRef("BadRequest"),
			401: openapi.ResponseRef("Unauthorized"),
		},
	},
	Create: &openapi.Operation{
		Summary:     "Create exam",
		Description: "Creates an exam with ordered questions. Educators only",
		Security:    openapi.BearerAuth,
		RequestBody: openapi.RequestBodyJSON("CreateExamCommand", true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Created exam", "ExamCreated"),
			400: openapi.ResponseRef("BadRequest"),
			401: openapi.ResponseRef("Unauthorized"),
			403: openapi.ResponseRef("Forbidden"),
		},
	},
	Find: &openapi.Operation{
		Summary:     "Get exam",
		Description: "Returns an exam with its questions. Expected answers are shown to the owning educator only",
		Security:    openapi.BearerAuth,
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Exam UUID"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Exam with questions", "ExamWithQuestions"),
			400: openapi.ResponseRef("BadRequest"),
			401: openapi.ResponseRef("Unauthorized"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Start: &openapi.Operation{
		Summary:     "Start exam",
		Description: "Creates an attempt for the caller and returns the questions to answer",
		Security:    openapi.BearerAuth,
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Exam UUID"),
		},
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Started attempt", "StartResult"),
			400: openapi.ResponseRef("BadRequest"),
			401: openapi.ResponseRef("Unauthorized"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
}

func (spec) Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"Exam": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":               {Type: "string", Format: "uuid"},
				"title":            {Type: "string"},
				"description":      {Type: "string"},
				"educator_id":      {Type: "string", Format: "uuid"},
				"duration_minutes": {Type: "integer"},
				"is_active":        {Type: "boolean"},
				"created_at":       {Type: "string", Format: "date-time"},
			},
		},
		"Question": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":              {Type: "string", Format: "uuid"},
				"exam_id":         {Type: "string", Format: "uuid"},
				"question_text":   {Type: "string"},
				"expected_answer": {Type: "string", Description: "Present for the owning educator only"},
				"points":          {Type: "integer"},
				"order":           {Type: "integer"},
			},
		},
		"ExamWithQuestions": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":               {Type: "string", Format: "uuid"},
				"title":            {Type: "string"},
				"description":      {Type: "string"},
				"educator_id":      {Type: "string", Format: "uuid"},
				"duration_minutes": {Type: "integer"},
				"is_active":        {Type: "boolean"},
				"created_at":       {Type: "string", Format: "date-time"},
				"questions":        {Type: "array", Items: openapi.SchemaRef("Question")},
			},
		},
		"ExamPageResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":        {Type: "array", Items: openapi.SchemaRef("Exam")},
				"total":       {Type: "integer"},
				"page":        {Type: "integer"},
				"page_size":   {Type: "integer"},
				"total_pages": {Type: "integer"},
			},
		},
		"CreateExamCommand": {
			Type:     "object",
			Required: []string{"title", "duration_minutes", "questions"},
			Properties: map[string]*openapi.Schema{
				"title":            {Type: "string", Example: "Sample Exam 1"},
				"description":      {Type: "string"},
				"duration_minutes": {Type: "integer", Example: 30},
				"questions": {
					Type: "array",
					Items: &openapi.Schema{
						Type:     "object",
						Required: []string{"question_text", "expected_answer"},
						Properties: map[string]*openapi.Schema{
							"question_text":   {Type: "string", Example: "What is the capital of France?"},
							"expected_answer": {Type: "string", Example: "Paris"},
							"points":          {Type: "integer", Example: 10},
						},
					},
				},
			},
		},
		"ExamCreated": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"message": {Type: "string"},
				"exam_id": {Type: "string", Format: "uuid"},
			},
		},
		"StartResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"attempt_id": {Type: "string", Format: "uuid"},
				"exam": {
					Type: "object",
					Properties: map[string]*openapi.Schema{
						"id":               {Type: "string", Format: "uuid"},
						"title":            {Type: "string"},
						"duration_minutes": {Type: "integer"},
					},
				},
				"questions": {Type: "array", Items: openapi.SchemaRef("Question")},
			},
		},
	}
}
