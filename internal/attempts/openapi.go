package attempts

import "github.com/JaimeStill/speakeval/pkg/openapi"

type spec struct {
	Info         *openapi.Operation
	Current      *openapi.Operation
	Results      *openapi.Operation
	Evaluate     *openapi.Operation
	Submit       *openapi.Operation
	Append       *openapi.Operation
	Stream       *openapi.Operation
	Skip         *openapi.Operation
	MoveNext     *openapi.Operation
	VoiceCommand *openapi.Operation
	Complete     *openapi.Operation
	End          *openapi.Operation
}

func attemptOp(summary, description, schema string) *openapi.Operation {
	return &openapi.Operation{
		Summary:     summary,
		Description: description,
		Security:    openapi.BearerAuth,
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Attempt UUID"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON(summary, schema),
			400: openapi.ResponseRef("BadRequest"),
			401: openapi.ResponseRef("Unauthorized"),
			403: openapi.ResponseRef("Forbidden"),
			404: openapi.ResponseRef("NotFound"),
		},
	}
}

func answerOp(summary, description, body, schema string) *openapi.Operation {
	return &openapi.Operation{
		Summary:     summary,
		Description: description,
		Security:    openapi.BearerAuth,
		RequestBody: openapi.RequestBodyJSON(body, true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON(summary, schema),
			400: openapi.ResponseRef("BadRequest"),
			401: openapi.ResponseRef("Unauthorized"),
			403: openapi.ResponseRef("Forbidden"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
		},
	}
}

var Spec = spec{
	Info:    attemptOp("Attempt info", "Returns the exam, its questions, start time and status", "AttemptInfo"),
	Current: attemptOp("Current question", "Returns the first question without a finalized answer, or null", "CurrentQuestion"),
	Results: attemptOp("Attempt results", "Per-question breakdown. Unanswered questions report 0 points", "AttemptResults"),
	Evaluate: answerOp(
		"Evaluate answer",
		"Grades spoken text against the expected answer and finalizes it",
		"EvaluateCommand", "Evaluation",
	),
	Submit: &openapi.Operation{
		Summary:     "Submit audio answer",
		Description: "Stores the recording, transcribes it, then grades and finalizes the answer",
		Security:    openapi.BearerAuth,
		RequestBody: &openapi.RequestBody{
			Required: true,
			Content: map[string]*openapi.MediaType{
				"multipart/form-data": {
					Schema: &openapi.Schema{
						Type:     "object",
						Required: []string{"audio", "attempt_id", "question_id"},
						Properties: map[string]*openapi.Schema{
							"audio":       {Type: "string", Format: "binary"},
							"attempt_id":  {Type: "string", Format: "uuid"},
							"question_id": {Type: "string", Format: "uuid"},
						},
					},
				},
			},
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Graded answer", "Evaluation"),
			400: openapi.ResponseRef("BadRequest"),
			401: openapi.ResponseRef("Unauthorized"),
			403: openapi.ResponseRef("Forbidden"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
			413: {Description: "Recording exceeds the upload limit"},
		},
	},
	Append: answerOp(
		"Append transcript",
		"Appends a chunk of recognized speech to the draft answer",
		"AppendCommand", "TranscriptUpdate",
	),
	Stream: &openapi.Operation{
		Summary:     "Transcript stream",
		Description: "Websocket. Send {question_id, text}; receive {question_id, current_transcript} or {error}",
		Security:    openapi.BearerAuth,
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("attempt_id", "string", "Attempt UUID", true),
			openapi.QueryParam("token", "string", "Bearer token for clients that cannot set headers", false),
		},
		Responses: map[int]*openapi.Response{
			101: {Description: "Switching protocols"},
			400: openapi.ResponseRef("BadRequest"),
			401: openapi.ResponseRef("Unauthorized"),
			403: openapi.ResponseRef("Forbidden"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Skip: answerOp(
		"Skip question",
		"Finalizes the answer with no text and zero points and returns the next question",
		"AnswerRef", "Skipped",
	),
	MoveNext: answerOp(
		"Move to next question",
		"Grades the draft or provided text unless already final, then returns the next question",
		"MoveNextCommand", "Advance",
	),
	VoiceCommand: answerOp(
		"Voice command",
		"Runs skip, next or end from a spoken phrase and returns that operation's response",
		"VoiceCommand", "Advance",
	),
	Complete: answerOp(
		"Complete exam",
		"Totals finalized answers and marks the attempt completed",
		"AttemptRef", "Completion",
	),
	End: answerOp(
		"End exam",
		"Completes the attempt and returns the finalized answers",
		"AttemptRef", "EndResult",
	),
}

func (spec) Schemas() map[string]*openapi.Schema {
	uuidProp := &openapi.Schema{Type: "string", Format: "uuid"}
	questionView := openapi.SchemaRef("QuestionView")

	return map[string]*openapi.Schema{
		"QuestionView": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":            uuidProp,
				"question_text": {Type: "string"},
				"points":        {Type: "integer"},
				"order":         {Type: "integer"},
			},
		},
		"AttemptInfo": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"attempt_id": uuidProp,
				"exam": {
					Type: "object",
					Properties: map[string]*openapi.Schema{
						"id":               uuidProp,
						"title":            {Type: "string"},
						"description":      {Type: "string"},
						"duration_minutes": {Type: "integer"},
					},
				},
				"questions":  {Type: "array", Items: questionView},
				"started_at": {Type: "string", Format: "date-time"},
				"status":     {Type: "string", Enum: []string{"in_progress", "completed", "flagged"}},
			},
		},
		"CurrentQuestion": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"next_question": questionView,
			},
		},
		"AttemptResults": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"attempt_id":  uuidProp,
				"exam_id":     uuidProp,
				"exam_title":  {Type: "string"},
				"total_score": {Type: "integer"},
				"status":      {Type: "string"},
				"breakdown": {
					Type: "array",
					Items: &openapi.Schema{
						Type: "object",
						Properties: map[string]*openapi.Schema{
							"question_id":      uuidProp,
							"question_text":    {Type: "string"},
							"spoken_text":      {Type: "string"},
							"points_awarded":   {Type: "integer"},
							"is_correct":       {Type: "boolean"},
							"similarity_score": {Type: "number"},
						},
					},
				},
			},
		},
		"AnswerRef": {
			Type:     "object",
			Required: []string{"attempt_id", "question_id"},
			Properties: map[string]*openapi.Schema{
				"attempt_id":  uuidProp,
				"question_id": uuidProp,
			},
		},
		"AttemptRef": {
			Type:     "object",
			Required: []string{"attempt_id"},
			Properties: map[string]*openapi.Schema{
				"attempt_id": uuidProp,
			},
		},
		"EvaluateCommand": {
			Type:     "object",
			Required: []string{"attempt_id", "question_id", "spoken_text"},
			Properties: map[string]*openapi.Schema{
				"attempt_id":  uuidProp,
				"question_id": uuidProp,
				"spoken_text": {Type: "string", Example: "Paris"},
			},
		},
		"AppendCommand": {
			Type:     "object",
			Required: []string{"attempt_id", "question_id", "text"},
			Properties: map[string]*openapi.Schema{
				"attempt_id":  uuidProp,
				"question_id": uuidProp,
				"text":        {Type: "string", Example: "the capital is"},
			},
		},
		"MoveNextCommand": {
			Type:     "object",
			Required: []string{"attempt_id", "question_id"},
			Properties: map[string]*openapi.Schema{
				"attempt_id":  uuidProp,
				"question_id": uuidProp,
				"spoken_text": {Type: "string", Description: "Overrides the draft transcript"},
			},
		},
		"VoiceCommand": {
			Type:     "object",
			Required: []string{"attempt_id", "question_id", "command"},
			Properties: map[string]*openapi.Schema{
				"attempt_id":  uuidProp,
				"question_id": uuidProp,
				"command":     {Type: "string", Example: "next question"},
				"spoken_text": {Type: "string"},
			},
		},
		"Evaluation": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"spoken_text":      {Type: "string"},
				"similarity_score": {Type: "number"},
				"points_awarded":   {Type: "integer"},
				"max_points":       {Type: "integer"},
				"is_correct":       {Type: "boolean"},
			},
		},
		"TranscriptUpdate": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"message":            {Type: "string"},
				"current_transcript": {Type: "string"},
			},
		},
		"Skipped": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"message":        {Type: "string"},
				"points_awarded": {Type: "integer"},
				"next_question":  questionView,
			},
		},
		"Advance": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"spoken_text":      {Type: "string"},
				"similarity_score": {Type: "number"},
				"points_awarded":   {Type: "integer"},
				"is_correct":       {Type: "boolean"},
				"next_question":    questionView,
			},
		},
		"Completion": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"total_score": {Type: "integer"},
				"status":      {Type: "string"},
			},
		},
		"EndResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"total_score": {Type: "integer"},
				"status":      {Type: "string"},
				"breakdown": {
					Type: "array",
					Items: &openapi.Schema{
						Type: "object",
						Properties: map[string]*openapi.Schema{
							"question_id":    uuidProp,
							"spoken_text":    {Type: "string"},
							"points_awarded": {Type: "integer"},
						},
					},
				},
			},
		},
	}
}
