package auth

import "github.com/JaimeStill/speakeval/pkg/openapi"

type spec struct {
	Register      *openapi.Operation
	Login         *openapi.Operation
	ValidateToken *openapi.Operation
}

var Spec = spec{
	Register: &openapi.Operation{
		Summary:     "Register",
		Description: "Creates a student or educator account and returns a session token",
		RequestBody: openapi.RequestBodyJSON("RegisterCommand", true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Session for the new account", "Session"),
			400: openapi.ResponseRef("BadRequest"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
	Login: &openapi.Operation{
		Summary:     "Log in",
		Description: "Exchanges email and password for a session token",
		RequestBody: openapi.RequestBodyJSON("LoginCommand", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Session", "Session"),
			400: openapi.ResponseRef("BadRequest"),
			401: openapi.ResponseRef("Unauthorized"),
		},
	},
	ValidateToken: &openapi.Operation{
		Summary:     "Validate token",
		Description: "Reports whether the bearer token is valid and returns its user",
		Security:    openapi.BearerAuth,
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Token is valid", "TokenValidation"),
			401: openapi.ResponseJSON("Token is invalid or expired", "TokenValidation"),
		},
	},
}

func (spec) Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"User": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":         {Type: "string", Format: "uuid"},
				"email":      {Type: "string", Format: "email"},
				"name":       {Type: "string"},
				"role":       {Type: "string", Enum: []string{"student", "educator"}},
				"created_at": {Type: "string", Format: "date-time"},
			},
		},
		"Session": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"token": {Type: "string"},
				"user":  openapi.SchemaRef("User"),
			},
		},
		"RegisterCommand": {
			Type:     "object",
			Required: []string{"email", "password", "role", "name"},
			Properties: map[string]*openapi.Schema{
				"email":    {Type: "string", Format: "email", Example: "student@example.com"},
				"password": {Type: "string", Format: "password"},
				"role":     {Type: "string", Enum: []string{"student", "educator"}},
				"name":     {Type: "string", Example: "Ada Lovelace"},
			},
		},
		"LoginCommand": {
			Type:     "object",
			Required: []string{"email", "password"},
			Properties: map[string]*openapi.Schema{
				"email":    {Type: "string", Format: "email"},
				"password": {Type: "string", Format: "password"},
			},
		},
		"TokenValidation": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"valid": {Type: "boolean"},
				"user":  openapi.SchemaRef("User"),
				"error": {Type: "string", Example: "invalid_or_expired_token"},
			},
		},
	}
}
