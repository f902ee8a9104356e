package exams

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound      = errors.New("exam not found")
	ErrDuplicate     = errors.New("exam already exists")
	ErrForbidden     = errors.New("only educators can create exams")
	ErrInactive      = errors.New("exam is not active")
	ErrMissingFields = errors.New("missing required fields")
	ErrNoQuestions   = errors.New("exam must have at least one question")
)

// MapHTTPStatus maps domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInactive), errors.Is(err, ErrMissingFields), errors.Is(err, ErrNoQuestions):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
