package users

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrDuplicate   = errors.New("email already registered")
	ErrInvalidRole = errors.New("invalid role")
)

// MapHTTPStatus maps domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidRole):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
