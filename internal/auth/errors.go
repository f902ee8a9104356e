package auth

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/speakeval/internal/users"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrMissingFields      = errors.New("missing required fields")
	ErrMalformedHash      = errors.New("malformed password hash")
)

// MapHTTPStatus maps domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrMissingFields):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	}
	return users.MapHTTPStatus(err)
}
