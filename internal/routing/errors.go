package routing

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/speakeval/pkg/views"
)

var ErrMissingPath = errors.New("path query parameter is required")

// MapHTTPStatus maps view table errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, views.ErrNoMatch), errors.Is(err, views.ErrUnknownRoute):
		return http.StatusNotFound
	case errors.Is(err, views.ErrRedirectLoop):
		return http.StatusLoopDetected
	case errors.Is(err, ErrMissingPath),
		errors.Is(err, views.ErrMissingParam),
		errors.Is(err, views.ErrInvalidParam):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
