package attempts

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/speakeval/internal/scoring"
)

var (
	ErrNotFound         = errors.New("attempt not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrForbidden        = errors.New("invalid attempt or access denied")
	ErrCompleted        = errors.New("attempt already completed")
	ErrFinalized        = errors.New("answer already finalized for this question")
	ErrMissingFields    = errors.New("missing required fields")
	ErrUnknownCommand   = errors.New("unknown command")
	ErrAudio            = errors.New("could not process audio")
)

// MapHTTPStatus maps domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrQuestionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrCompleted), errors.Is(err, ErrFinalized):
		return http.StatusConflict
	case errors.Is(err, ErrMissingFields), errors.Is(err, ErrUnknownCommand), errors.Is(err, ErrAudio):
		return http.StatusBadRequest
	case errors.Is(err, scoring.ErrEmbedding):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
