package views

import "errors"

// Table construction errors.
var (
	ErrInvalidPattern   = errors.New("views: invalid route pattern")
	ErrInvalidRoute     = errors.New("views: invalid route")
	ErrDuplicateName    = errors.New("views: duplicate route name")
	ErrDuplicatePattern = errors.New("views: duplicate route pattern")
)

// Resolution and URL building errors.
var (
	ErrUnknownRoute = errors.New("views: unknown route")
	ErrMissingParam = errors.New("views: missing route parameter")
	ErrInvalidParam = errors.New("views: invalid route parameter")
	ErrNoMatch      = errors.New("views: no route matches path")
	ErrRedirectLoop = errors.New("views: too many redirects")
)
