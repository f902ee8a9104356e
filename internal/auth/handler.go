package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/speakeval/pkg/handlers"
	"github.com/JaimeStill/speakeval/pkg/routes"
)

type Handler struct {
	sys    System
	logger *slog.Logger
}

func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "",
		Tags:        []string{"Auth"},
		Description: "Account registration and bearer token sessions",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/register", Handler: h.Register, OpenAPI: Spec.Register},
			{Method: "POST", Pattern: "/login", Handler: h.Login, OpenAPI: Spec.Login},
			{Method: "GET", Pattern: "/validate-token", Handler: h.ValidateToken, OpenAPI: Spec.ValidateToken},
		},
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var cmd RegisterCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	session, err := h.sys.Register(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var cmd LoginCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	session, err := h.sys.Login(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, session)
}

type validation struct {
	Valid bool   `json:"valid"`
	User  any    `json:"user,omitempty"`
	Error string `json:"error,omitempty"`
}

func (h *Handler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	user, err := h.sys.Validate(r.Context(), BearerToken(r))
	if err != nil {
		if !errors.Is(err, ErrInvalidToken) {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}
		handlers.RespondJSON(w, http.StatusUnauthorized, validation{Error: "invalid_or_expired_token"})
		return
	}

	handlers.RespondJSON(w, http.StatusOK, validation{Valid: true, User: user})
}
