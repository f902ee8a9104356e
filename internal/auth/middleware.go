package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/speakeval/internal/users"
	"github.com/JaimeStill/speakeval/pkg/handlers"
)

type contextKey struct{}

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// UserID returns the authenticated user id stored by Middleware.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(contextKey{}).(uuid.UUID)
	return id, ok
}

// CurrentUser loads the user authenticated on ctx. A missing id or a
// deleted account yields ErrInvalidToken.
func CurrentUser(ctx context.Context, sys users.System) (*users.User, error) {
	id, ok := UserID(ctx)
	if !ok {
		return nil, ErrInvalidToken
	}
	user, err := sys.Find(ctx, id)
	if errors.Is(err, users.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	return user, err
}

// Middleware rejects requests without a valid bearer token.
func Middleware(tokens *Tokens, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := tokens.Verify(BearerToken(r))
			if err != nil {
				handlers.RespondError(w, logger, http.StatusUnauthorized, ErrInvalidToken)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
		})
	}
}

// BearerToken extracts the token from the Authorization header. Websocket
// handshakes from browsers cannot set headers, so a "token" query parameter
// is accepted as a fallback.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return r.URL.Query().Get("token")
}
