package users

import (
	"context"

	"github.com/google/uuid"
)

// System defines account persistence.
type System interface {
	// Create stores a new account. Emails are unique case-insensitively.
	Create(ctx context.Context, cmd CreateUserCommand) (*User, error)

	Find(ctx context.Context, id uuid.UUID) (*User, error)

	// FindCredentials looks up an account by email for password checks.
	FindCredentials(ctx context.Context, email string) (*Credentials, error)
}
