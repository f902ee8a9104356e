package users

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/speakeval/pkg/query"
	"github.com/JaimeStill/speakeval/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "users"),
	}
}

func (r *repo) Create(ctx context.Context, cmd CreateUserCommand) (*User, error) {
	if err := cmd.Role.Validate(); err != nil {
		return nil, err
	}

	q := `
		INSERT INTO users (email, password_hash, role, name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, name, role, created_at`

	email := strings.TrimSpace(cmd.Email)
	user, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (User, error) {
		return repository.QueryOne(ctx, tx, q, []any{email, cmd.PasswordHash, cmd.Role, cmd.Name}, scanUser)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("user created", "id", user.ID, "role", user.Role)
	return &user, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*User, error) {
	q, args := query.NewBuilder(userProjection, defaultSort).
		WhereEquals("ID", id).
		Build()

	user, err := repository.QueryOne(ctx, r.db, q, args, scanUser)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &user, nil
}

func (r *repo) FindCredentials(ctx context.Context, email string) (*Credentials, error) {
	q := fmt.Sprintf(
		"SELECT %s FROM %s WHERE LOWER(u.email) = LOWER($1)",
		credentialsProjection.Columns(),
		credentialsProjection.Table(),
	)

	creds, err := repository.QueryOne(ctx, r.db, q, []any{strings.TrimSpace(email)}, scanCredentials)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &creds, nil
}
