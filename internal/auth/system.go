// Package auth registers and authenticates users with argon2id password
// hashes and HS256 bearer tokens.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/JaimeStill/speakeval/internal/users"
)

type Session struct {
	Token string      `json:"token"`
	User  *users.User `json:"user"`
}

type RegisterCommand struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     users.Role `json:"role"`
	Name     string     `json:"name"`
}

type LoginCommand struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type System interface {
	Register(ctx context.Context, cmd RegisterCommand) (*Session, error)
	Login(ctx context.Context, cmd LoginCommand) (*Session, error)

	// Validate resolves a bearer token to its user.
	Validate(ctx context.Context, token string) (*users.User, error)
}

type authSystem struct {
	users  users.System
	tokens *Tokens
	params HashParams
	logger *slog.Logger
}

func New(usersSys users.System, tokens *Tokens, params HashParams, logger *slog.Logger) System {
	return &authSystem{
		users:  usersSys,
		tokens: tokens,
		params: params,
		logger: logger.With("system", "auth"),
	}
}

func (s *authSystem) Register(ctx context.Context, cmd RegisterCommand) (*Session, error) {
	cmd.Email = strings.TrimSpace(cmd.Email)
	cmd.Name = strings.TrimSpace(cmd.Name)
	if cmd.Email == "" || cmd.Password == "" || cmd.Role == "" || cmd.Name == "" {
		return nil, ErrMissingFields
	}
	if err := cmd.Role.Validate(); err != nil {
		return nil, err
	}

	hash, err := HashPassword(cmd.Password, s.params)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, users.CreateUserCommand{
		Email:        cmd.Email,
		PasswordHash: hash,
		Role:         cmd.Role,
		Name:         cmd.Name,
	})
	if err != nil {
		return nil, err
	}

	return s.session(user)
}

func (s *authSystem) Login(ctx context.Context, cmd LoginCommand) (*Session, error) {
	if strings.TrimSpace(cmd.Email) == "" || cmd.Password == "" {
		return nil, ErrMissingFields
	}

	creds, err := s.users.FindCredentials(ctx, cmd.Email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := VerifyPassword(cmd.Password, creds.PasswordHash)
	if err != nil {
		s.logger.Warn("stored hash unreadable", "user_id", creds.ID, "error", err)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return s.session(&creds.User)
}

func (s *authSystem) Validate(ctx context.Context, token string) (*users.User, error) {
	id, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Find(ctx, id)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

func (s *authSystem) session(user *users.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}
