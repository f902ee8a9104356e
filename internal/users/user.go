// Package users stores accounts for students and educators.
package users

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role distinguishes exam takers from exam authors.
type Role string

const (
	RoleStudent  Role = "student"
	RoleEducator Role = "educator"
)

func (r Role) Validate() error {
	switch r {
	case RoleStudent, RoleEducator:
		return nil
	}
	return fmt.Errorf("%w: %q (must be student or educator)", ErrInvalidRole, string(r))
}

type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// IsEducator reports whether the user may author exams.
func (u *User) IsEducator() bool {
	return u.Role == RoleEducator
}

// Credentials pairs a user with the stored password hash. It never leaves
// the auth flow.
type Credentials struct {
	User
	PasswordHash string
}

type CreateUserCommand struct {
	Email        string
	PasswordHash string
	Role         Role
	Name         string
}
