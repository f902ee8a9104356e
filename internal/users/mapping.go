package users

import (
	"github.com/JaimeStill/speakeval/pkg/query"
	"github.com/JaimeStill/speakeval/pkg/repository"
)

var userProjection = query.
	NewProjectionMap("public", "users", "u").
	Project("id", "ID").
	Project("email", "Email").
	Project("name", "Name").
	Project("role", "Role").
	Project("created_at", "CreatedAt")

var credentialsProjection = query.
	NewProjectionMap("public", "users", "u").
	Project("id", "ID").
	Project("email", "Email").
	Project("name", "Name").
	Project("role", "Role").
	Project("created_at", "CreatedAt").
	Project("password_hash", "PasswordHash")

var defaultSort = query.SortField{Field: "Email"}

func scanUser(s repository.Scanner) (User, error) {
	var u User
	err := s.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt)
	return u, err
}

func scanCredentials(s repository.Scanner) (Credentials, error) {
	var c Credentials
	err := s.Scan(&c.ID, &c.Email, &c.Name, &c.Role, &c.CreatedAt, &c.PasswordHash)
	return c, err
}
