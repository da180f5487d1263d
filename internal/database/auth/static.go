package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/neekrasov/typedkv/internal/database/models"
)

// StaticUser - a user declared in the server configuration.
type StaticUser struct {
	Level Level
	// PasswordHash - bcrypt hash of the user's password. Empty means the
	// user authenticates by name alone.
	PasswordHash string
}

// Static - an authenticator backed by users declared in configuration.
// Unknown names authenticate with no level, mirroring the mock, so
// misconfigured clients surface as authorization errors rather than
// connection failures.
type Static struct {
	users map[string]StaticUser
}

// NewStatic - creates a static authenticator over the given users.
func NewStatic(users map[string]StaticUser) *Static {
	return &Static{users: users}
}

// Authenticate - implements Service.
func (s *Static) Authenticate(headers map[string]string) (Result, error) {
	username, ok := headers[UsernameHeader]
	if !ok {
		return Result{}, models.InternalErrorf("Authentication service error")
	}

	user, ok := s.users[username]
	if !ok {
		return AuthenticatedWithoutLevel(username), nil
	}

	if user.PasswordHash != "" {
		password := headers[PasswordHeader]
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			return Unauthenticated(), nil
		}
	}

	return Authenticated(username, user.Level), nil
}
