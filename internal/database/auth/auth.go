package auth

import (
	"strings"

	"github.com/neekrasov/typedkv/internal/database/models"
)

// UsernameHeader - the request header carrying the caller identity.
const UsernameHeader = "Username"

// PasswordHeader - the request header carrying the caller secret, consumed
// only by the static authenticator for users with a password hash.
const PasswordHeader = "Password"

// Level - an authorization level attached to an authenticated request.
type Level int

const (
	// LevelRead - read-only operations.
	LevelRead Level = iota
	// LevelWrite - read and write operations.
	LevelWrite
	// LevelAdmin - everything, including shutdown.
	LevelAdmin
)

// String - the config-file spelling of the level.
func (l Level) String() string {
	switch l {
	case LevelRead:
		return "read"
	case LevelWrite:
		return "write"
	case LevelAdmin:
		return "admin"
	}

	return "unknown"
}

// Allows - reports whether a request at this level may run an operation
// requiring the given minimum level.
func (l Level) Allows(required Level) bool {
	return l >= required
}

// ParseLevel - parses a config-file level string.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "read":
		return LevelRead, nil
	case "write":
		return LevelWrite, nil
	case "admin":
		return LevelAdmin, nil
	}

	return 0, models.InternalErrorf("unknown authorization level '%s'", s)
}

// Result - the outcome of an authentication attempt. Authenticated with
// HasLevel false means the credentials were accepted but the user carries
// no authorization at all; the listener converts that into an
// authorization error.
type Result struct {
	Authenticated bool
	Username      string
	Level         Level
	HasLevel      bool
}

// Authenticated - a passing result with a level.
func Authenticated(username string, level Level) Result {
	return Result{Authenticated: true, Username: username, Level: level, HasLevel: true}
}

// AuthenticatedWithoutLevel - a passing result with no authorization.
func AuthenticatedWithoutLevel(username string) Result {
	return Result{Authenticated: true, Username: username}
}

// Unauthenticated - credentials rejected.
func Unauthenticated() Result {
	return Result{}
}

// Service - the authentication capability the listener consumes.
type Service interface {
	// Authenticate - inspects the request headers and classifies the caller.
	Authenticate(headers map[string]string) (Result, error)
}
