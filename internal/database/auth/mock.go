package auth

import "github.com/neekrasov/typedkv/internal/database/models"

// Mock - an authenticator driven entirely by the Username header:
//
//   - "unauthenticated" -> credentials rejected
//   - "admin" / "write" / "read" -> authenticated at that level
//   - any other name -> authenticated with no level at all
//   - header missing -> internal error
//
// The no-level outcome for unknown names is intentional; it exercises the
// authorization-error path without a user store.
type Mock struct{}

// NewMock - creates the mock authenticator.
func NewMock() *Mock {
	return &Mock{}
}

// Authenticate - implements Service.
func (m *Mock) Authenticate(headers map[string]string) (Result, error) {
	username, ok := headers[UsernameHeader]
	if !ok {
		return Result{}, models.InternalErrorf("Authentication service error")
	}

	switch username {
	case "unauthenticated":
		return Unauthenticated(), nil
	case "admin":
		return Authenticated(username, LevelAdmin), nil
	case "write":
		return Authenticated(username, LevelWrite), nil
	case "read":
		return Authenticated(username, LevelRead), nil
	}

	return AuthenticatedWithoutLevel(username), nil
}
