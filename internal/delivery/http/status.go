package http

import (
	"github.com/valyala/fasthttp"

	"github.com/neekrasov/typedkv/internal/database/models"
)

// statusOf - maps an error kind to its HTTP status.
func statusOf(kind models.ErrorKind) int {
	switch kind {
	case models.TokenizationError,
		models.ParseError,
		models.KeyError,
		models.IndexError,
		models.TypeError:
		return fasthttp.StatusUnprocessableEntity
	case models.AuthorizationError:
		return fasthttp.StatusUnauthorized
	case models.AuthenticationError:
		return fasthttp.StatusForbidden
	case models.RequestError:
		return fasthttp.StatusBadRequest
	case models.NetworkError, models.WriteError, models.InternalError:
		return fasthttp.StatusInternalServerError
	}

	return fasthttp.StatusInternalServerError
}
