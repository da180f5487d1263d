package database

import (
	"github.com/neekrasov/typedkv/internal/database/auth"
	"github.com/neekrasov/typedkv/internal/database/compute"
	"github.com/neekrasov/typedkv/internal/database/models"
)

// minimumLevel - the level a statement requires. Shutdown is admin-only;
// every mutator needs write; everything else, ExpireKeys included, reads.
// ExpireKeys is submitted by the expiration worker at admin level and has
// no grammar keyword, so the read floor is not reachable by clients.
func minimumLevel(kind compute.StatementKind) auth.Level {
	switch kind {
	case compute.StatementShutdown:
		return auth.LevelAdmin
	case compute.StatementSet,
		compute.StatementSetIfNotExists,
		compute.StatementUpdate,
		compute.StatementUpdateLifetime,
		compute.StatementDelete,
		compute.StatementVectorSet,
		compute.StatementVectorAppend,
		compute.StatementVectorPop,
		compute.StatementMapSet,
		compute.StatementMapDelete:
		return auth.LevelWrite
	}

	return auth.LevelRead
}

// validateAuthorization - the pre-pass over a whole request: if any
// statement exceeds the caller's level, nothing runs.
func validateAuthorization(statements []compute.Statement, level auth.Level) error {
	for _, statement := range statements {
		if !level.Allows(minimumLevel(statement.Kind)) {
			return models.AuthorizationErrorf("User is not authorized to perform this query.")
		}
	}

	return nil
}
