// internal/repository/postgres/errors.go
package postgres

import (
	"errors"

	xerrors "crm-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// mapConstraintError translates Postgres constraint violations into the
// application's sentinel errors; everything else passes through unchanged.
func mapConstraintError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return xerrors.ErrDuplicateEntry
		case pgForeignKeyViolation:
			return xerrors.ErrInvalidReference
		}
	}
	return err
}
