package pkg

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgCodeForeignKeyViolation = "23503"
	pgCodeCheckViolation      = "23514"
)

// IsForeignKeyViolationError checks if the error is a foreign key violation error
func IsForeignKeyViolationError(err error) bool {
	return hasPgErrorCode(err, pgCodeForeignKeyViolation)
}

// IsCheckViolationError checks if the error is a check constraint violation error
func IsCheckViolationError(err error) bool {
	return hasPgErrorCode(err, pgCodeCheckViolation)
}

func hasPgErrorCode(err error, code string) bool {
	var pqErr *pgconn.PgError
	if errors.As(err, &pqErr) {
		return pqErr.Code == code
	}
	return false
}
