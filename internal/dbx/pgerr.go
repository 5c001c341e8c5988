package dbx

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUniqueViolation reports whether err (or anything it wraps) is a
// PostgreSQL unique_violation.
func IsUniqueViolation(err error) bool {
	return pgCode(err) == pgerrcode.UniqueViolation
}

// IsInvalidInput reports whether PostgreSQL rejected a parameter as
// malformed for its column type, e.g. a non-uuid string compared to a
// uuid column.
func IsInvalidInput(err error) bool {
	return pgCode(err) == pgerrcode.InvalidTextRepresentation
}
