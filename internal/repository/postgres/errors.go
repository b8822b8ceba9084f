package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Postgres SQLSTATE codes the repositories translate.
const (
	codeForeignKeyViolation = "23503"
	codeInvalidTextRep      = "22P02"
)

// pgCode returns the SQLSTATE of err for either registered driver, or "".
func pgCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isMalformedID reports whether err comes from an id that is not a valid uuid. Such an id
// cannot match any row, so callers treat it as not found.
func isMalformedID(err error) bool {
	return pgCode(err) == codeInvalidTextRep
}
