package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	sq "github.com/Masterminds/squirrel"
)

// psql builds dynamic queries with $n placeholders. Static queries stay as
// plain SQL strings; squirrel is only used where WHERE clauses depend on
// optional filters.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// isUniqueViolation reports whether err is Postgres error 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isForeignKeyViolation reports whether err is Postgres error 23503.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
