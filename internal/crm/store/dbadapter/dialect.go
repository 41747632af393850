package dbadapter

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type sqliteDialect struct{}

func (sqliteDialect) name() Dialect          { return SQLite }
func (sqliteDialect) placeholder(int) string { return "?" }
func (sqliteDialect) returningID() bool      { return false }

func (sqliteDialect) columnTypeQuery() string {
	return `SELECT CASE WHEN type = '' THEN 'blob' ELSE type END AS column_type
		FROM pragma_table_info(?) WHERE name = ?`
}

func (sqliteDialect) classify(err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return fmt.Errorf("%w: %w", ErrForeignKey, err)
	}
	return err
}

type postgresDialect struct{}

func (postgresDialect) name() Dialect            { return Postgres }
func (postgresDialect) placeholder(n int) string { return "$" + strconv.Itoa(n) }
func (postgresDialect) returningID() bool        { return true }

func (postgresDialect) columnTypeQuery() string {
	return `SELECT data_type AS column_type
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = ? AND column_name = ?`
}

// SQLSTATE classes, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func (postgresDialect) classify(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pgUniqueViolation:
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: %w", ErrForeignKey, err)
	}
	return err
}
