// Package dbadapter is the single seam between the repositories and the SQL
// engine. Statements are written once in a canonical form (`?` markers,
// portable DDL) and translated for the engine selected at startup.
package dbadapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Dialect names a supported engine.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

var (
	// ErrConflict wraps unique or primary key violations.
	ErrConflict = errors.New("dbadapter: unique constraint violated")
	// ErrForeignKey wraps foreign key violations.
	ErrForeignKey = errors.New("dbadapter: foreign key constraint violated")
)

// Row is one result row keyed by column name.
type Row map[string]any

// Result describes the effect of a write.
type Result struct {
	AffectedRows int64
	// InsertedID is the generated integer key of an INSERT, zero otherwise.
	InsertedID int64
}

// Adapter executes canonical statements against one engine.
type Adapter interface {
	Dialect() Dialect

	// Translate rewrites a canonical statement for the active engine.
	Translate(statement string) string

	Execute(ctx context.Context, statement string, args ...any) (Result, error)

	// FetchOne returns the first row, or nil when the query matched nothing.
	FetchOne(ctx context.Context, statement string, args ...any) (Row, error)

	// FetchAll returns every row; an empty result is an empty slice.
	FetchAll(ctx context.Context, statement string, args ...any) ([]Row, error)

	// ColumnType returns the lower-cased declared type of table.column,
	// or "" when the column does not exist.
	ColumnType(ctx context.Context, table, column string) (string, error)
	ColumnExists(ctx context.Context, table, column string) (bool, error)

	Ping(ctx context.Context) error
	Close() error

	// DB exposes the pool for migration drivers.
	DB() *sql.DB
}

// dialect is the per-engine strategy.
type dialect interface {
	name() Dialect
	placeholder(n int) string
	// returningID reports whether INSERTs need RETURNING id to learn the key.
	returningID() bool
	columnTypeQuery() string
	classify(err error) error
}

type sqlAdapter struct {
	db *sql.DB
	d  dialect
}

// New wraps an open pool. Most callers use Open instead.
func New(db *sql.DB, d Dialect) (Adapter, error) {
	impl, err := dialectFor(d)
	if err != nil {
		return nil, err
	}
	return &sqlAdapter{db: db, d: impl}, nil
}

func dialectFor(d Dialect) (dialect, error) {
	switch d {
	case SQLite:
		return sqliteDialect{}, nil
	case Postgres:
		return postgresDialect{}, nil
	default:
		return nil, fmt.Errorf("dbadapter: unsupported dialect %q", d)
	}
}

func (a *sqlAdapter) Dialect() Dialect { return a.d.name() }
func (a *sqlAdapter) DB() *sql.DB      { return a.db }
func (a *sqlAdapter) Close() error     { return a.db.Close() }

// Ping verifies the database connection is still alive.
func (a *sqlAdapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *sqlAdapter) Translate(statement string) string {
	return translate(a.d, statement)
}

func (a *sqlAdapter) Execute(ctx context.Context, statement string, args ...any) (Result, error) {
	q, info := rewrite(a.d, statement)

	if info.insert && info.returning {
		rows, err := a.db.QueryContext(ctx, q, args...)
		if err != nil {
			return Result{}, a.d.classify(err)
		}
		defer rows.Close()

		var res Result
		for rows.Next() {
			var id any
			if err := rows.Scan(&id); err != nil {
				return Result{}, err
			}
			if res.AffectedRows == 0 {
				res.InsertedID, _ = toInt64(id)
			}
			res.AffectedRows++
		}
		if err := rows.Err(); err != nil {
			return Result{}, a.d.classify(err)
		}
		return res, nil
	}

	sqlRes, err := a.db.ExecContext(ctx, q, args...)
	if err != nil {
		return Result{}, a.d.classify(err)
	}

	var res Result
	if res.AffectedRows, err = sqlRes.RowsAffected(); err != nil {
		return Result{}, err
	}
	if info.insert {
		if id, err := sqlRes.LastInsertId(); err == nil {
			res.InsertedID = id
		}
	}
	return res, nil
}

func (a *sqlAdapter) FetchOne(ctx context.Context, statement string, args ...any) (Row, error) {
	rows, err := a.query(ctx, statement, args, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (a *sqlAdapter) FetchAll(ctx context.Context, statement string, args ...any) ([]Row, error) {
	return a.query(ctx, statement, args, 0)
}

// query scans up to limit rows (0 means all).
func (a *sqlAdapter) query(ctx context.Context, statement string, args []any, limit int) ([]Row, error) {
	rows, err := a.db.QueryContext(ctx, translate(a.d, statement), args...)
	if err != nil {
		return nil, a.d.classify(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []Row{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)

		if limit > 0 && len(out) == limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, a.d.classify(err)
	}
	return out, nil
}

func (a *sqlAdapter) ColumnType(ctx context.Context, table, column string) (string, error) {
	row, err := a.FetchOne(ctx, a.d.columnTypeQuery(), table, column)
	if err != nil {
		return "", fmt.Errorf("introspect %s.%s: %w", table, column, err)
	}
	if row == nil {
		return "", nil
	}
	return strings.ToLower(row.String("column_type")), nil
}

func (a *sqlAdapter) ColumnExists(ctx context.Context, table, column string) (bool, error) {
	typ, err := a.ColumnType(ctx, table, column)
	if err != nil {
		return false, err
	}
	return typ != "", nil
}
