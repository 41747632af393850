// Package schema owns the database layout: the CRM tables shared with older
// deployments, their additive migrations, and the versioned migrations of
// service-owned tables.
package schema

import (
	"fmt"
	"strings"

	"github.com/abodyssee/crm/internal/crm/store/dbadapter"
)

// ColumnType is a portable column type rendered per dialect.
type ColumnType int

const (
	// Serial is an auto-incrementing integer primary key.
	Serial ColumnType = iota
	Integer
	// Varchar is bounded text; Column.Size holds the bound.
	Varchar
	// Text is unbounded text on every engine.
	Text
	Timestamp
)

type Column struct {
	Name    string
	Type    ColumnType
	Size    int
	NotNull bool
	Unique  bool
	// Default is a SQL expression, e.g. `'prospect'` or `CURRENT_TIMESTAMP`.
	Default string
}

type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
	OnDelete  string
}

type Table struct {
	Name        string
	Columns     []Column
	ForeignKeys []ForeignKey
}

func (t ColumnType) sql(d dbadapter.Dialect, size int) string {
	switch t {
	case Serial:
		if d == dbadapter.Postgres {
			return "SERIAL PRIMARY KEY"
		}
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	case Integer:
		return "INTEGER"
	case Varchar:
		if size <= 0 {
			size = 255
		}
		return fmt.Sprintf("VARCHAR(%d)", size)
	case Text:
		return "TEXT"
	case Timestamp:
		return "TIMESTAMP"
	default:
		panic(fmt.Sprintf("schema: unknown column type %d", t))
	}
}

// Definition renders the column as it appears inside CREATE TABLE.
func (c Column) Definition(d dbadapter.Dialect) string {
	parts := []string{c.Name, c.Type.sql(d, c.Size)}
	if c.NotNull {
		parts = append(parts, "NOT NULL")
	}
	if c.Unique {
		parts = append(parts, "UNIQUE")
	}
	if c.Default != "" {
		parts = append(parts, "DEFAULT "+c.Default)
	}
	return strings.Join(parts, " ")
}

// CreateSQL renders an idempotent CREATE TABLE statement.
func (t Table) CreateSQL(d dbadapter.Dialect) string {
	lines := make([]string, 0, len(t.Columns)+len(t.ForeignKeys))
	for _, c := range t.Columns {
		lines = append(lines, "  "+c.Definition(d))
	}
	for _, fk := range t.ForeignKeys {
		line := fmt.Sprintf("  FOREIGN KEY (%s) REFERENCES %s(%s)", fk.Column, fk.RefTable, fk.RefColumn)
		if fk.OnDelete != "" {
			line += " ON DELETE " + fk.OnDelete
		}
		lines = append(lines, line)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)", t.Name, strings.Join(lines, ",\n"))
}

// Column looks up a column by name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}
