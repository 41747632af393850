package schema

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abodyssee/crm/internal/crm/store/dbadapter"
)

// Ensure brings the database to the current layout. It is idempotent and
// must complete before the HTTP listener starts; any error is fatal.
//
//  1. CREATE TABLE IF NOT EXISTS for the shared tables.
//  2. Add columns introduced after the first deployment, then backfill
//     NULL or empty values with their default.
//  3. On PostgreSQL, widen legacy VARCHAR(255) columns now declared Text.
//  4. Apply versioned migrations of service-owned tables.
func Ensure(ctx context.Context, db dbadapter.Adapter, logger *slog.Logger) error {
	d := db.Dialect()

	for _, t := range Tables {
		if _, err := db.Execute(ctx, t.CreateSQL(d)); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}
		logger.Debug("table ready", "table", t.Name)
	}

	for _, m := range addedColumns {
		if err := addColumn(ctx, db, logger, m); err != nil {
			return err
		}
	}

	if d == dbadapter.Postgres {
		if err := widenTextColumns(ctx, db, logger); err != nil {
			return err
		}
	}

	version, err := applyMigrations(ctx, db)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	row, err := db.FetchOne(ctx, "SELECT COUNT(*) AS count FROM clients")
	if err != nil {
		return fmt.Errorf("count clients: %w", err)
	}

	logger.Info("database schema ready",
		"dialect", d,
		"migration_version", version,
		"clients", row.Int64("count"),
	)
	return nil
}

func addColumn(ctx context.Context, db dbadapter.Adapter, logger *slog.Logger, m addedColumn) error {
	table, ok := tableByName(m.table)
	if !ok {
		return fmt.Errorf("schema: unknown table %s", m.table)
	}
	col, ok := table.Column(m.column)
	if !ok {
		return fmt.Errorf("schema: unknown column %s.%s", m.table, m.column)
	}

	exists, err := db.ColumnExists(ctx, m.table, m.column)
	if err != nil {
		return err
	}
	if !exists {
		// Existing rows cannot satisfy NOT NULL before the backfill.
		col.NotNull = false
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", m.table, col.Definition(db.Dialect()))
		if _, err := db.Execute(ctx, stmt); err != nil {
			return fmt.Errorf("add column %s.%s: %w", m.table, m.column, err)
		}
		logger.Info("column added", "table", m.table, "column", m.column)
	}

	stmt := fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s IS NULL OR %s = ''", m.table, m.column, m.column, m.column)
	res, err := db.Execute(ctx, stmt, m.backfill)
	if err != nil {
		return fmt.Errorf("backfill %s.%s: %w", m.table, m.column, err)
	}
	if res.AffectedRows > 0 {
		logger.Info("column backfilled", "table", m.table, "column", m.column, "rows", res.AffectedRows)
	}
	return nil
}

// widenTextColumns converts columns declared Text that an older deployment
// created as character varying.
func widenTextColumns(ctx context.Context, db dbadapter.Adapter, logger *slog.Logger) error {
	for _, t := range Tables {
		for _, c := range t.Columns {
			if c.Type != Text {
				continue
			}
			typ, err := db.ColumnType(ctx, t.Name, c.Name)
			if err != nil {
				return err
			}
			if typ != "character varying" {
				continue
			}
			stmt := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE TEXT", t.Name, c.Name)
			if _, err := db.Execute(ctx, stmt); err != nil {
				return fmt.Errorf("widen %s.%s: %w", t.Name, c.Name, err)
			}
			logger.Info("column widened to TEXT", "table", t.Name, "column", c.Name)
		}
	}
	return nil
}

func tableByName(name string) (Table, bool) {
	for _, t := range Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}
