package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/abodyssee/crm/internal/crm/store/dbadapter"
	"github.com/abodyssee/crm/internal/crm/store/schema/migrations"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// applyMigrations runs the embedded versioned migrations for the adapter's
// dialect. The migrate instance is never closed, since closing it would
// close the shared pool. Postgres migrates over a connection borrowed from
// the pool and handed back before returning.
func applyMigrations(ctx context.Context, db dbadapter.Adapter) (uint, error) {
	var (
		driver database.Driver
		err    error
	)

	// 1. Create the migration driver for the active engine
	switch db.Dialect() {
	case dbadapter.SQLite:
		driver, err = sqlite.WithInstance(db.DB(), &sqlite.Config{})
	case dbadapter.Postgres:
		conn, connErr := db.DB().Conn(ctx)
		if connErr != nil {
			return 0, fmt.Errorf("schema: reserve migration connection: %w", connErr)
		}
		defer conn.Close()
		driver, err = postgres.WithConnection(ctx, conn, &postgres.Config{})
	default:
		return 0, fmt.Errorf("schema: no migration driver for %q", db.Dialect())
	}
	if err != nil {
		return 0, err
	}

	// 2. Create the iofs (embedded filesystem) source for that dialect
	source, err := iofs.New(migrations.Migrations, string(db.Dialect()))
	if err != nil {
		return 0, err
	}

	// 3. Apply all up migrations
	instance, err := migrate.NewWithInstance("iofs", source, string(db.Dialect()), driver)
	if err != nil {
		return 0, err
	}
	if err := instance.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, err
	}

	version, _, err := instance.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, err
	}
	return version, nil
}
