// Package sqlstore implements store.Store with hand-written canonical SQL run
// through the database adapter, so one set of repositories serves SQLite and
// PostgreSQL.
package sqlstore

import (
	"context"
	"errors"

	"github.com/abodyssee/crm/internal/crm/store"
	"github.com/abodyssee/crm/internal/crm/store/dbadapter"
)

type Store struct {
	db dbadapter.Adapter
}

// New wraps an adapter whose schema has already been ensured.
func New(db dbadapter.Adapter) *Store {
	return &Store{db: db}
}

// Close checkpoints the SQLite write-ahead log so the database file is
// self-contained, then closes the pool.
func (s *Store) Close() error {
	var errs []error
	if s.db.Dialect() == dbadapter.SQLite {
		if _, err := s.db.Execute(context.Background(), "PRAGMA wal_checkpoint(FULL)"); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, s.db.Close())
	return errors.Join(errs...)
}

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Store) Admins() store.Admins       { return &adminsRepo{db: s.db} }
func (s *Store) Clients() store.Clients     { return &clientsRepo{db: s.db} }
func (s *Store) Exchanges() store.Exchanges { return &exchangesRepo{db: s.db} }
func (s *Store) Sessions() store.Sessions   { return &sessionsRepo{db: s.db} }

// mapWriteError turns adapter constraint errors into store sentinels.
func mapWriteError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, dbadapter.ErrConflict):
		return errors.Join(store.ErrAlreadyExists, err)
	case errors.Is(err, dbadapter.ErrForeignKey):
		return errors.Join(store.ErrNotFound, err)
	default:
		return err
	}
}

// requireAffected maps a write that touched nothing to ErrNotFound.
func requireAffected(res dbadapter.Result, err error) error {
	if err != nil {
		return mapWriteError(err)
	}
	if res.AffectedRows == 0 {
		return store.ErrNotFound
	}
	return nil
}

// nullable stores empty optional text as NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
