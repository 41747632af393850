package sqlstore

import (
	"context"
	"time"

	"github.com/abodyssee/crm/internal/crm/domain"
	"github.com/abodyssee/crm/internal/crm/store"
	"github.com/abodyssee/crm/internal/crm/store/dbadapter"
)

// Session timestamps are stored as unix seconds so expiry comparisons behave
// the same on both engines.
type sessionsRepo struct {
	db dbadapter.Adapter
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.db.Execute(ctx,
		`INSERT INTO sessions (id, admin_id, username, email, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.User.ID, s.User.Username, s.User.Email, s.CreatedAt.Unix(), s.ExpiresAt.Unix(),
	)
	return mapWriteError(err)
}

func (r *sessionsRepo) GetSession(ctx context.Context, id string) (domain.Session, error) {
	row, err := r.db.FetchOne(ctx,
		`SELECT id, admin_id, username, email, created_at, expires_at FROM sessions WHERE id = ?`, id)
	if err != nil {
		return domain.Session{}, err
	}
	if row == nil {
		return domain.Session{}, store.ErrNotFound
	}
	return domain.Session{
		ID: row.String("id"),
		User: domain.SessionUser{
			ID:       row.Int64("admin_id"),
			Username: row.String("username"),
			Email:    row.String("email"),
		},
		CreatedAt: time.Unix(row.Int64("created_at"), 0).UTC(),
		ExpiresAt: time.Unix(row.Int64("expires_at"), 0).UTC(),
	}, nil
}

func (r *sessionsRepo) ExtendSession(ctx context.Context, id string, expiresAt time.Time) error {
	return requireAffected(r.db.Execute(ctx,
		`UPDATE sessions SET expires_at = ? WHERE id = ?`, expiresAt.Unix(), id))
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, id string) error {
	_, err := r.db.Execute(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.Execute(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, err
	}
	return res.AffectedRows, nil
}
