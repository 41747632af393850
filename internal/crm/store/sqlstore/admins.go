package sqlstore

import (
	"context"
	"time"

	"github.com/abodyssee/crm/internal/crm/domain"
	"github.com/abodyssee/crm/internal/crm/store"
	"github.com/abodyssee/crm/internal/crm/store/dbadapter"
)

const adminColumns = `id, username, password_hash, email, date_creation, derniere_connexion`

type adminsRepo struct {
	db dbadapter.Adapter
}

func (r *adminsRepo) GetAdminByUsername(ctx context.Context, username string) (domain.Admin, error) {
	return r.getOne(ctx, `SELECT `+adminColumns+` FROM admins WHERE username = ?`, username)
}

func (r *adminsRepo) GetAdminByID(ctx context.Context, id int64) (domain.Admin, error) {
	return r.getOne(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = ?`, id)
}

func (r *adminsRepo) getOne(ctx context.Context, stmt string, args ...any) (domain.Admin, error) {
	row, err := r.db.FetchOne(ctx, stmt, args...)
	if err != nil {
		return domain.Admin{}, err
	}
	if row == nil {
		return domain.Admin{}, store.ErrNotFound
	}
	return mapAdmin(row), nil
}

func (r *adminsRepo) CreateAdmin(ctx context.Context, a domain.Admin) (int64, error) {
	res, err := r.db.Execute(ctx,
		`INSERT INTO admins (username, password_hash, email) VALUES (?, ?, ?)`,
		a.Username, a.PasswordHash, nullable(a.Email),
	)
	if err != nil {
		return 0, mapWriteError(err)
	}
	return res.InsertedID, nil
}

func (r *adminsRepo) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return requireAffected(r.db.Execute(ctx,
		`UPDATE admins SET password_hash = ? WHERE id = ?`, hash, id))
}

func (r *adminsRepo) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return requireAffected(r.db.Execute(ctx,
		`UPDATE admins SET derniere_connexion = ? WHERE id = ?`, at.UTC(), id))
}

func mapAdmin(row dbadapter.Row) domain.Admin {
	return domain.Admin{
		ID:           row.Int64("id"),
		Username:     row.String("username"),
		PasswordHash: row.String("password_hash"),
		Email:        row.String("email"),
		CreatedAt:    row.Time("date_creation"),
		LastLoginAt:  row.TimePtr("derniere_connexion"),
	}
}
