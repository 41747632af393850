package sqlstore

import (
	"context"

	"github.com/abodyssee/crm/internal/crm/domain"
	"github.com/abodyssee/crm/internal/crm/store"
	"github.com/abodyssee/crm/internal/crm/store/dbadapter"
)

type exchangesRepo struct {
	db dbadapter.Adapter
}

func (r *exchangesRepo) ListExchanges(ctx context.Context) ([]domain.ExchangeWithClient, error) {
	rows, err := r.db.FetchAll(ctx, `
		SELECT e.id, e.client_id, e.type, e.sujet, e.contenu, e.date_creation,
			c.nom AS client_nom, c.prenom AS client_prenom, c.email AS client_email
		FROM echanges e
		JOIN clients c ON c.id = e.client_id
		ORDER BY e.date_creation DESC, e.id DESC`)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ExchangeWithClient, len(rows))
	for i, row := range rows {
		out[i] = domain.ExchangeWithClient{
			Exchange:     mapExchange(row),
			ClientNom:    row.String("client_nom"),
			ClientPrenom: row.String("client_prenom"),
			ClientEmail:  row.String("client_email"),
		}
	}
	return out, nil
}

func (r *exchangesRepo) ListClientExchanges(ctx context.Context, clientID int64) ([]domain.Exchange, error) {
	rows, err := r.db.FetchAll(ctx, `
		SELECT id, client_id, type, sujet, contenu, date_creation
		FROM echanges
		WHERE client_id = ?
		ORDER BY date_creation DESC, id DESC`, clientID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Exchange, len(rows))
	for i, row := range rows {
		out[i] = mapExchange(row)
	}
	return out, nil
}

func (r *exchangesRepo) GetExchange(ctx context.Context, id int64) (domain.Exchange, error) {
	row, err := r.db.FetchOne(ctx,
		`SELECT id, client_id, type, sujet, contenu, date_creation FROM echanges WHERE id = ?`, id)
	if err != nil {
		return domain.Exchange{}, err
	}
	if row == nil {
		return domain.Exchange{}, store.ErrNotFound
	}
	return mapExchange(row), nil
}

func (r *exchangesRepo) CreateExchange(ctx context.Context, e domain.Exchange) (int64, error) {
	res, err := r.db.Execute(ctx,
		`INSERT INTO echanges (client_id, type, sujet, contenu) VALUES (?, ?, ?, ?)`,
		e.ClientID, e.Type, nullable(e.Sujet), e.Contenu,
	)
	if err != nil {
		return 0, mapWriteError(err)
	}
	return res.InsertedID, nil
}

func (r *exchangesRepo) UpdateExchange(ctx context.Context, e domain.Exchange) error {
	return requireAffected(r.db.Execute(ctx,
		`UPDATE echanges SET type = ?, sujet = ?, contenu = ? WHERE id = ?`,
		e.Type, nullable(e.Sujet), e.Contenu, e.ID,
	))
}

func (r *exchangesRepo) DeleteExchange(ctx context.Context, id int64) error {
	return requireAffected(r.db.Execute(ctx, `DELETE FROM echanges WHERE id = ?`, id))
}

func mapExchange(row dbadapter.Row) domain.Exchange {
	return domain.Exchange{
		ID:        row.Int64("id"),
		ClientID:  row.Int64("client_id"),
		Type:      row.String("type"),
		Sujet:     row.String("sujet"),
		Contenu:   row.String("contenu"),
		CreatedAt: row.Time("date_creation"),
	}
}
