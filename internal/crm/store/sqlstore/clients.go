package sqlstore

import (
	"context"

	"github.com/abodyssee/crm/internal/crm/domain"
	"github.com/abodyssee/crm/internal/crm/store"
	"github.com/abodyssee/crm/internal/crm/store/dbadapter"
)

const clientColumns = `id, nom, prenom, email, telephone, siret, tva_intracommunautaire,
	service_demande, type, created_by, date_creation, date_modification`

type clientsRepo struct {
	db dbadapter.Adapter
}

func (r *clientsRepo) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.db.FetchAll(ctx,
		`SELECT `+clientColumns+` FROM clients ORDER BY date_creation DESC, id DESC`)
	if err != nil {
		return nil, err
	}

	clients := make([]domain.Client, len(rows))
	for i, row := range rows {
		clients[i] = mapClient(row)
	}
	return clients, nil
}

func (r *clientsRepo) GetClient(ctx context.Context, id int64) (domain.Client, error) {
	row, err := r.db.FetchOne(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	if err != nil {
		return domain.Client{}, err
	}
	if row == nil {
		return domain.Client{}, store.ErrNotFound
	}
	return mapClient(row), nil
}

func (r *clientsRepo) ClientExists(ctx context.Context, id int64) (bool, error) {
	row, err := r.db.FetchOne(ctx, `SELECT id FROM clients WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	return row != nil, nil
}

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) (int64, error) {
	createdBy := c.CreatedBy
	if createdBy == "" {
		createdBy = domain.DefaultCreatedBy
	}

	res, err := r.db.Execute(ctx,
		`INSERT INTO clients (nom, prenom, email, telephone, siret, tva_intracommunautaire,
			service_demande, type, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Nom, c.Prenom, c.Email,
		nullable(c.Telephone), nullable(c.Siret), nullable(c.TVAIntracommunautaire),
		domain.FormatServices(c.Services), string(domain.ParseClientType(string(c.Type))), createdBy,
	)
	if err != nil {
		return 0, mapWriteError(err)
	}
	return res.InsertedID, nil
}

func (r *clientsRepo) UpdateClient(ctx context.Context, c domain.Client) error {
	return requireAffected(r.db.Execute(ctx,
		`UPDATE clients SET nom = ?, prenom = ?, email = ?, telephone = ?, siret = ?,
			tva_intracommunautaire = ?, service_demande = ?, type = ?,
			date_modification = CURRENT_TIMESTAMP
		WHERE id = ?`,
		c.Nom, c.Prenom, c.Email,
		nullable(c.Telephone), nullable(c.Siret), nullable(c.TVAIntracommunautaire),
		domain.FormatServices(c.Services), string(domain.ParseClientType(string(c.Type))),
		c.ID,
	))
}

func (r *clientsRepo) DeleteClient(ctx context.Context, id int64) error {
	return requireAffected(r.db.Execute(ctx, `DELETE FROM clients WHERE id = ?`, id))
}

func mapClient(row dbadapter.Row) domain.Client {
	createdBy := row.String("created_by")
	if createdBy == "" {
		createdBy = domain.DefaultCreatedBy
	}
	return domain.Client{
		ID:                    row.Int64("id"),
		Nom:                   row.String("nom"),
		Prenom:                row.String("prenom"),
		Email:                 row.String("email"),
		Telephone:             row.String("telephone"),
		Siret:                 row.String("siret"),
		TVAIntracommunautaire: row.String("tva_intracommunautaire"),
		Services:              domain.ParseServices(row.String("service_demande")),
		Type:                  domain.ParseClientType(row.String("type")),
		CreatedBy:             createdBy,
		CreatedAt:             row.Time("date_creation"),
		UpdatedAt:             row.Time("date_modification"),
	}
}
