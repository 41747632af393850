package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abodyssee/crm/internal/crm/domain"
	"github.com/abodyssee/crm/internal/crm/store"
	"github.com/abodyssee/crm/pkg/slogx"
)

const clientRequiredMessage = "Les champs nom, prénom, email et service demandé sont obligatoires."

// ClientInput is the writable part of a client record.
type ClientInput struct {
	Nom                   string
	Prenom                string
	Email                 string
	Telephone             string
	Siret                 string
	TVAIntracommunautaire string
	Services              []string
	// Type falls back to prospect when empty or unknown.
	Type string
}

func (in ClientInput) normalize() (ClientInput, error) {
	in.Nom = strings.TrimSpace(in.Nom)
	in.Prenom = strings.TrimSpace(in.Prenom)
	in.Email = strings.TrimSpace(in.Email)
	in.Telephone = strings.TrimSpace(in.Telephone)
	in.Siret = strings.TrimSpace(in.Siret)
	in.TVAIntracommunautaire = strings.TrimSpace(in.TVAIntracommunautaire)
	in.Services = domain.NormalizeServices(in.Services)

	switch {
	case in.Nom == "":
		return in, invalid("nom", clientRequiredMessage)
	case in.Prenom == "":
		return in, invalid("prenom", clientRequiredMessage)
	case in.Email == "":
		return in, invalid("email", clientRequiredMessage)
	case len(in.Services) == 0:
		return in, invalid("service_demande", clientRequiredMessage)
	}
	return in, nil
}

func (in ClientInput) client() domain.Client {
	return domain.Client{
		Nom:                   in.Nom,
		Prenom:                in.Prenom,
		Email:                 in.Email,
		Telephone:             in.Telephone,
		Siret:                 in.Siret,
		TVAIntracommunautaire: in.TVAIntracommunautaire,
		Services:              in.Services,
		Type:                  domain.ParseClientType(in.Type),
	}
}

type ClientService struct {
	Store store.Store
}

func (s *ClientService) ListClients(ctx context.Context) ([]domain.Client, error) {
	return s.Store.Clients().ListClients(ctx)
}

func (s *ClientService) GetClient(ctx context.Context, id int64) (domain.Client, error) {
	c, err := s.Store.Clients().GetClient(ctx, id)
	return c, clientErr(err)
}

// CreateClient records a new client on behalf of createdBy (the username
// of the session).
func (s *ClientService) CreateClient(ctx context.Context, in ClientInput, createdBy string) (domain.Client, error) {
	in, err := in.normalize()
	if err != nil {
		return domain.Client{}, err
	}

	c := in.client()
	c.CreatedBy = createdBy

	id, err := s.Store.Clients().CreateClient(ctx, c)
	if err != nil {
		return domain.Client{}, clientErr(err)
	}

	slogx.FromContext(ctx).Info("client created", "client_id", id, "type", c.Type)
	return s.GetClient(ctx, id)
}

// UpdateClient overwrites every writable field and returns the stored row.
func (s *ClientService) UpdateClient(ctx context.Context, id int64, in ClientInput) (domain.Client, error) {
	in, err := in.normalize()
	if err != nil {
		return domain.Client{}, err
	}

	c := in.client()
	c.ID = id
	if err := s.Store.Clients().UpdateClient(ctx, c); err != nil {
		return domain.Client{}, clientErr(err)
	}
	return s.GetClient(ctx, id)
}

// DeleteClient removes the client and, through the foreign key, its exchanges.
func (s *ClientService) DeleteClient(ctx context.Context, id int64) error {
	if err := s.Store.Clients().DeleteClient(ctx, id); err != nil {
		return clientErr(err)
	}
	slogx.FromContext(ctx).Info("client deleted", "client_id", id)
	return nil
}

// GetClientWithExchanges is the "complet" view of a client.
func (s *ClientService) GetClientWithExchanges(ctx context.Context, id int64) (domain.Client, []domain.Exchange, error) {
	c, err := s.GetClient(ctx, id)
	if err != nil {
		return domain.Client{}, nil, err
	}
	exchanges, err := s.Store.Exchanges().ListClientExchanges(ctx, id)
	if err != nil {
		return domain.Client{}, nil, err
	}
	return c, exchanges, nil
}

func clientErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrClientNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return ErrClientExists
	default:
		return fmt.Errorf("clients: %w", err)
	}
}
