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

// ExchangeInput is the writable part of an exchange. ClientID is only read
// on creation.
type ExchangeInput struct {
	ClientID int64
	Type     string
	Sujet    string
	Contenu  string
}

type ExchangeService struct {
	Store store.Store
}

func (s *ExchangeService) ListExchanges(ctx context.Context) ([]domain.ExchangeWithClient, error) {
	return s.Store.Exchanges().ListExchanges(ctx)
}

// ListClientExchanges returns the exchanges of one client; an unknown
// client simply has none.
func (s *ExchangeService) ListClientExchanges(ctx context.Context, clientID int64) ([]domain.Exchange, error) {
	return s.Store.Exchanges().ListClientExchanges(ctx, clientID)
}

// CreateExchange checks the parent client first so a missing client is a
// 404 rather than a constraint failure.
func (s *ExchangeService) CreateExchange(ctx context.Context, in ExchangeInput) (domain.Exchange, error) {
	in.Type = strings.TrimSpace(in.Type)
	in.Sujet = strings.TrimSpace(in.Sujet)

	const msg = "Les champs client_id, type et contenu sont obligatoires."
	switch {
	case in.ClientID <= 0:
		return domain.Exchange{}, invalid("client_id", msg)
	case in.Type == "":
		return domain.Exchange{}, invalid("type", msg)
	case strings.TrimSpace(in.Contenu) == "":
		return domain.Exchange{}, invalid("contenu", msg)
	}

	ok, err := s.Store.Clients().ClientExists(ctx, in.ClientID)
	if err != nil {
		return domain.Exchange{}, fmt.Errorf("exchanges: %w", err)
	}
	if !ok {
		return domain.Exchange{}, ErrClientNotFound
	}

	e := domain.Exchange{
		ClientID: in.ClientID,
		Type:     in.Type,
		Sujet:    in.Sujet,
		Contenu:  in.Contenu,
	}
	id, err := s.Store.Exchanges().CreateExchange(ctx, e)
	if errors.Is(err, store.ErrNotFound) {
		// Client deleted between the check and the insert.
		return domain.Exchange{}, ErrClientNotFound
	}
	if err != nil {
		return domain.Exchange{}, fmt.Errorf("exchanges: %w", err)
	}

	slogx.FromContext(ctx).Info("exchange created", "exchange_id", id, "client_id", in.ClientID)
	return s.getExchange(ctx, id)
}

func (s *ExchangeService) UpdateExchange(ctx context.Context, id int64, in ExchangeInput) (domain.Exchange, error) {
	in.Type = strings.TrimSpace(in.Type)
	in.Sujet = strings.TrimSpace(in.Sujet)

	const msg = "Les champs type et contenu sont obligatoires."
	switch {
	case in.Type == "":
		return domain.Exchange{}, invalid("type", msg)
	case strings.TrimSpace(in.Contenu) == "":
		return domain.Exchange{}, invalid("contenu", msg)
	}

	err := s.Store.Exchanges().UpdateExchange(ctx, domain.Exchange{
		ID:      id,
		Type:    in.Type,
		Sujet:   in.Sujet,
		Contenu: in.Contenu,
	})
	if err != nil {
		return domain.Exchange{}, exchangeErr(err)
	}
	return s.getExchange(ctx, id)
}

func (s *ExchangeService) DeleteExchange(ctx context.Context, id int64) error {
	return exchangeErr(s.Store.Exchanges().DeleteExchange(ctx, id))
}

func (s *ExchangeService) getExchange(ctx context.Context, id int64) (domain.Exchange, error) {
	e, err := s.Store.Exchanges().GetExchange(ctx, id)
	return e, exchangeErr(err)
}

func exchangeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrExchangeNotFound
	default:
		return fmt.Errorf("exchanges: %w", err)
	}
}
