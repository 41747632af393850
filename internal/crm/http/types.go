package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/abodyssee/crm/internal/crm/domain"
)

// Field names follow the columns the existing front-end reads.

type MessageResponse struct {
	Message string `json:"message"`
}

type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type StatusResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *UserResponse `json:"user"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

// ClientRequest is the body of POST and PUT /api/clients. service_demande
// arrives either as an array or as a comma-joined string.
type ClientRequest struct {
	Nom                   string          `json:"nom"`
	Prenom                string          `json:"prenom"`
	Email                 string          `json:"email"`
	Telephone             string          `json:"telephone"`
	Siret                 string          `json:"siret"`
	TVAIntracommunautaire string          `json:"tva_intracommunautaire"`
	ServiceDemande        json.RawMessage `json:"service_demande" swaggertype:"array,string"`
	Type                  string          `json:"type"`
}

type ClientResponse struct {
	ID                    int64     `json:"id"`
	Nom                   string    `json:"nom"`
	Prenom                string    `json:"prenom"`
	Email                 string    `json:"email"`
	Telephone             string    `json:"telephone"`
	Siret                 string    `json:"siret"`
	TVAIntracommunautaire string    `json:"tva_intracommunautaire"`
	ServiceDemande        string    `json:"service_demande"`
	Services              []string  `json:"services"`
	Type                  string    `json:"type"`
	CreatedBy             string    `json:"created_by"`
	DateCreation          time.Time `json:"date_creation"`
	DateModification      time.Time `json:"date_modification"`
}

type ClientMutationResponse struct {
	ID      int64          `json:"id,omitempty"`
	Message string         `json:"message"`
	Client  ClientResponse `json:"client"`
}

// ClientDetailResponse is the "complet" view: the client fields plus its
// exchanges at the same level.
type ClientDetailResponse struct {
	ClientResponse
	Echanges []ExchangeResponse `json:"echanges"`
}

// ExchangeRequest is the body of POST and PUT /api/echanges. client_id is
// only read on creation.
type ExchangeRequest struct {
	ClientID FlexibleID `json:"client_id" swaggertype:"integer"`
	Type     string     `json:"type"`
	Sujet    string     `json:"sujet"`
	Contenu  string     `json:"contenu"`
}

type ExchangeResponse struct {
	ID           int64     `json:"id"`
	ClientID     int64     `json:"client_id"`
	Type         string    `json:"type"`
	Sujet        string    `json:"sujet"`
	Contenu      string    `json:"contenu"`
	DateCreation time.Time `json:"date_creation"`

	ClientNom    string `json:"client_nom,omitempty"`
	ClientPrenom string `json:"client_prenom,omitempty"`
	ClientEmail  string `json:"client_email,omitempty"`
}

type ExchangeMutationResponse struct {
	ID      int64            `json:"id,omitempty"`
	Message string           `json:"message"`
	Echange ExchangeResponse `json:"echange"`
}

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Service string `json:"service"`
	Message string `json:"message"`
}

type ContactResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// HealthChecks reports the status of each dependency probed by /readyz.
type HealthChecks struct {
	Database string `json:"database"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// FlexibleID accepts an id sent as a JSON number or as a numeric string
// (select elements post their value as a string).
type FlexibleID int64

var errInvalidID = errors.New("invalid id")

func (id *FlexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return errInvalidID
		}
		if s == "" {
			*id = 0
			return nil
		}
		b = []byte(s)
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return errInvalidID
	}
	*id = FlexibleID(n)
	return nil
}

func toUserResponse(u domain.SessionUser) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Email: u.Email}
}

func toClientResponse(c domain.Client) ClientResponse {
	services := c.Services
	if services == nil {
		services = []string{}
	}
	return ClientResponse{
		ID:                    c.ID,
		Nom:                   c.Nom,
		Prenom:                c.Prenom,
		Email:                 c.Email,
		Telephone:             c.Telephone,
		Siret:                 c.Siret,
		TVAIntracommunautaire: c.TVAIntracommunautaire,
		ServiceDemande:        domain.FormatServices(services),
		Services:              services,
		Type:                  string(c.Type),
		CreatedBy:             c.CreatedBy,
		DateCreation:          c.CreatedAt,
		DateModification:      c.UpdatedAt,
	}
}

func toClientResponses(cs []domain.Client) []ClientResponse {
	out := make([]ClientResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, toClientResponse(c))
	}
	return out
}

func toExchangeResponse(e domain.Exchange) ExchangeResponse {
	return ExchangeResponse{
		ID:           e.ID,
		ClientID:     e.ClientID,
		Type:         e.Type,
		Sujet:        e.Sujet,
		Contenu:      e.Contenu,
		DateCreation: e.CreatedAt,
	}
}

func toExchangeResponses(es []domain.Exchange) []ExchangeResponse {
	out := make([]ExchangeResponse, 0, len(es))
	for _, e := range es {
		out = append(out, toExchangeResponse(e))
	}
	return out
}

func toJoinedExchangeResponses(es []domain.ExchangeWithClient) []ExchangeResponse {
	out := make([]ExchangeResponse, 0, len(es))
	for _, e := range es {
		r := toExchangeResponse(e.Exchange)
		r.ClientNom = e.ClientNom
		r.ClientPrenom = e.ClientPrenom
		r.ClientEmail = e.ClientEmail
		out = append(out, r)
	}
	return out
}
