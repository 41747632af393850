package domain

import "time"

// ClientType separates leads from signed customers.
type ClientType string

const (
	ClientTypeProspect ClientType = "prospect"
	ClientTypeClient   ClientType = "client"
)

// DefaultCreatedBy is stamped on rows created before ownership was recorded.
const DefaultCreatedBy = "admin"

// ParseClientType returns the matching type, falling back to prospect for
// empty or unknown values.
func ParseClientType(s string) ClientType {
	if t := ClientType(s); t.Valid() {
		return t
	}
	return ClientTypeProspect
}

// Valid reports whether t is one of the known client types.
func (t ClientType) Valid() bool {
	return t == ClientTypeProspect || t == ClientTypeClient
}

type Client struct {
	ID                    int64
	Nom                   string
	Prenom                string
	Email                 string
	Telephone             string
	Siret                 string
	TVAIntracommunautaire string
	Services              []string // stored in service_demande, see FormatServices
	Type                  ClientType
	CreatedBy             string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
