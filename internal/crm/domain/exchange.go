package domain

import "time"

// Exchange is a logged interaction (call, meeting, email) with a client.
type Exchange struct {
	ID        int64
	ClientID  int64
	Type      string
	Sujet     string
	Contenu   string
	CreatedAt time.Time
}

// ExchangeWithClient is an exchange joined with its parent client's identity.
type ExchangeWithClient struct {
	Exchange

	ClientNom    string
	ClientPrenom string
	ClientEmail  string
}
