package store

import (
	"context"
	"errors"
	"time"

	"github.com/abodyssee/crm/internal/crm/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. The sqlstore driver implements it
// on top of the database adapter so the same repositories run on SQLite and
// PostgreSQL. Each mutation is a single statement; there is no Tx.
type Store interface {
	Admins() Admins
	Clients() Clients
	Exchanges() Exchanges
	Sessions() Sessions

	// Close flushes and releases the underlying connection pool.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Admins interface {
	// GetAdminByUsername is used during login.
	GetAdminByUsername(ctx context.Context, username string) (domain.Admin, error)

	GetAdminByID(ctx context.Context, id int64) (domain.Admin, error)

	// CreateAdmin inserts a new account and returns its generated id.
	CreateAdmin(ctx context.Context, a domain.Admin) (int64, error)

	// UpdatePasswordHash replaces the stored hash (bcrypt to argon2id upgrade).
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error

	// TouchLastLogin stamps derniere_connexion.
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

type Clients interface {
	// ListClients returns all clients, newest first.
	ListClients(ctx context.Context) ([]domain.Client, error)

	GetClient(ctx context.Context, id int64) (domain.Client, error)

	// ClientExists is a cheap existence probe used before inserting children.
	ClientExists(ctx context.Context, id int64) (bool, error)

	// CreateClient inserts a client and returns its generated id.
	// A duplicate email yields ErrAlreadyExists.
	CreateClient(ctx context.Context, c domain.Client) (int64, error)

	// UpdateClient overwrites every mutable field and bumps date_modification.
	UpdateClient(ctx context.Context, c domain.Client) error

	// DeleteClient cascades to echanges (per schema).
	DeleteClient(ctx context.Context, id int64) error
}

type Exchanges interface {
	// ListExchanges returns every exchange joined with its client, newest first.
	ListExchanges(ctx context.Context) ([]domain.ExchangeWithClient, error)

	// ListClientExchanges returns the exchanges of one client, newest first.
	ListClientExchanges(ctx context.Context, clientID int64) ([]domain.Exchange, error)

	GetExchange(ctx context.Context, id int64) (domain.Exchange, error)

	CreateExchange(ctx context.Context, e domain.Exchange) (int64, error)

	// UpdateExchange rewrites type, sujet and contenu.
	UpdateExchange(ctx context.Context, e domain.Exchange) error

	DeleteExchange(ctx context.Context, id int64) error
}

type Sessions interface {
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSession returns a session by fingerprint, expired or not.
	GetSession(ctx context.Context, id string) (domain.Session, error)

	// ExtendSession moves the expiry of a live session (sliding expiry).
	ExtendSession(ctx context.Context, id string, expiresAt time.Time) error

	DeleteSession(ctx context.Context, id string) error

	// DeleteExpiredSessions is housekeeping; returns the number of rows removed.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}
