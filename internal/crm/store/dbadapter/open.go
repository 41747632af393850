package dbadapter

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Config selects and configures the engine. A non-empty URL selects
// PostgreSQL; otherwise File is opened with SQLite.
type Config struct {
	URL  string
	File string

	// SSLMode is applied to PostgreSQL URLs that do not set sslmode.
	SSLMode string

	MaxOpenConns int
}

// Open connects to the configured engine and verifies connectivity.
func Open(ctx context.Context, cfg Config) (Adapter, error) {
	if cfg.URL != "" {
		return OpenPostgres(ctx, cfg.URL, cfg.SSLMode, cfg.MaxOpenConns)
	}
	return OpenSQLite(ctx, cfg.File)
}

// SQLiteDSN builds a modernc DSN with foreign keys, WAL and a busy timeout
// applied to every pooled connection.
func SQLiteDSN(path string) string {
	path = strings.TrimPrefix(path, "file:")
	return "file:" + path +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_time_format=sqlite"
}

func OpenSQLite(ctx context.Context, path string) (Adapter, error) {
	if path == "" {
		return nil, fmt.Errorf("dbadapter: sqlite file path is empty")
	}

	db, err := sql.Open("sqlite", SQLiteDSN(path))
	if err != nil {
		return nil, err
	}
	if err := ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect sqlite %s: %w", path, err)
	}
	return &sqlAdapter{db: db, d: sqliteDialect{}}, nil
}

func OpenPostgres(ctx context.Context, rawURL, sslMode string, maxOpen int) (Adapter, error) {
	dsn, err := withSSLMode(rawURL, sslMode)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if maxOpen <= 0 {
		maxOpen = 10
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen / 2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect postgres %s: %w", MaskURL(rawURL), err)
	}
	return &sqlAdapter{db: db, d: postgresDialect{}}, nil
}

func ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

func withSSLMode(rawURL, sslMode string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("dbadapter: invalid database url: %w", err)
	}
	if sslMode == "" {
		return rawURL, nil
	}
	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", sslMode)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// MaskURL hides the password of a connection URL for logging.
func MaskURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	return u.Redacted()
}
