// Package session is the session half of the credential gate: it issues the
// signed session cookie, keeps the server-side record in a pluggable store
// and guards routes that need an authenticated admin.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/abodyssee/crm/internal/crm/domain"
	"github.com/abodyssee/crm/internal/crm/store"
	"github.com/abodyssee/crm/pkg/cryptox"
	"github.com/abodyssee/crm/pkg/jwtx"
)

const (
	DefaultCookieName = "crm-session"
	DefaultIssuer     = "crm"
)

// ErrNoSession means the request carries no live session.
var ErrNoSession = errors.New("session: no valid session")

type Config struct {
	CookieName string
	TTL        time.Duration
	// Secure marks the cookie HTTPS-only (production).
	Secure bool
	Issuer string

	Secret []byte
	// PreviousSecrets still verify cookies issued before a rotation.
	PreviousSecrets [][]byte

	Now func() time.Time
}

// Manager issues, loads and destroys sessions.
type Manager struct {
	cfg      Config
	store    store.Sessions
	signer   *jwtx.HS256Signer
	verifier *jwtx.HS256Verifier
}

func NewManager(cfg Config, st store.Sessions) (*Manager, error) {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.TTL <= 0 {
		cfg.TTL = jwtx.DefaultSessionTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	signer, err := jwtx.NewSignerHS256(cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	return &Manager{
		cfg:    cfg,
		store:  st,
		signer: signer,
		verifier: jwtx.NewVerifierHS256(jwtx.VerifyOptions{
			Issuer: cfg.Issuer,
			Now:    cfg.Now,
		}, cfg.Secret, cfg.PreviousSecrets...),
	}, nil
}

// CookieName is the name of the session cookie.
func (m *Manager) CookieName() string { return m.cfg.CookieName }

// Start creates a fresh session for user and sets the cookie. Any session
// the request already carried is destroyed first so a planted cookie cannot
// be promoted to an authenticated one.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, r *http.Request, user domain.SessionUser) (domain.Session, error) {
	if token, err := m.token(r); err == nil {
		if err := m.store.DeleteSession(ctx, cryptox.FingerprintToken(token)); err != nil {
			return domain.Session{}, fmt.Errorf("destroy previous session: %w", err)
		}
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Session{}, err
	}

	now := m.now()
	s := domain.Session{
		ID:        cryptox.FingerprintToken(token),
		User:      user,
		CreatedAt: now,
		ExpiresAt: now.Add(m.cfg.TTL),
	}
	if err := m.store.CreateSession(ctx, s); err != nil {
		return domain.Session{}, fmt.Errorf("create session: %w", err)
	}

	if err := m.writeCookie(w, token, s); err != nil {
		return domain.Session{}, err
	}
	return s, nil
}

// Load returns the live session carried by r and its opaque token.
// It returns ErrNoSession for a missing, forged or expired cookie.
func (m *Manager) Load(ctx context.Context, r *http.Request) (domain.Session, string, error) {
	token, err := m.token(r)
	if err != nil {
		return domain.Session{}, "", err
	}

	s, err := m.store.GetSession(ctx, cryptox.FingerprintToken(token))
	if errors.Is(err, store.ErrNotFound) {
		return domain.Session{}, "", ErrNoSession
	}
	if err != nil {
		return domain.Session{}, "", fmt.Errorf("load session: %w", err)
	}

	if s.Expired(m.now()) {
		_ = m.store.DeleteSession(ctx, s.ID)
		return domain.Session{}, "", ErrNoSession
	}
	return s, token, nil
}

// Refresh slides the expiry forward once less than half the TTL remains
// and re-issues the cookie to match.
func (m *Manager) Refresh(ctx context.Context, w http.ResponseWriter, s domain.Session, token string) (domain.Session, error) {
	now := m.now()
	if s.ExpiresAt.Sub(now) >= m.cfg.TTL/2 {
		return s, nil
	}

	s.ExpiresAt = now.Add(m.cfg.TTL)
	if err := m.store.ExtendSession(ctx, s.ID, s.ExpiresAt); err != nil {
		return s, fmt.Errorf("extend session: %w", err)
	}
	return s, m.writeCookie(w, token, s)
}

// Destroy removes the session carried by r, if any, and always clears the
// cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	m.clearCookie(w)

	token, err := m.token(r)
	if err != nil {
		return nil
	}
	if err := m.store.DeleteSession(ctx, cryptox.FingerprintToken(token)); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

func (m *Manager) token(r *http.Request) (string, error) {
	c, err := r.Cookie(m.cfg.CookieName)
	if err != nil || c.Value == "" {
		return "", ErrNoSession
	}
	claims, err := m.verifier.Verify(c.Value)
	if err != nil {
		return "", ErrNoSession
	}
	return claims.ID, nil
}

func (m *Manager) writeCookie(w http.ResponseWriter, token string, s domain.Session) error {
	now := m.now()
	ttl := s.ExpiresAt.Sub(now)
	claims := jwtx.NewSessionClaims(strconv.FormatInt(s.User.ID, 10), token, m.cfg.Issuer, ttl, now)
	value, err := m.signer.Sign(claims)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  s.ExpiresAt,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (m *Manager) now() time.Time {
	return m.cfg.Now().UTC().Truncate(time.Second)
}
