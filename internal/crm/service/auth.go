package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abodyssee/crm/internal/crm/domain"
	"github.com/abodyssee/crm/internal/crm/store"
	"github.com/abodyssee/crm/pkg/cryptox"
	"github.com/abodyssee/crm/pkg/slogx"
)

const (
	MaxUsernameLength = 100
	MaxPasswordLength = 200

	// DefaultUnknownUserDelay slows down answers for usernames that do not
	// exist, so timing does not reveal which accounts are real.
	DefaultUnknownUserDelay = 500 * time.Millisecond
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_@.-]+$`)

type AuthService struct {
	Store store.Store

	UnknownUserDelay time.Duration
	Now              func() time.Time
}

// Login checks the credentials and returns the identity to put in the
// session. Malformed input is a *ValidationError; wrong username or
// password is ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (domain.SessionUser, error) {
	l := slogx.FromContext(ctx)

	username, err := validateCredentials(username, password)
	if err != nil {
		return domain.SessionUser{}, err
	}

	admin, err := s.Store.Admins().GetAdminByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		l.Info("login failed: unknown username", "username", username)
		s.unknownUserDelay(ctx)
		return domain.SessionUser{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.SessionUser{}, fmt.Errorf("lookup admin: %w", err)
	}

	if err := cryptox.VerifyPassword(password, admin.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Warn("stored password hash is unreadable", "admin_id", admin.ID, "error", err)
		}
		l.Info("login failed: wrong password", "username", username)
		return domain.SessionUser{}, ErrInvalidCredentials
	}

	if err := s.Store.Admins().TouchLastLogin(ctx, admin.ID, s.now()); err != nil {
		return domain.SessionUser{}, fmt.Errorf("stamp last login: %w", err)
	}

	if cryptox.NeedsRehash(admin.PasswordHash) {
		s.rehash(ctx, admin, password)
	}

	l.Info("login succeeded", "username", admin.Username, "admin_id", admin.ID)
	return domain.SessionUser{
		ID:       admin.ID,
		Username: admin.Username,
		Email:    admin.Email,
	}, nil
}

// rehash upgrades a legacy or outdated hash. Failure only costs another
// upgrade attempt at the next login.
func (s *AuthService) rehash(ctx context.Context, admin domain.Admin, password string) {
	l := slogx.FromContext(ctx)

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		l.Warn("password rehash failed", "admin_id", admin.ID, "error", err)
		return
	}
	if err := s.Store.Admins().UpdatePasswordHash(ctx, admin.ID, hash); err != nil {
		l.Warn("password rehash not saved", "admin_id", admin.ID, "error", err)
		return
	}
	l.Info("password hash upgraded", "admin_id", admin.ID)
}

func (s *AuthService) unknownUserDelay(ctx context.Context) {
	d := s.UnknownUserDelay
	if d == 0 {
		d = DefaultUnknownUserDelay
	}
	if d < 0 {
		return
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// validateCredentials returns the trimmed username.
func validateCredentials(username, password string) (string, error) {
	if username == "" || password == "" {
		field := "username"
		if username != "" {
			field = "password"
		}
		return "", invalid(field, "Nom d'utilisateur et mot de passe requis.")
	}

	trimmed := strings.TrimSpace(username)
	if utf8.RuneCountInString(username) > MaxUsernameLength || trimmed == "" {
		return "", invalid("username", "Nom d'utilisateur invalide.")
	}
	if utf8.RuneCountInString(password) > MaxPasswordLength {
		return "", invalid("password", "Mot de passe invalide.")
	}
	if !usernamePattern.MatchString(trimmed) {
		return "", invalid("username", "Nom d'utilisateur invalide.")
	}
	return trimmed, nil
}
