package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abodyssee/crm/internal/crm/domain"
	"github.com/abodyssee/crm/internal/crm/store"
	"github.com/abodyssee/crm/pkg/cryptox"
	"github.com/abodyssee/crm/pkg/slogx"
)

const MinBootstrapPasswordLength = 8

var ErrBootstrapInvalid = errors.New("invalid bootstrap admin")

// BootstrapAdmin describes the account created on first start.
type BootstrapAdmin struct {
	Username string
	Password string
	Email    string
}

type BootstrapService struct {
	Store store.Store
}

// EnsureAdmin creates the configured admin account unless it already
// exists. It never overwrites an existing password.
func (s *BootstrapService) EnsureAdmin(ctx context.Context, req BootstrapAdmin) error {
	l := slogx.FromContext(ctx)

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := validateBootstrap(req); err != nil {
		return err
	}

	_, err := s.Store.Admins().GetAdminByUsername(ctx, req.Username)
	if err == nil {
		l.Info("bootstrap admin already exists", slog.String("username", req.Username))
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("lookup bootstrap admin: %w", err)
	}

	passHash, err := cryptox.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("hash bootstrap password: %w", err)
	}

	id, err := s.Store.Admins().CreateAdmin(ctx, domain.Admin{
		Username:     req.Username,
		PasswordHash: passHash,
		Email:        req.Email,
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		// Another replica won the race.
		return nil
	}
	if err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}

	l.Info("bootstrap admin created",
		slog.Int64("admin_id", id),
		slog.String("username", req.Username),
	)
	return nil
}

func validateBootstrap(req BootstrapAdmin) error {
	switch {
	case !usernamePattern.MatchString(req.Username) || len(req.Username) > MaxUsernameLength:
		return fmt.Errorf("%w: username %q", ErrBootstrapInvalid, req.Username)
	case len(req.Password) < MinBootstrapPasswordLength:
		return fmt.Errorf("%w: password shorter than %d characters", ErrBootstrapInvalid, MinBootstrapPasswordLength)
	case req.Email != "" && !ValidEmail(req.Email):
		return fmt.Errorf("%w: email %q", ErrBootstrapInvalid, req.Email)
	}
	return nil
}
