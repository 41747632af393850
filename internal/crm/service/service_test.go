package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abodyssee/crm/internal/crm/domain"
	"github.com/abodyssee/crm/internal/crm/mail"
	"github.com/abodyssee/crm/internal/crm/store/dbadapter"
	"github.com/abodyssee/crm/internal/crm/store/schema"
	"github.com/abodyssee/crm/internal/crm/store/sqlstore"
	"github.com/abodyssee/crm/pkg/cryptox"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "crm-service-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func newStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	ctx := context.Background()

	db, err := dbadapter.OpenSQLite(ctx, filepath.Join(t.TempDir(), "crm.db"))
	require.NoError(t, err)
	require.NoError(t, schema.Ensure(ctx, db, slog.New(slog.NewTextHandler(io.Discard, nil))))

	st := sqlstore.New(db)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func createAdmin(t *testing.T, st *sqlstore.Store, username, hash string) int64 {
	t.Helper()
	id, err := st.Admins().CreateAdmin(context.Background(), domain.Admin{
		Username:     username,
		PasswordHash: hash,
		Email:        username + "@abodyssee.fr",
	})
	require.NoError(t, err)
	return id
}

func TestValidateCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		username string
		password string
		field    string
	}{
		{"missing username", "", "secret", "username"},
		{"missing password", "marie", "", "password"},
		{"blank username", "   ", "secret", "username"},
		{"username too long", string(make([]byte, 101)), "secret", "username"},
		{"password too long", "marie", string(make([]rune, 201)), "password"},
		{"forbidden characters", "marie'--", "secret", "username"},
		{"space inside username", "ma rie", "secret", "username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validateCredentials(tt.username, tt.password)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tt.field, verr.Field)
		})
	}

	t.Run("trims surrounding spaces", func(t *testing.T) {
		username, err := validateCredentials("  marie.d@abodyssee.fr ", "secret")
		require.NoError(t, err)
		require.Equal(t, "marie.d@abodyssee.fr", username)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	hash, err := cryptox.HashPassword("Correct-Horse-1")
	require.NoError(t, err)
	id := createAdmin(t, st, "marie", hash)

	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	svc := &AuthService{Store: st, UnknownUserDelay: -1, Now: func() time.Time { return now }}

	t.Run("valid credentials", func(t *testing.T) {
		user, err := svc.Login(ctx, " marie ", "Correct-Horse-1")
		require.NoError(t, err)
		require.Equal(t, domain.SessionUser{ID: id, Username: "marie", Email: "marie@abodyssee.fr"}, user)

		admin, err := st.Admins().GetAdminByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, admin.LastLoginAt)
		require.True(t, now.Equal(*admin.LastLoginAt))
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "marie", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user gets the same error", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("malformed input never reaches the store", func(t *testing.T) {
		_, err := (&AuthService{}).Login(ctx, "bad user", "x")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})
}

func TestLoginUnknownUserDelay(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	hash, err := cryptox.HashPassword("Correct-Horse-1")
	require.NoError(t, err)
	createAdmin(t, st, "marie", hash)

	svc := &AuthService{Store: st}

	start := time.Now()
	_, unknownErr := svc.Login(ctx, "nobody", "whatever")
	require.GreaterOrEqual(t, time.Since(start), DefaultUnknownUserDelay)

	_, wrongErr := svc.Login(ctx, "marie", "whatever")
	require.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	require.Equal(t, wrongErr, unknownErr)
}

func TestLoginUnknownUserDelayHonoursContext(t *testing.T) {
	st := newStore(t)
	svc := &AuthService{Store: st, UnknownUserDelay: time.Hour}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := svc.Login(ctx, "nobody", "whatever")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Less(t, time.Since(start), time.Minute)
}

func TestLoginUpgradesLegacyHash(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	legacy, err := bcrypt.GenerateFromPassword([]byte("Admin123!"), bcrypt.MinCost)
	require.NoError(t, err)
	id := createAdmin(t, st, "admin", string(legacy))

	svc := &AuthService{Store: st, UnknownUserDelay: -1}
	_, err = svc.Login(ctx, "admin", "Admin123!")
	require.NoError(t, err)

	admin, err := st.Admins().GetAdminByID(ctx, id)
	require.NoError(t, err)
	require.False(t, cryptox.IsLegacyHash(admin.PasswordHash))
	require.NoError(t, cryptox.VerifyPassword("Admin123!", admin.PasswordHash))

	// Still works with the upgraded hash.
	_, err = svc.Login(ctx, "admin", "Admin123!")
	require.NoError(t, err)
}

func TestClientService(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	svc := &ClientService{Store: st}

	in := ClientInput{
		Nom:      " Durand ",
		Prenom:   "Alice",
		Email:    "alice@example.com",
		Services: []string{"SEO", " SEO ", "Site web"},
		Type:     "vip",
	}

	created, err := svc.CreateClient(ctx, in, "marie")
	require.NoError(t, err)
	require.Equal(t, "Durand", created.Nom)
	require.Equal(t, []string{"SEO", "Site web"}, created.Services)
	require.Equal(t, domain.ClientTypeProspect, created.Type)
	require.Equal(t, "marie", created.CreatedBy)

	_, err = svc.CreateClient(ctx, in, "marie")
	require.ErrorIs(t, err, ErrClientExists)

	t.Run("required fields", func(t *testing.T) {
		missing := in
		missing.Services = []string{"  "}
		_, err := svc.CreateClient(ctx, missing, "marie")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, "service_demande", verr.Field)
	})

	t.Run("update", func(t *testing.T) {
		upd := in
		upd.Type = "client"
		upd.Telephone = "0102030405"
		got, err := svc.UpdateClient(ctx, created.ID, upd)
		require.NoError(t, err)
		require.Equal(t, domain.ClientTypeClient, got.Type)
		require.Equal(t, "0102030405", got.Telephone)
		require.Equal(t, "marie", got.CreatedBy, "creator is not rewritten")

		_, err = svc.UpdateClient(ctx, 4242, upd)
		require.ErrorIs(t, err, ErrClientNotFound)
	})

	t.Run("complete view", func(t *testing.T) {
		ex := &ExchangeService{Store: st}
		_, err := ex.CreateExchange(ctx, ExchangeInput{ClientID: created.ID, Type: "appel", Contenu: "Premier contact"})
		require.NoError(t, err)

		c, exchanges, err := svc.GetClientWithExchanges(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, created.ID, c.ID)
		require.Len(t, exchanges, 1)

		_, _, err = svc.GetClientWithExchanges(ctx, 4242)
		require.ErrorIs(t, err, ErrClientNotFound)
	})

	require.NoError(t, svc.DeleteClient(ctx, created.ID))
	require.ErrorIs(t, svc.DeleteClient(ctx, created.ID), ErrClientNotFound)
	_, err = svc.GetClient(ctx, created.ID)
	require.ErrorIs(t, err, ErrClientNotFound)
}

func TestExchangeService(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	clients := &ClientService{Store: st}
	svc := &ExchangeService{Store: st}

	c, err := clients.CreateClient(ctx, ClientInput{Nom: "Martin", Prenom: "Paul", Email: "paul@example.com", Services: []string{"Logo"}}, "admin")
	require.NoError(t, err)

	t.Run("unknown parent is not found", func(t *testing.T) {
		_, err := svc.CreateExchange(ctx, ExchangeInput{ClientID: 999, Type: "appel", Contenu: "x"})
		require.ErrorIs(t, err, ErrClientNotFound)
	})

	t.Run("required fields", func(t *testing.T) {
		_, err := svc.CreateExchange(ctx, ExchangeInput{ClientID: c.ID, Type: "appel"})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, "contenu", verr.Field)
	})

	e, err := svc.CreateExchange(ctx, ExchangeInput{ClientID: c.ID, Type: "email", Sujet: "Devis", Contenu: "Envoi du devis"})
	require.NoError(t, err)
	require.Equal(t, c.ID, e.ClientID)

	all, err := svc.ListExchanges(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "Martin", all[0].ClientNom)

	_, err = svc.UpdateExchange(ctx, e.ID, ExchangeInput{Sujet: "Devis"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "type", verr.Field)

	updated, err := svc.UpdateExchange(ctx, e.ID, ExchangeInput{Type: "rdv", Contenu: "Rendez-vous fixé"})
	require.NoError(t, err)
	require.Equal(t, "rdv", updated.Type)
	require.Empty(t, updated.Sujet)

	_, err = svc.UpdateExchange(ctx, 999, ExchangeInput{Type: "rdv", Contenu: "x"})
	require.ErrorIs(t, err, ErrExchangeNotFound)

	require.NoError(t, svc.DeleteExchange(ctx, e.ID))
	require.ErrorIs(t, svc.DeleteExchange(ctx, e.ID), ErrExchangeNotFound)
}

type fakeMailer struct {
	sent []mail.ContactMessage
	err  error
}

func (f *fakeMailer) SendContact(_ context.Context, m mail.ContactMessage) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, m)
	return "msg-1", nil
}

func TestContactService(t *testing.T) {
	ctx := context.Background()
	valid := ContactInput{Name: "Jean", Email: "jean@example.com", Service: "SEO", Message: "Bonjour"}

	t.Run("validation", func(t *testing.T) {
		svc := &ContactService{Mailer: &fakeMailer{}}

		var verr *ValidationError
		bad := valid
		bad.Message = " "
		require.ErrorAs(t, svc.Send(ctx, bad), &verr)
		require.Equal(t, "message", verr.Field)

		bad = valid
		bad.Email = "jean@example"
		require.ErrorAs(t, svc.Send(ctx, bad), &verr)
		require.Equal(t, "Format d'email invalide.", verr.Message)
	})

	t.Run("no mailer", func(t *testing.T) {
		svc := &ContactService{}
		require.ErrorIs(t, svc.Send(ctx, valid), ErrMailerUnavailable)
	})

	t.Run("provider failure", func(t *testing.T) {
		svc := &ContactService{Mailer: &fakeMailer{err: errors.New("boom")}}
		err := svc.Send(ctx, valid)
		require.ErrorIs(t, err, ErrMailDelivery)
		require.ErrorContains(t, err, "boom")
	})

	t.Run("sent", func(t *testing.T) {
		m := &fakeMailer{}
		at := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)
		svc := &ContactService{Mailer: m, Now: func() time.Time { return at }}
		require.NoError(t, svc.Send(ctx, valid))
		require.Len(t, m.sent, 1)
		require.Equal(t, "SEO", m.sent[0].Service)
		require.Equal(t, at, m.sent[0].ReceivedAt)
	})
}

func TestBootstrapService(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	svc := &BootstrapService{Store: st}

	require.ErrorIs(t, svc.EnsureAdmin(ctx, BootstrapAdmin{Username: "admin", Password: "short"}), ErrBootstrapInvalid)
	require.ErrorIs(t, svc.EnsureAdmin(ctx, BootstrapAdmin{Username: "bad user", Password: "long-enough"}), ErrBootstrapInvalid)
	require.ErrorIs(t, svc.EnsureAdmin(ctx, BootstrapAdmin{Username: "admin", Password: "long-enough", Email: "nope"}), ErrBootstrapInvalid)

	req := BootstrapAdmin{Username: "admin", Password: "long-enough", Email: "admin@abodyssee.fr"}
	require.NoError(t, svc.EnsureAdmin(ctx, req))

	admin, err := st.Admins().GetAdminByUsername(ctx, "admin")
	require.NoError(t, err)
	require.NoError(t, cryptox.VerifyPassword("long-enough", admin.PasswordHash))

	// A second start with a different password leaves the account alone.
	req.Password = "another-password"
	require.NoError(t, svc.EnsureAdmin(ctx, req))
	again, err := st.Admins().GetAdminByUsername(ctx, "admin")
	require.NoError(t, err)
	require.Equal(t, admin.PasswordHash, again.PasswordHash)
}

func TestHousekeepingCleanup(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	id := createAdmin(t, st, "marie", "hash")

	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	user := domain.SessionUser{ID: id, Username: "marie"}
	require.NoError(t, st.Sessions().CreateSession(ctx, domain.Session{ID: "old", User: user, CreatedAt: now.Add(-48 * time.Hour), ExpiresAt: now.Add(-24 * time.Hour)}))
	require.NoError(t, st.Sessions().CreateSession(ctx, domain.Session{ID: "new", User: user, CreatedAt: now, ExpiresAt: now.Add(24 * time.Hour)}))

	hk := NewHousekeepingService(st.Sessions(), slog.New(slog.NewTextHandler(io.Discard, nil)), time.Hour)
	hk.Now = func() time.Time { return now }
	require.EqualValues(t, 1, hk.Cleanup(ctx))

	_, err := st.Sessions().GetSession(ctx, "new")
	require.NoError(t, err)

	hk.Start()
	hk.Stop()
	hk.Stop()

	idle := NewHousekeepingService(st.Sessions(), slog.New(slog.NewTextHandler(io.Discard, nil)), 0)
	require.Equal(t, time.Hour, idle.Interval)
	idle.Stop()
}
