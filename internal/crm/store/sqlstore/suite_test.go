package sqlstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/abodyssee/crm/internal/crm/domain"
	"github.com/abodyssee/crm/internal/crm/store"
	"github.com/abodyssee/crm/internal/crm/store/sqlstore"
	"github.com/stretchr/testify/require"
)

/*
 * Repository behaviour shared by every engine. Each engine test opens a fresh
 * database, ensures the schema and hands the store to runStoreSuite.
 */

func newClient(email string) domain.Client {
	return domain.Client{
		Nom:      "Durand",
		Prenom:   "Alice",
		Email:    email,
		Services: []string{"Site web", "SEO"},
	}
}

func runStoreSuite(t *testing.T, st *sqlstore.Store) {
	ctx := context.Background()

	t.Run("clients", func(t *testing.T) {
		id1, err := st.Clients().CreateClient(ctx, newClient("first@example.com"))
		require.NoError(t, err)
		require.NotZero(t, id1)

		second := newClient("second@example.com")
		second.Type = domain.ClientTypeClient
		second.Telephone = "0601020304"
		second.Services = []string{"Conseil, audit"}
		id2, err := st.Clients().CreateClient(ctx, second)
		require.NoError(t, err)

		got, err := st.Clients().GetClient(ctx, id1)
		require.NoError(t, err)
		require.Equal(t, domain.ClientTypeProspect, got.Type, "type defaults to prospect")
		require.Equal(t, domain.DefaultCreatedBy, got.CreatedBy)
		require.Equal(t, []string{"Site web", "SEO"}, got.Services)
		require.Empty(t, got.Telephone)
		require.False(t, got.CreatedAt.IsZero())

		got, err = st.Clients().GetClient(ctx, id2)
		require.NoError(t, err)
		require.Equal(t, []string{"Conseil, audit"}, got.Services)
		require.Equal(t, "0601020304", got.Telephone)

		list, err := st.Clients().ListClients(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, id2, list[0].ID, "newest first")

		_, err = st.Clients().CreateClient(ctx, newClient("first@example.com"))
		require.ErrorIs(t, err, store.ErrAlreadyExists)

		got.Type = ""
		got.Nom = "Dupont"
		require.NoError(t, st.Clients().UpdateClient(ctx, got))
		got, err = st.Clients().GetClient(ctx, id2)
		require.NoError(t, err)
		require.Equal(t, "Dupont", got.Nom)
		require.Equal(t, domain.ClientTypeProspect, got.Type)

		got.ID = 999999
		require.ErrorIs(t, st.Clients().UpdateClient(ctx, got), store.ErrNotFound)

		_, err = st.Clients().GetClient(ctx, 999999)
		require.ErrorIs(t, err, store.ErrNotFound)

		ok, err := st.Clients().ClientExists(ctx, id1)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("exchanges cascade with their client", func(t *testing.T) {
		clientID, err := st.Clients().CreateClient(ctx, newClient("echanges@example.com"))
		require.NoError(t, err)

		first, err := st.Exchanges().CreateExchange(ctx, domain.Exchange{ClientID: clientID, Type: "appel", Contenu: "Premier appel"})
		require.NoError(t, err)
		second, err := st.Exchanges().CreateExchange(ctx, domain.Exchange{ClientID: clientID, Type: "email", Sujet: "Devis", Contenu: "Envoi du devis"})
		require.NoError(t, err)

		list, err := st.Exchanges().ListClientExchanges(ctx, clientID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, second, list[0].ID)
		require.Equal(t, first, list[1].ID)
		require.Equal(t, "Devis", list[0].Sujet)

		all, err := st.Exchanges().ListExchanges(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, all)
		require.Equal(t, "echanges@example.com", all[0].ClientEmail)
		require.Equal(t, "Alice", all[0].ClientPrenom)

		require.NoError(t, st.Exchanges().UpdateExchange(ctx, domain.Exchange{ID: first, Type: "rdv", Contenu: "Rendez-vous"}))
		ex, err := st.Exchanges().GetExchange(ctx, first)
		require.NoError(t, err)
		require.Equal(t, "rdv", ex.Type)

		_, err = st.Exchanges().CreateExchange(ctx, domain.Exchange{ClientID: 999999, Type: "appel", Contenu: "orphan"})
		require.ErrorIs(t, err, store.ErrNotFound)

		require.NoError(t, st.Clients().DeleteClient(ctx, clientID))
		list, err = st.Exchanges().ListClientExchanges(ctx, clientID)
		require.NoError(t, err)
		require.Empty(t, list)

		_, err = st.Exchanges().GetExchange(ctx, second)
		require.ErrorIs(t, err, store.ErrNotFound)
		require.ErrorIs(t, st.Exchanges().DeleteExchange(ctx, second), store.ErrNotFound)
		require.ErrorIs(t, st.Clients().DeleteClient(ctx, clientID), store.ErrNotFound)
	})

	t.Run("admins and sessions", func(t *testing.T) {
		adminID, err := st.Admins().CreateAdmin(ctx, domain.Admin{Username: "marie", PasswordHash: "hash", Email: "marie@example.com"})
		require.NoError(t, err)

		_, err = st.Admins().CreateAdmin(ctx, domain.Admin{Username: "marie", PasswordHash: "hash"})
		require.ErrorIs(t, err, store.ErrAlreadyExists)

		admin, err := st.Admins().GetAdminByUsername(ctx, "marie")
		require.NoError(t, err)
		require.Equal(t, adminID, admin.ID)
		require.Nil(t, admin.LastLoginAt)

		at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
		require.NoError(t, st.Admins().TouchLastLogin(ctx, adminID, at))
		require.NoError(t, st.Admins().UpdatePasswordHash(ctx, adminID, "newhash"))

		admin, err = st.Admins().GetAdminByID(ctx, adminID)
		require.NoError(t, err)
		require.Equal(t, "newhash", admin.PasswordHash)
		require.NotNil(t, admin.LastLoginAt)
		require.True(t, at.Equal(*admin.LastLoginAt))

		_, err = st.Admins().GetAdminByUsername(ctx, "nobody")
		require.ErrorIs(t, err, store.ErrNotFound)

		now := time.Now().UTC().Truncate(time.Second)
		live := domain.Session{
			ID:        "live",
			User:      domain.SessionUser{ID: adminID, Username: "marie", Email: "marie@example.com"},
			CreatedAt: now,
			ExpiresAt: now.Add(time.Hour),
		}
		expired := live
		expired.ID = "expired"
		expired.ExpiresAt = now.Add(-time.Minute)

		require.NoError(t, st.Sessions().CreateSession(ctx, live))
		require.NoError(t, st.Sessions().CreateSession(ctx, expired))

		got, err := st.Sessions().GetSession(ctx, "live")
		require.NoError(t, err)
		require.Equal(t, live, got)

		require.NoError(t, st.Sessions().ExtendSession(ctx, "live", now.Add(2*time.Hour)))
		got, err = st.Sessions().GetSession(ctx, "live")
		require.NoError(t, err)
		require.True(t, now.Add(2*time.Hour).Equal(got.ExpiresAt))

		n, err := st.Sessions().DeleteExpiredSessions(ctx, now)
		require.NoError(t, err)
		require.EqualValues(t, 1, n)

		require.NoError(t, st.Sessions().DeleteSession(ctx, "live"))
		_, err = st.Sessions().GetSession(ctx, "live")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}
