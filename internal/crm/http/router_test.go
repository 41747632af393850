package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/abodyssee/crm/internal/crm/domain"
	crmhttp "github.com/abodyssee/crm/internal/crm/http"
	"github.com/abodyssee/crm/internal/crm/mail"
	"github.com/abodyssee/crm/internal/crm/service"
	"github.com/abodyssee/crm/internal/crm/session"
	"github.com/abodyssee/crm/internal/crm/store/dbadapter"
	"github.com/abodyssee/crm/internal/crm/store/schema"
	"github.com/abodyssee/crm/internal/crm/store/sqlstore"
	"github.com/abodyssee/crm/pkg/cryptox"
	"github.com/abodyssee/crm/pkg/httpx"
	"github.com/stretchr/testify/require"
)

const (
	adminUser     = "marie"
	adminPassword = "correct horse battery"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "crm-http-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
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
	return "<msg-1@brevo>", nil
}

type harness struct {
	t       *testing.T
	srv     *httptest.Server
	client  *http.Client
	store   *sqlstore.Store
	private string
}

type harnessOptions struct {
	mailer     service.Mailer
	production bool
	proxyHops  int
}

func newHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := dbadapter.OpenSQLite(ctx, filepath.Join(t.TempDir(), "crm.db"))
	require.NoError(t, err)
	require.NoError(t, schema.Ensure(ctx, db, logger))
	st := sqlstore.New(db)
	t.Cleanup(func() { _ = st.Close() })

	hash, err := cryptox.HashPassword(adminPassword)
	require.NoError(t, err)
	_, err = st.Admins().CreateAdmin(ctx, domain.Admin{
		Username:     adminUser,
		PasswordHash: hash,
		Email:        "marie@abodyssee.fr",
	})
	require.NoError(t, err)

	private := t.TempDir()
	writeFile(t, private, "login.html", "<h1>login</h1>")
	writeFile(t, private, "admin-crm.html", "<h1>crm</h1>")
	writeFile(t, private, "inscription-client.html", "<h1>inscription</h1>")
	writeFile(t, private, "js/auth-check.js", "checkAuth();")
	writeFile(t, private, "notes.txt", "private notes")

	public := t.TempDir()
	writeFile(t, public, "index.html", "<h1>AB Odyssée</h1>")

	files, err := crmhttp.NewFileResolver(private)
	require.NoError(t, err)
	t.Cleanup(func() { _ = files.Close() })

	sessions, err := session.NewManager(session.Config{
		TTL:    time.Hour,
		Secret: []byte(strings.Repeat("k", 32)),
	}, session.NewMemoryStore())
	require.NoError(t, err)

	contact := &service.ContactService{}
	if opts.mailer != nil {
		contact.Mailer = opts.mailer
	}

	router := crmhttp.NewRouter(crmhttp.Config{
		BuildVersion:     "test",
		PublicDir:        public,
		Production:       opts.production,
		TrustedProxyHops: opts.proxyHops,
		CORS:             httpx.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Metrics:          crmhttp.NewMetrics(),
	}, sessions, files, st, logger)
	router.AuthService = &service.AuthService{Store: st, UnknownUserDelay: -1}
	router.ClientService = &service.ClientService{Store: st}
	router.ExchangeService = &service.ExchangeService{Store: st}
	router.ContactService = contact
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &harness{
		t:   t,
		srv: srv,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		store:   st,
		private: private,
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func (h *harness) do(method, path string, body any) *http.Response {
	h.t.Helper()
	return h.doWith(method, path, body, nil)
}

func (h *harness) doWith(method, path string, body any, header http.Header) *http.Response {
	h.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(h.t, err)
		r = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, h.srv.URL+path, r)
	require.NoError(h.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := h.client.Do(req)
	require.NoError(h.t, err)
	h.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (h *harness) login() {
	h.t.Helper()
	resp := h.do(http.MethodPost, "/api/auth/login", crmhttp.LoginRequest{Username: adminUser, Password: adminPassword})
	require.Equal(h.t, http.StatusOK, resp.StatusCode)
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestAuthFlow(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	resp := h.do(http.MethodGet, "/api/auth/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"authenticated":false,"user":null}`, readBody(t, resp))

	resp = h.do(http.MethodPost, "/api/auth/login", crmhttp.LoginRequest{Username: "marie; drop", Password: "x"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errResp := decode[httpx.ErrorResponse](t, resp)
	require.Equal(t, "Nom d'utilisateur invalide.", errResp.Error)
	require.Equal(t, "username", errResp.Field)

	resp = h.do(http.MethodPost, "/api/auth/login", crmhttp.LoginRequest{Username: adminUser})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Nom d'utilisateur et mot de passe requis.", decode[httpx.ErrorResponse](t, resp).Error)

	unknown := h.do(http.MethodPost, "/api/auth/login", crmhttp.LoginRequest{Username: "nobody", Password: "whatever"})
	wrong := h.do(http.MethodPost, "/api/auth/login", crmhttp.LoginRequest{Username: adminUser, Password: "wrong"})
	require.Equal(t, http.StatusUnauthorized, unknown.StatusCode)
	require.Equal(t, http.StatusUnauthorized, wrong.StatusCode)
	require.Equal(t, readBody(t, unknown), readBody(t, wrong))

	resp = h.do(http.MethodPost, "/api/auth/login", crmhttp.LoginRequest{Username: adminUser, Password: adminPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decode[crmhttp.LoginResponse](t, resp)
	require.Equal(t, "Connexion réussie.", login.Message)
	require.Equal(t, adminUser, login.User.Username)

	resp = h.do(http.MethodGet, "/api/auth/status", nil)
	status := decode[crmhttp.StatusResponse](t, resp)
	require.True(t, status.Authenticated)
	require.NotNil(t, status.User)
	require.Equal(t, login.User.ID, status.User.ID)
	require.Equal(t, adminUser, status.User.Username)

	resp = h.do(http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Déconnexion réussie.", decode[crmhttp.MessageResponse](t, resp).Message)

	resp = h.do(http.MethodGet, "/api/auth/status", nil)
	require.False(t, decode[crmhttp.StatusResponse](t, resp).Authenticated)

	resp = h.do(http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	requireClearedCookie(t, resp)
}

func requireClearedCookie(t *testing.T, resp *http.Response) {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == session.DefaultCookieName {
			require.Empty(t, c.Value)
			require.Negative(t, c.MaxAge)
			return
		}
	}
	require.Fail(t, "session cookie not cleared")
}

func TestLogout_StaleCookie(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	for _, value := range []string{"forged", "eyJhbGciOiJIUzI1NiJ9.e30.c2lnbmF0dXJl"} {
		resp := h.doWith(http.MethodPost, "/api/auth/logout", nil,
			http.Header{"Cookie": {session.DefaultCookieName + "=" + value}})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		requireClearedCookie(t, resp)
	}

	// A validly signed cookie whose session is gone still gets cleared.
	h.login()
	u, err := url.Parse(h.srv.URL)
	require.NoError(t, err)
	var old string
	for _, c := range h.client.Jar.Cookies(u) {
		if c.Name == session.DefaultCookieName {
			old = c.Value
		}
	}
	require.NotEmpty(t, old)

	resp := h.do(http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	requireClearedCookie(t, resp)

	resp = h.doWith(http.MethodPost, "/api/auth/logout", nil,
		http.Header{"Cookie": {session.DefaultCookieName + "=" + old}})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	requireClearedCookie(t, resp)
}

func TestLoginLockout(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	for range 5 {
		resp := h.do(http.MethodPost, "/api/auth/login", crmhttp.LoginRequest{Username: adminUser, Password: "wrong"})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	// Correct credentials do not help once the address is locked out.
	resp := h.do(http.MethodPost, "/api/auth/login", crmhttp.LoginRequest{Username: adminUser, Password: adminPassword})
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("Retry-After"))
	require.Equal(t, "Trop de tentatives de connexion. Veuillez réessayer dans 15 minutes.",
		decode[httpx.ErrorResponse](t, resp).Error)

	admin, err := h.store.Admins().GetAdminByUsername(context.Background(), adminUser)
	require.NoError(t, err)
	require.Nil(t, admin.LastLoginAt)

	metrics := readBody(t, h.do(http.MethodGet, "/metrics", nil))
	require.Contains(t, metrics, "crm_login_failures_total 5")
	require.Contains(t, metrics, "crm_login_lockouts_total 1")
	require.Contains(t, metrics, `crm_http_requests_total{code="429",method="POST",route="POST /api/auth/login"} 1`)
}

func TestLoginLockout_ForwardedFor(t *testing.T) {
	h := newHarness(t, harnessOptions{proxyHops: 1})

	attempt := func(forwarded, password string) int {
		resp := h.doWith(http.MethodPost, "/api/auth/login",
			crmhttp.LoginRequest{Username: adminUser, Password: password},
			http.Header{"X-Forwarded-For": {forwarded}})
		return resp.StatusCode
	}

	// The client invents a new leftmost entry each time; the proxy always
	// appends the address it saw.
	for i := range 5 {
		require.Equal(t, http.StatusUnauthorized, attempt(fmt.Sprintf("203.0.113.%d, 198.51.100.20", i+1), "wrong"))
	}
	require.Equal(t, http.StatusTooManyRequests, attempt("203.0.113.99, 198.51.100.20", "wrong"))
	require.Equal(t, http.StatusTooManyRequests, attempt("198.51.100.20", adminPassword))

	// Another client behind the same proxy is not locked out.
	require.Equal(t, http.StatusOK, attempt("198.51.100.21", adminPassword))
}

func TestLoginLockout_NoTrustedProxy(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	for i := range 5 {
		resp := h.doWith(http.MethodPost, "/api/auth/login",
			crmhttp.LoginRequest{Username: adminUser, Password: "wrong"},
			http.Header{"X-Forwarded-For": {fmt.Sprintf("203.0.113.%d", i+1)}})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	resp := h.doWith(http.MethodPost, "/api/auth/login",
		crmhttp.LoginRequest{Username: adminUser, Password: "wrong"},
		http.Header{"X-Forwarded-For": {"203.0.113.200"}})
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestClientsRequireSession(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/clients"},
		{http.MethodPost, "/api/clients"},
		{http.MethodGet, "/api/clients/1"},
		{http.MethodPut, "/api/clients/1"},
		{http.MethodDelete, "/api/clients/1"},
		{http.MethodGet, "/api/clients/1/complet"},
		{http.MethodGet, "/api/clients/1/echanges"},
		{http.MethodGet, "/api/echanges"},
		{http.MethodPost, "/api/echanges"},
		{http.MethodPut, "/api/echanges/1"},
		{http.MethodDelete, "/api/echanges/1"},
	} {
		resp := h.do(tc.method, tc.path, nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", tc.method, tc.path)
		require.Equal(t, "Accès non autorisé. Connexion requise.", decode[httpx.ErrorResponse](t, resp).Error)
	}
}

func TestClientsAPI(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.login()

	resp := h.do(http.MethodPost, "/api/clients", map[string]any{
		"nom":             "Durand",
		"prenom":          "Alice",
		"email":           "alice@example.com",
		"service_demande": []string{"Site web", "SEO"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[crmhttp.ClientMutationResponse](t, resp)
	require.NotZero(t, created.ID)
	require.Equal(t, "Client créé avec succès.", created.Message)
	require.Equal(t, "prospect", created.Client.Type)
	require.Equal(t, adminUser, created.Client.CreatedBy)
	require.Equal(t, []string{"Site web", "SEO"}, created.Client.Services)
	require.Equal(t, "Site web, SEO", created.Client.ServiceDemande)

	resp = h.do(http.MethodPost, "/api/clients", map[string]any{
		"nom":             "Durand",
		"prenom":          "Alicia",
		"email":           "alice@example.com",
		"service_demande": "Logo",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "Un client avec cet email existe déjà.", decode[httpx.ErrorResponse](t, resp).Error)

	resp = h.do(http.MethodPost, "/api/clients", map[string]any{"nom": "Durand", "email": "x@example.com"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "prenom", decode[httpx.ErrorResponse](t, resp).Field)

	resp = h.do(http.MethodPost, "/api/clients", map[string]any{
		"nom": "Durand", "prenom": "A", "email": "y@example.com", "service_demande": 42,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "service_demande", decode[httpx.ErrorResponse](t, resp).Field)

	resp = h.do(http.MethodPost, "/api/clients", "{not json")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.do(http.MethodGet, "/api/clients", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	require.Len(t, decode[[]crmhttp.ClientResponse](t, resp), 1)

	resp = h.do(http.MethodGet, "/api/clients/abc", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "id", decode[httpx.ErrorResponse](t, resp).Field)

	resp = h.do(http.MethodGet, "/api/clients/9999", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "Client non trouvé.", decode[httpx.ErrorResponse](t, resp).Error)

	path := "/api/clients/" + itoa(created.ID)
	resp = h.do(http.MethodPut, path, map[string]any{
		"nom":             "Durand",
		"prenom":          "Alice",
		"email":           "alice@example.com",
		"service_demande": "Conseil, audit",
		"type":            "client",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[crmhttp.ClientMutationResponse](t, resp)
	require.Equal(t, "Client mis à jour avec succès.", updated.Message)
	require.Equal(t, "client", updated.Client.Type)
	require.Equal(t, []string{"Conseil", "audit"}, updated.Client.Services)

	resp = h.do(http.MethodPut, "/api/clients/9999", map[string]any{
		"nom": "X", "prenom": "Y", "email": "z@example.com", "service_demande": "SEO",
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = h.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "client", decode[crmhttp.ClientResponse](t, resp).Type)
}

func TestExchangesAPI(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.login()

	resp := h.do(http.MethodPost, "/api/clients", map[string]any{
		"nom": "Martin", "prenom": "Paul", "email": "paul@example.com", "service_demande": "Logo",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	clientID := decode[crmhttp.ClientMutationResponse](t, resp).ID
	clientPath := "/api/clients/" + itoa(clientID)

	// Select elements post the id as a string.
	resp = h.do(http.MethodPost, "/api/echanges", map[string]any{
		"client_id": itoa(clientID),
		"type":      "appel",
		"sujet":     "Premier contact",
		"contenu":   "Intéressé par un logo.",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[crmhttp.ExchangeMutationResponse](t, resp)
	require.Equal(t, "Échange créé avec succès.", created.Message)
	require.Equal(t, clientID, created.Echange.ClientID)

	resp = h.do(http.MethodPost, "/api/echanges", map[string]any{
		"client_id": 9999, "type": "appel", "contenu": "x",
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "Client non trouvé.", decode[httpx.ErrorResponse](t, resp).Error)

	resp = h.do(http.MethodPost, "/api/echanges", map[string]any{"client_id": clientID, "type": "appel"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "contenu", decode[httpx.ErrorResponse](t, resp).Field)

	resp = h.do(http.MethodGet, "/api/echanges", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	all := decode[[]crmhttp.ExchangeResponse](t, resp)
	require.Len(t, all, 1)
	require.Equal(t, "Martin", all[0].ClientNom)
	require.Equal(t, "paul@example.com", all[0].ClientEmail)

	exchangePath := "/api/echanges/" + itoa(created.ID)
	resp = h.do(http.MethodPut, exchangePath, map[string]any{"type": "email", "contenu": "Devis envoyé."})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "email", decode[crmhttp.ExchangeMutationResponse](t, resp).Echange.Type)

	resp = h.do(http.MethodPut, "/api/echanges/9999", map[string]any{"type": "email", "contenu": "x"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "Échange non trouvé.", decode[httpx.ErrorResponse](t, resp).Error)

	resp = h.do(http.MethodGet, clientPath+"/complet", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decode[crmhttp.ClientDetailResponse](t, resp)
	require.Equal(t, "Martin", detail.Nom)
	require.Len(t, detail.Echanges, 1)

	resp = h.do(http.MethodGet, clientPath+"/echanges", nil)
	require.Len(t, decode[[]crmhttp.ExchangeResponse](t, resp), 1)

	resp = h.do(http.MethodGet, "/api/clients/9999/echanges", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, decode[[]crmhttp.ExchangeResponse](t, resp))

	// Deleting the client takes its exchanges with it.
	resp = h.do(http.MethodDelete, clientPath, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Client supprimé avec succès.", decode[crmhttp.MessageResponse](t, resp).Message)

	resp = h.do(http.MethodDelete, clientPath, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = h.do(http.MethodGet, "/api/echanges", nil)
	require.Empty(t, decode[[]crmhttp.ExchangeResponse](t, resp))

	resp = h.do(http.MethodDelete, exchangePath, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestContact(t *testing.T) {
	msg := crmhttp.ContactRequest{
		Name:    "Jean",
		Email:   "jean@example.com",
		Service: "SEO",
		Message: "Bonjour",
	}

	t.Run("no provider", func(t *testing.T) {
		h := newHarness(t, harnessOptions{})
		resp := h.do(http.MethodPost, "/api/contact", msg)
		require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		require.Equal(t, "Service d'email non configuré.", decode[httpx.ErrorResponse](t, resp).Error)
	})

	t.Run("sent", func(t *testing.T) {
		mailer := &fakeMailer{}
		h := newHarness(t, harnessOptions{mailer: mailer})

		resp := h.do(http.MethodPost, "/api/contact", msg)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, crmhttp.ContactResponse{Message: "Message envoyé avec succès !", Success: true},
			decode[crmhttp.ContactResponse](t, resp))
		require.Len(t, mailer.sent, 1)
		require.Equal(t, "jean@example.com", mailer.sent[0].Email)

		bad := msg
		bad.Email = "jean.example.com"
		resp = h.do(http.MethodPost, "/api/contact", bad)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "Format d'email invalide.", decode[httpx.ErrorResponse](t, resp).Error)

		metrics := readBody(t, h.do(http.MethodGet, "/metrics", nil))
		require.Contains(t, metrics, `crm_contact_emails_total{result="sent"} 1`)
		require.Contains(t, metrics, `crm_contact_emails_total{result="invalid"} 1`)
	})

	t.Run("provider failure", func(t *testing.T) {
		h := newHarness(t, harnessOptions{mailer: &fakeMailer{err: errors.New("brevo: 401 unauthorized")}})
		resp := h.do(http.MethodPost, "/api/contact", msg)
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		body := decode[httpx.ErrorResponse](t, resp)
		require.Equal(t, "Erreur lors de l'envoi de l'email. Veuillez réessayer plus tard.", body.Error)
		require.Contains(t, body.Details, "brevo: 401 unauthorized")
	})

	t.Run("provider failure in production", func(t *testing.T) {
		h := newHarness(t, harnessOptions{mailer: &fakeMailer{err: errors.New("boom")}, production: true})
		resp := h.do(http.MethodPost, "/api/contact", msg)
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		require.Empty(t, decode[httpx.ErrorResponse](t, resp).Details)
	})
}

func TestPages(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	resp := h.do(http.MethodGet, "/admin-crm.html", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, crmhttp.DefaultLoginPath, resp.Header.Get("Location"))

	resp = h.do(http.MethodGet, crmhttp.DefaultLoginPath, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "<h1>login</h1>", readBody(t, resp))

	resp = h.do(http.MethodGet, "/js/auth-check.js", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "checkAuth();", readBody(t, resp))

	resp = h.do(http.MethodGet, "/private/notes.txt", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Encoded parent segments must not lift /js out of the script directory.
	for _, p := range []string{
		"/js/..%2Fadmin-crm.html",
		"/js/..%2fnotes.txt",
		"/js/%2e%2e%2Finscription-client.html",
		"/js/..%5Cnotes.txt",
		"/js/..%2F..%2Fnotes.txt",
	} {
		resp = h.do(http.MethodGet, p, nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, p)
		body := readBody(t, resp)
		require.NotContains(t, body, "<h1>", p)
		require.NotContains(t, body, "private notes", p)
	}

	resp = h.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, readBody(t, resp), "AB Odyssée")

	h.login()

	resp = h.do(http.MethodGet, crmhttp.DefaultLoginPath, nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/admin-crm.html", resp.Header.Get("Location"))

	resp = h.do(http.MethodGet, "/admin-crm.html", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "<h1>crm</h1>", readBody(t, resp))
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	// Listed as protected but absent from disk.
	resp = h.do(http.MethodGet, "/email-template.html", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = h.do(http.MethodGet, "/private/notes.txt", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "private notes", readBody(t, resp))

	resp = h.do(http.MethodGet, "/private/missing.txt", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Contains(t, readBody(t, resp), "Fichier introuvable.")
}

func TestFileResolver(t *testing.T) {
	private := t.TempDir()
	writeFile(t, private, "notes.txt", "private notes")
	writeFile(t, private, "js/app.js", "app();")

	outside := t.TempDir()
	writeFile(t, outside, "secret.txt", "top secret")
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret.txt"), filepath.Join(private, "escape.txt")))

	files, err := crmhttp.NewFileResolver(private)
	require.NoError(t, err)
	t.Cleanup(func() { _ = files.Close() })

	tests := []struct {
		name string
		path string
		code int
		body string
	}{
		{"plain file", "notes.txt", http.StatusOK, "private notes"},
		{"nested file", "js/app.js", http.StatusOK, "app();"},
		{"leading parent segments stripped", "../../notes.txt", http.StatusOK, "private notes"},
		{"absolute path rebased", "/notes.txt", http.StatusOK, "private notes"},
		{"inner parent segment", "js/../notes.txt", http.StatusOK, "private notes"},
		{"empty", "", http.StatusNotFound, "Fichier introuvable."},
		{"directory", "js", http.StatusNotFound, "Fichier introuvable."},
		{"missing", "nope.txt", http.StatusNotFound, "Fichier introuvable."},
		{"traversal to missing file", "../../etc/passwd", http.StatusNotFound, "Fichier introuvable."},
		{"symlink out of root", "escape.txt", http.StatusBadRequest, "Chemin invalide."},
		{"nul byte", "notes.txt\x00.js", http.StatusBadRequest, "Chemin invalide."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			files.ServeProtected(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.path)
			require.Equal(t, tt.code, rec.Code)
			require.Contains(t, rec.Body.String(), tt.body)
			require.NotContains(t, rec.Body.String(), "top secret")
		})
	}
}

func TestFileResolver_ServeWithin(t *testing.T) {
	private := t.TempDir()
	writeFile(t, private, "admin-crm.html", "<h1>crm</h1>")
	writeFile(t, private, "js/app.js", "app();")
	writeFile(t, private, "js/lib/util.js", "util();")
	require.NoError(t, os.Symlink(filepath.Join(private, "admin-crm.html"), filepath.Join(private, "js", "page.js")))

	files, err := crmhttp.NewFileResolver(private)
	require.NoError(t, err)
	t.Cleanup(func() { _ = files.Close() })

	tests := []struct {
		name string
		path string
		code int
		body string
	}{
		{"script", "app.js", http.StatusOK, "app();"},
		{"nested script", "lib/util.js", http.StatusOK, "util();"},
		{"parent inside scope", "lib/../app.js", http.StatusOK, "app();"},
		{"leaves scope", "../admin-crm.html", http.StatusBadRequest, "Chemin invalide."},
		{"leaves scope twice", "../../admin-crm.html", http.StatusBadRequest, "Chemin invalide."},
		{"backslash parent", `..\admin-crm.html`, http.StatusBadRequest, "Chemin invalide."},
		{"symlink to page", "page.js", http.StatusBadRequest, "Chemin invalide."},
		{"scope directory", "", http.StatusNotFound, "Fichier introuvable."},
		{"missing", "nope.js", http.StatusNotFound, "Fichier introuvable."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			files.ServeWithin(rec, httptest.NewRequest(http.MethodGet, "/", nil), "js", tt.path)
			require.Equal(t, tt.code, rec.Code)
			require.Contains(t, rec.Body.String(), tt.body)
			require.NotContains(t, rec.Body.String(), "<h1>crm</h1>")
		})
	}
}

func TestSystemEndpoints(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	resp := h.do(http.MethodGet, "/livez", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "test", decode[crmhttp.HealthResponse](t, resp).Version)

	resp = h.do(http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ready := decode[crmhttp.HealthResponse](t, resp)
	require.Equal(t, "ok", ready.Status)
	require.Equal(t, "ok", ready.Checks.Database)

	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	require.NotEmpty(t, resp.Header.Get("Content-Security-Policy"))
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp = h.do(http.MethodGet, "/swagger/doc.json", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, readBody(t, resp), "/api/clients/{id}/complet")

	require.NoError(t, h.store.Close())
	resp = h.do(http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSwaggerHiddenInProduction(t *testing.T) {
	h := newHarness(t, harnessOptions{production: true})
	resp := h.do(http.MethodGet, "/swagger/doc.json", nil)
	require.NotEqual(t, http.StatusOK, resp.StatusCode)
}

func TestCORS(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	req, err := http.NewRequest(http.MethodGet, h.srv.URL+"/api/auth/status", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := h.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))

	req.Header.Set("Origin", "https://evil.example")
	resp2, err := h.client.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Empty(t, resp2.Header.Get("Access-Control-Allow-Origin"))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
