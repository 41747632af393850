package session

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/abodyssee/crm/internal/crm/domain"
	"github.com/abodyssee/crm/pkg/httpx"
	"github.com/abodyssee/crm/pkg/slogx"
)

const unauthorizedMessage = "Accès non autorisé. Connexion requise."

type ctxKey struct{}

type state struct {
	session domain.Session
	token   string
	err     error
}

// FromContext returns the session attached by Attach, if the request has one.
func FromContext(ctx context.Context) (domain.Session, bool) {
	st, ok := ctx.Value(ctxKey{}).(*state)
	if !ok || st.token == "" {
		return domain.Session{}, false
	}
	return st.session, true
}

// WithSession returns ctx carrying s as the authenticated session.
func WithSession(ctx context.Context, s domain.Session, token string) context.Context {
	return withState(ctx, &state{session: s, token: token})
}

func withState(ctx context.Context, st *state) context.Context {
	ctx = context.WithValue(ctx, ctxKey{}, st)
	if st.token != "" {
		ctx = httpx.WithUserID(ctx, strconv.FormatInt(st.session.User.ID, 10))
		ctx = slogx.With(ctx, "admin", st.session.User.Username)
	}
	return ctx
}

// Attach loads the session, if any, without enforcing it or touching its
// expiry. Store failures are remembered and surfaced by the Require guards.
func (m *Manager) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, token, err := m.Load(r.Context(), r)
		st := &state{session: s, token: token}
		if err != nil && !errors.Is(err, ErrNoSession) {
			slogx.FromContext(r.Context()).Error("session lookup failed", "error", err)
			st = &state{err: err}
		}
		next.ServeHTTP(w, r.WithContext(withState(r.Context(), st)))
	})
}

// RequireAPI rejects requests without a session with a 401 JSON body.
func (m *Manager) RequireAPI(next http.Handler) http.Handler {
	return m.require(next, func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, http.StatusUnauthorized, unauthorizedMessage)
	})
}

// RequirePage redirects requests without a session to the login page.
func (m *Manager) RequirePage(loginPath string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return m.require(next, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, loginPath, http.StatusFound)
		})
	}
}

func (m *Manager) require(next http.Handler, deny http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st, ok := r.Context().Value(ctxKey{}).(*state)
		if !ok {
			// Attach is not in the chain; load here.
			s, token, err := m.Load(r.Context(), r)
			st = &state{session: s, token: token}
			if err != nil && !errors.Is(err, ErrNoSession) {
				st = &state{err: err}
			}
			r = r.WithContext(withState(r.Context(), st))
		}

		if st.err != nil {
			httpx.WriteError(w, http.StatusInternalServerError, "Erreur serveur.")
			return
		}
		if st.token == "" {
			deny(w, r)
			return
		}

		s, err := m.Refresh(r.Context(), w, st.session, st.token)
		if err != nil {
			slogx.FromContext(r.Context()).Warn("session refresh failed", "error", err)
		}
		st.session = s

		httpx.NoCache(w)
		next.ServeHTTP(w, r)
	})
}
