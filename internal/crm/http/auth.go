package http

import (
	"net/http"

	"github.com/abodyssee/crm/internal/crm/service"
	"github.com/abodyssee/crm/internal/crm/session"
	"github.com/abodyssee/crm/pkg/httpx"
	"github.com/abodyssee/crm/pkg/slogx"
)

// AuthHandler serves the session endpoints under /api/auth.
type AuthHandler struct {
	AuthService *service.AuthService
	Sessions    *session.Manager

	errs errorWriter
}

// HandleStatus handles GET /api/auth/status
//
//	@Summary		Session status
//	@Description	Reports whether the caller holds a valid session. Never refreshes or creates one.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	StatusResponse	"authenticated, user"
//	@Router			/api/auth/status [get].
func (h *AuthHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{}
	if s, ok := session.FromContext(r.Context()); ok {
		u := toUserResponse(s.User)
		resp.Authenticated = true
		resp.User = &u
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleLogin handles POST /api/auth/login
//
//	@Summary		Log in
//	@Description	Checks the credentials and opens a session carried by an HttpOnly cookie.
//	@Description	Five failed attempts from one address within 15 minutes lock the address out.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		LoginRequest			true	"username, password"
//	@Success		200		{object}	LoginResponse			"message, user"
//	@Failure		400		{object}	httpx.ErrorResponse		"malformed username or password"
//	@Failure		401		{object}	httpx.ErrorResponse		"wrong credentials"
//	@Failure		429		{object}	httpx.ErrorResponse		"too many failed attempts"
//	@Failure		500		{object}	httpx.ErrorResponse		"server error"
//	@Router			/api/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.AuthService.Login(ctx, req.Username, req.Password)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	if _, err := h.Sessions.Start(ctx, w, r, user); err != nil {
		slogx.FromContext(ctx).Error("failed to start session", "admin_id", user.ID, "error", err)
		h.errs.internal(w, msgServerError, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, LoginResponse{
		Message: "Connexion réussie.",
		User:    toUserResponse(user),
	})
}

// HandleLogout handles POST /api/auth/logout
//
//	@Summary		Log out
//	@Description	Destroys the session and clears the cookie. The cookie is cleared even when no valid session remains.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	MessageResponse		"message"
//	@Failure		401	{object}	httpx.ErrorResponse	"no session"
//	@Failure		500	{object}	httpx.ErrorResponse	"session could not be destroyed"
//	@Router			/api/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	_, active := session.FromContext(ctx)

	if err := h.Sessions.Destroy(ctx, w, r); err != nil {
		slogx.FromContext(ctx).Error("failed to destroy session", "error", err)
		h.errs.internal(w, "Erreur lors de la déconnexion.", err)
		return
	}
	if !active {
		httpx.WriteError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	slogx.FromContext(ctx).Info("logged out")
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Déconnexion réussie."})
}
