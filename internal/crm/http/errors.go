package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/abodyssee/crm/internal/crm/service"
	"github.com/abodyssee/crm/pkg/httpx"
	"github.com/abodyssee/crm/pkg/slogx"
)

const (
	msgServerError   = "Erreur serveur."
	msgInvalidJSON   = "Corps de requête JSON invalide."
	msgInvalidID     = "Identifiant invalide."
	msgMailDelivery  = "Erreur lors de l'envoi de l'email. Veuillez réessayer plus tard."
	msgMailerMissing = "Service d'email non configuré."
	msgUnauthorized  = "Accès non autorisé. Connexion requise."

	maxBodyBytes = 10 << 20
)

// errorWriter maps service errors to responses. With details set, 500
// replies carry the underlying error text (never in production).
type errorWriter struct {
	details bool
}

func (ew errorWriter) write(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{Error: verr.Message, Field: verr.Field})
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "Identifiants incorrects.")
	case errors.Is(err, service.ErrClientNotFound):
		httpx.WriteError(w, http.StatusNotFound, "Client non trouvé.")
	case errors.Is(err, service.ErrExchangeNotFound):
		httpx.WriteError(w, http.StatusNotFound, "Échange non trouvé.")
	case errors.Is(err, service.ErrClientExists):
		httpx.WriteError(w, http.StatusConflict, "Un client avec cet email existe déjà.")
	case errors.Is(err, service.ErrMailerUnavailable):
		httpx.WriteError(w, http.StatusServiceUnavailable, msgMailerMissing)
	case errors.Is(err, service.ErrMailDelivery):
		ew.internal(w, msgMailDelivery, err)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "error", err)
		ew.internal(w, msgServerError, err)
	}
}

func (ew errorWriter) internal(w http.ResponseWriter, message string, err error) {
	resp := httpx.ErrorResponse{Error: message}
	if ew.details {
		resp.Details = err.Error()
	}
	httpx.WriteJSON(w, http.StatusInternalServerError, resp)
}

// decodeJSON reads the request body into v, answering 400 on malformed JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		slogx.FromContext(r.Context()).Debug("invalid request body", "error", err)
		httpx.WriteError(w, http.StatusBadRequest, msgInvalidJSON)
		return false
	}
	return true
}

// pathID parses the {id} wildcard, answering 400 when it is not a positive
// integer.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{Error: msgInvalidID, Field: "id"})
		return 0, false
	}
	return id, true
}
