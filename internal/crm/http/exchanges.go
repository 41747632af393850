package http

import (
	"net/http"

	"github.com/abodyssee/crm/internal/crm/service"
	"github.com/abodyssee/crm/pkg/httpx"
)

// ExchangesHandler handles the exchange log endpoints.
type ExchangesHandler struct {
	ExchangeService *service.ExchangeService

	errs errorWriter
}

// HandleList handles GET /api/echanges
//
//	@Summary		List exchanges
//	@Description	Returns every exchange, newest first, with the name and email of its client.
//	@Tags			Exchanges
//	@Produce		json
//	@Security		SessionCookie
//	@Success		200	{array}		ExchangeResponse
//	@Failure		401	{object}	httpx.ErrorResponse	"no session"
//	@Router			/api/echanges [get].
func (h *ExchangesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	exchanges, err := h.ExchangeService.ListExchanges(r.Context())
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toJoinedExchangeResponses(exchanges))
}

// HandleCreate handles POST /api/echanges
//
//	@Summary		Create exchange
//	@Tags			Exchanges
//	@Accept			json
//	@Produce		json
//	@Security		SessionCookie
//	@Param			request	body		ExchangeRequest				true	"client_id, type, sujet, contenu"
//	@Success		201		{object}	ExchangeMutationResponse	"id, message, echange"
//	@Failure		400		{object}	httpx.ErrorResponse			"error, field"
//	@Failure		401		{object}	httpx.ErrorResponse			"no session"
//	@Failure		404		{object}	httpx.ErrorResponse			"unknown client"
//	@Router			/api/echanges [post].
func (h *ExchangesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req ExchangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	e, err := h.ExchangeService.CreateExchange(r.Context(), service.ExchangeInput{
		ClientID: int64(req.ClientID),
		Type:     req.Type,
		Sujet:    req.Sujet,
		Contenu:  req.Contenu,
	})
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, ExchangeMutationResponse{
		ID:      e.ID,
		Message: "Échange créé avec succès.",
		Echange: toExchangeResponse(e),
	})
}

// HandleUpdate handles PUT /api/echanges/{id}
//
//	@Summary		Update exchange
//	@Description	Replaces type, sujet and contenu. The owning client cannot change.
//	@Tags			Exchanges
//	@Accept			json
//	@Produce		json
//	@Security		SessionCookie
//	@Param			id		path		int							true	"Exchange id"
//	@Param			request	body		ExchangeRequest				true	"type, sujet, contenu"
//	@Success		200		{object}	ExchangeMutationResponse	"message, echange"
//	@Failure		400		{object}	httpx.ErrorResponse			"error, field"
//	@Failure		401		{object}	httpx.ErrorResponse			"no session"
//	@Failure		404		{object}	httpx.ErrorResponse			"unknown exchange"
//	@Router			/api/echanges/{id} [put].
func (h *ExchangesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req ExchangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	e, err := h.ExchangeService.UpdateExchange(r.Context(), id, service.ExchangeInput{
		Type:    req.Type,
		Sujet:   req.Sujet,
		Contenu: req.Contenu,
	})
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, ExchangeMutationResponse{
		Message: "Échange mis à jour avec succès.",
		Echange: toExchangeResponse(e),
	})
}

// HandleDelete handles DELETE /api/echanges/{id}
//
//	@Summary		Delete exchange
//	@Tags			Exchanges
//	@Produce		json
//	@Security		SessionCookie
//	@Param			id	path		int	true	"Exchange id"
//	@Success		200	{object}	MessageResponse
//	@Failure		400	{object}	httpx.ErrorResponse	"invalid id"
//	@Failure		401	{object}	httpx.ErrorResponse	"no session"
//	@Failure		404	{object}	httpx.ErrorResponse	"unknown exchange"
//	@Router			/api/echanges/{id} [delete].
func (h *ExchangesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.ExchangeService.DeleteExchange(r.Context(), id); err != nil {
		h.errs.write(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Échange supprimé avec succès."})
}
