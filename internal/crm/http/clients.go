package http

import (
	"net/http"

	"github.com/abodyssee/crm/internal/crm/domain"
	"github.com/abodyssee/crm/internal/crm/service"
	"github.com/abodyssee/crm/internal/crm/session"
	"github.com/abodyssee/crm/pkg/httpx"
)

// ClientsHandler handles the client management endpoints.
type ClientsHandler struct {
	ClientService   *service.ClientService
	ExchangeService *service.ExchangeService

	errs errorWriter
}

// HandleList handles GET /api/clients
//
//	@Summary		List clients
//	@Description	Returns every client, newest first.
//	@Tags			Clients
//	@Produce		json
//	@Security		SessionCookie
//	@Success		200	{array}		ClientResponse
//	@Failure		401	{object}	httpx.ErrorResponse	"no session"
//	@Failure		500	{object}	httpx.ErrorResponse	"server error"
//	@Router			/api/clients [get].
func (h *ClientsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	clients, err := h.ClientService.ListClients(r.Context())
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toClientResponses(clients))
}

// HandleCreate handles POST /api/clients
//
//	@Summary		Create client
//	@Description	Records a client or prospect. service_demande may be an array or a comma-separated string.
//	@Tags			Clients
//	@Accept			json
//	@Produce		json
//	@Security		SessionCookie
//	@Param			request	body		ClientRequest			true	"Client fields"
//	@Success		201		{object}	ClientMutationResponse	"id, message, client"
//	@Failure		400		{object}	httpx.ErrorResponse		"error, field"
//	@Failure		401		{object}	httpx.ErrorResponse		"no session"
//	@Failure		409		{object}	httpx.ErrorResponse		"email already used"
//	@Failure		500		{object}	httpx.ErrorResponse		"server error"
//	@Router			/api/clients [post].
func (h *ClientsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeClient(w, r)
	if !ok {
		return
	}

	createdBy := domain.DefaultCreatedBy
	if s, ok := session.FromContext(r.Context()); ok {
		createdBy = s.User.Username
	}

	c, err := h.ClientService.CreateClient(r.Context(), in, createdBy)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, ClientMutationResponse{
		ID:      c.ID,
		Message: "Client créé avec succès.",
		Client:  toClientResponse(c),
	})
}

// HandleGet handles GET /api/clients/{id}
//
//	@Summary		Get client
//	@Tags			Clients
//	@Produce		json
//	@Security		SessionCookie
//	@Param			id	path		int	true	"Client id"
//	@Success		200	{object}	ClientResponse
//	@Failure		400	{object}	httpx.ErrorResponse	"invalid id"
//	@Failure		401	{object}	httpx.ErrorResponse	"no session"
//	@Failure		404	{object}	httpx.ErrorResponse	"unknown client"
//	@Router			/api/clients/{id} [get].
func (h *ClientsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.ClientService.GetClient(r.Context(), id)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toClientResponse(c))
}

// HandleUpdate handles PUT /api/clients/{id}
//
//	@Summary		Update client
//	@Description	Replaces every writable field of the client.
//	@Tags			Clients
//	@Accept			json
//	@Produce		json
//	@Security		SessionCookie
//	@Param			id		path		int						true	"Client id"
//	@Param			request	body		ClientRequest			true	"Client fields"
//	@Success		200		{object}	ClientMutationResponse	"message, client"
//	@Failure		400		{object}	httpx.ErrorResponse		"error, field"
//	@Failure		401		{object}	httpx.ErrorResponse		"no session"
//	@Failure		404		{object}	httpx.ErrorResponse		"unknown client"
//	@Failure		409		{object}	httpx.ErrorResponse		"email already used"
//	@Router			/api/clients/{id} [put].
func (h *ClientsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, ok := decodeClient(w, r)
	if !ok {
		return
	}

	c, err := h.ClientService.UpdateClient(r.Context(), id, in)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, ClientMutationResponse{
		Message: "Client mis à jour avec succès.",
		Client:  toClientResponse(c),
	})
}

// HandleDelete handles DELETE /api/clients/{id}
//
//	@Summary		Delete client
//	@Description	Deletes the client and all of its exchanges.
//	@Tags			Clients
//	@Produce		json
//	@Security		SessionCookie
//	@Param			id	path		int	true	"Client id"
//	@Success		200	{object}	MessageResponse
//	@Failure		400	{object}	httpx.ErrorResponse	"invalid id"
//	@Failure		401	{object}	httpx.ErrorResponse	"no session"
//	@Failure		404	{object}	httpx.ErrorResponse	"unknown client"
//	@Router			/api/clients/{id} [delete].
func (h *ClientsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.ClientService.DeleteClient(r.Context(), id); err != nil {
		h.errs.write(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Client supprimé avec succès."})
}

// HandleComplete handles GET /api/clients/{id}/complet
//
//	@Summary		Get client with exchanges
//	@Tags			Clients
//	@Produce		json
//	@Security		SessionCookie
//	@Param			id	path		int	true	"Client id"
//	@Success		200	{object}	ClientDetailResponse
//	@Failure		400	{object}	httpx.ErrorResponse	"invalid id"
//	@Failure		401	{object}	httpx.ErrorResponse	"no session"
//	@Failure		404	{object}	httpx.ErrorResponse	"unknown client"
//	@Router			/api/clients/{id}/complet [get].
func (h *ClientsHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, exchanges, err := h.ClientService.GetClientWithExchanges(r.Context(), id)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ClientDetailResponse{
		ClientResponse: toClientResponse(c),
		Echanges:       toExchangeResponses(exchanges),
	})
}

// HandleExchanges handles GET /api/clients/{id}/echanges
//
//	@Summary		List client exchanges
//	@Description	Returns the exchanges of one client, newest first. An unknown client has none.
//	@Tags			Clients
//	@Produce		json
//	@Security		SessionCookie
//	@Param			id	path		int	true	"Client id"
//	@Success		200	{array}		ExchangeResponse
//	@Failure		400	{object}	httpx.ErrorResponse	"invalid id"
//	@Failure		401	{object}	httpx.ErrorResponse	"no session"
//	@Router			/api/clients/{id}/echanges [get].
func (h *ClientsHandler) HandleExchanges(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	exchanges, err := h.ExchangeService.ListClientExchanges(r.Context(), id)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toExchangeResponses(exchanges))
}

func decodeClient(w http.ResponseWriter, r *http.Request) (service.ClientInput, bool) {
	var req ClientRequest
	if !decodeJSON(w, r, &req) {
		return service.ClientInput{}, false
	}

	services, err := domain.DecodeServices(req.ServiceDemande)
	if err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
			Error: "Le champ service demandé doit être une liste ou une chaîne.",
			Field: "service_demande",
		})
		return service.ClientInput{}, false
	}

	return service.ClientInput{
		Nom:                   req.Nom,
		Prenom:                req.Prenom,
		Email:                 req.Email,
		Telephone:             req.Telephone,
		Siret:                 req.Siret,
		TVAIntracommunautaire: req.TVAIntracommunautaire,
		Services:              services,
		Type:                  req.Type,
	}, true
}
