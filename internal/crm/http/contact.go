package http

import (
	"errors"
	"net/http"

	"github.com/abodyssee/crm/internal/crm/service"
	"github.com/abodyssee/crm/pkg/httpx"
)

// ContactHandler relays the public contact form.
type ContactHandler struct {
	ContactService *service.ContactService
	Metrics        *Metrics

	errs errorWriter
}

// ServeHTTP handles POST /api/contact
//
//	@Summary		Send contact message
//	@Description	Validates a public contact-form submission and emails it to the team through Brevo.
//	@Description	The provider's answer is awaited; failures are reported, not retried.
//	@Tags			Contact
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ContactRequest		true	"name, email, service, message"
//	@Success		200		{object}	ContactResponse		"message, success"
//	@Failure		400		{object}	httpx.ErrorResponse	"error, field"
//	@Failure		429		{object}	httpx.ErrorResponse	"rate limited"
//	@Failure		500		{object}	httpx.ErrorResponse	"delivery failed"
//	@Failure		503		{object}	httpx.ErrorResponse	"no mail provider configured"
//	@Router			/api/contact [post].
func (h *ContactHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.ContactService.Send(r.Context(), service.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Service: req.Service,
		Message: req.Message,
	})
	h.Metrics.contactResult(err)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, ContactResponse{
		Message: "Message envoyé avec succès !",
		Success: true,
	})
}

func contactResultLabel(err error) string {
	var verr *service.ValidationError
	switch {
	case err == nil:
		return "sent"
	case errors.As(err, &verr):
		return "invalid"
	case errors.Is(err, service.ErrMailerUnavailable):
		return "unconfigured"
	default:
		return "failed"
	}
}
