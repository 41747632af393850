package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abodyssee/crm/internal/crm/mail"
	"github.com/abodyssee/crm/pkg/slogx"
)

// Mailer delivers contact notifications.
type Mailer interface {
	SendContact(ctx context.Context, m mail.ContactMessage) (string, error)
}

// ContactInput is a public contact-form submission.
type ContactInput struct {
	Name    string
	Email   string
	Service string
	Message string
}

type ContactService struct {
	// Mailer is nil when no provider is configured.
	Mailer Mailer
	Now    func() time.Time
}

// Send validates the submission and hands it to the mailer, waiting for the
// provider's answer. Failures are reported, not retried.
func (s *ContactService) Send(ctx context.Context, in ContactInput) error {
	l := slogx.FromContext(ctx)

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Service = strings.TrimSpace(in.Service)

	const msg = "Les champs nom, email et message sont obligatoires."
	switch {
	case in.Name == "":
		return invalid("name", msg)
	case in.Email == "":
		return invalid("email", msg)
	case strings.TrimSpace(in.Message) == "":
		return invalid("message", msg)
	case !ValidEmail(in.Email):
		return invalid("email", "Format d'email invalide.")
	}

	if s.Mailer == nil {
		l.Warn("contact message not sent: no mail provider configured",
			"email", in.Email, "service", in.Service)
		return ErrMailerUnavailable
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	id, err := s.Mailer.SendContact(ctx, mail.ContactMessage{
		Name:       in.Name,
		Email:      in.Email,
		Service:    in.Service,
		Message:    in.Message,
		ReceivedAt: now(),
	})
	if err != nil {
		l.Error("contact message delivery failed", "error", err)
		return fmt.Errorf("%w: %w", ErrMailDelivery, err)
	}

	l.Info("contact message sent", "message_id", id, "service", in.Service)
	return nil
}
