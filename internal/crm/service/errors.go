// Package service holds the CRM use cases. Handlers translate HTTP into
// these calls and map the errors declared here back to status codes.
package service

import (
	"errors"
	"regexp"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrClientNotFound     = errors.New("client_not_found")
	ErrClientExists       = errors.New("client_already_exists")
	ErrExchangeNotFound   = errors.New("exchange_not_found")
	ErrMailerUnavailable  = errors.New("mailer_unavailable")
	ErrMailDelivery       = errors.New("mail_delivery_failed")
)

// ValidationError is a malformed or missing input field. Message is shown
// to the user as is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail is the loose shape check used by forms: something@domain.tld.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
