// Package mail renders the contact-form notification and delivers it
// through Brevo's transactional email API.
package mail

import "time"

const subjectPrefix = "Nouveau message depuis le site AB Odyssée"

// ContactMessage is a visitor's contact-form submission.
type ContactMessage struct {
	Name    string
	Email   string
	Service string
	Message string

	ReceivedAt time.Time
}

// Subject names the requested service when there is one.
func (m ContactMessage) Subject() string {
	if m.Service == "" {
		return subjectPrefix
	}
	return subjectPrefix + " - " + m.Service
}
