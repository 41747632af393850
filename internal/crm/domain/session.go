package domain

import "time"

// SessionUser is the identity carried by an authenticated session.
type SessionUser struct {
	ID       int64
	Username string
	Email    string
}

// Session is a server-side session record. ID is the fingerprint of the
// token held in the cookie, never the token itself.
type Session struct {
	ID        string
	User      SessionUser
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
