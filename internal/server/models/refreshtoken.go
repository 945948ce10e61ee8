package models

import "time"

// RefreshToken is a server-side session handle.
type RefreshToken struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}

// Expired reports whether the token is past its expiry at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
