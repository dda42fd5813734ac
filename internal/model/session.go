package model

import "time"

// SessionData contains the data stored with a session token. Only the
// user id is authoritative; the account (and its current role) is
// re-loaded from storage on every request so role changes take effect
// immediately.
type SessionData struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
