package models

import "time"

// RefreshToken is the server-side record of an issued refresh token.
// A user may hold several at once, one per login session.
type RefreshToken struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
