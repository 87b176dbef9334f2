// file: model/token.go

package model

import "time"

// RefreshToken holds the data for a refresh token record in the database.
// TokenID is the jti claim of the signed refresh token; the token string
// itself is never stored.
type RefreshToken struct {
	ID        int       `json:"id"`
	TokenID   string    `json:"-"`
	UserID    int       `json:"user_id"`
	Revoked   bool      `json:"revoked"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsValid reports whether the record can still be exchanged for a new pair:
// not revoked and not past its expiry.
func (t *RefreshToken) IsValid(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}

// TokenPair is the access/refresh pair returned by login, register and
// refresh. ExpiresIn values are seconds, for clients that schedule proactive
// refreshes.
type TokenPair struct {
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token"`
	AccessTokenExpiresIn  int64  `json:"access_token_expires_in"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in"`
}
