package service

import (
	"errors"
	"order-track-api/model"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenCodec produces and parses signed, time-bounded tokens. It is pure:
// no side effects, no storage. Validity here means signature + structure +
// expiry + kind; revocation is the authority's concern.
type TokenCodec struct {
	secretKey  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenCodec creates a codec over the given signing secret and lifetimes.
func NewTokenCodec(secretKey string, accessTTL, refreshTTL time.Duration) *TokenCodec {
	return &TokenCodec{
		secretKey:  []byte(secretKey),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// TTL returns the configured lifetime for the given token kind.
func (c *TokenCodec) TTL(kind model.TokenKind) time.Duration {
	if kind == model.TokenKindRefresh {
		return c.refreshTTL
	}
	return c.accessTTL
}

// Issue signs a new token of the given kind for the user, valid from now for
// the kind's configured TTL. The returned claims carry the generated token
// identifier (jti) and expiry.
func (c *TokenCodec) Issue(user *model.User, kind model.TokenKind, now time.Time) (string, *model.AppClaims, error) {
	claims := &model.AppClaims{
		UserID: user.ID,
		Role:   user.Role,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.TTL(kind))),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(c.secretKey)
	if err != nil {
		return "", nil, err
	}
	return tokenString, claims, nil
}

// Parse verifies the signature and structure of a token string and checks
// that it is of the expected kind. It returns ErrTokenExpired for a
// well-formed but stale token and ErrTokenMalformed for everything else
// that fails verification, including a kind mismatch.
func (c *TokenCodec) Parse(tokenString string, kind model.TokenKind) (*model.AppClaims, error) {
	claims := &model.AppClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return c.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			// Expiry alone is not malformation; let the claims through so the
			// caller can still read the token identifier if it needs to.
			if claims.Kind != kind {
				return nil, ErrTokenMalformed
			}
			return claims, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}
	if !token.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.Kind != kind {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}
