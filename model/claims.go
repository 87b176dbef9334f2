package model

import "github.com/golang-jwt/jwt/v5"

// TokenKind distinguishes the two token types so one can never be presented
// where the other is expected.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// AppClaims is the signed payload of both access and refresh tokens.
// The registered ID claim (jti) is the token identifier used for
// revocation-cache lookups and refresh-token records.
type AppClaims struct {
	UserID int       `json:"user_id"`
	Role   Role      `json:"role"`
	Kind   TokenKind `json:"kind"`
	jwt.RegisteredClaims
}
