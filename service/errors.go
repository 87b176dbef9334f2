package service

import "errors"

// Token lifecycle rejections. These are expected branches, returned as typed
// errors so callers can pick the right recovery (refresh vs. forced re-auth)
// without parsing strings. The authority never panics for any of them.
var (
	// ErrTokenMalformed means the signature did not verify, the structure is
	// broken, or the token kind does not match the expected use. Fatal to the
	// request; never retried.
	ErrTokenMalformed = errors.New("token is malformed or has an invalid signature")

	// ErrTokenExpired means the token was valid but its expiry has passed.
	// For access tokens this triggers a refresh, not an alarm.
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenRevoked means a still-unexpired access token was explicitly
	// revoked via logout and is present in the revocation cache.
	ErrTokenRevoked = errors.New("token has been revoked")

	// ErrRefreshRejected means the refresh token's record is missing, revoked,
	// or owned by a different principal. The caller must re-authenticate.
	ErrRefreshRejected = errors.New("refresh token rejected")

	// ErrAccountInactive means the live user record is deactivated. Distinct
	// from token validity: the token may still verify.
	ErrAccountInactive = errors.New("account is inactive")

	// ErrInvalidCredentials means the email/password pair did not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
