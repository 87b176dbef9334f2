package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"order-track-api/logger"
	"order-track-api/model"
	"order-track-api/repository"
	"time"

	"github.com/sirupsen/logrus"
)

// TokenAuthority orchestrates the token lifecycle: issuance, verification,
// rotation and revocation. It is the only place that combines the codec, the
// refresh token store and the revocation cache into business operations.
type TokenAuthority struct {
	codec      *TokenCodec
	tokenRepo  repository.ITokenRepository
	revocation RevocationCache

	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// NewTokenAuthority creates a TokenAuthority over the given collaborators.
func NewTokenAuthority(codec *TokenCodec, tokenRepo repository.ITokenRepository, revocation RevocationCache) *TokenAuthority {
	return &TokenAuthority{
		codec:      codec,
		tokenRepo:  tokenRepo,
		revocation: revocation,
		now:        time.Now,
	}
}

// Login issues a fresh access/refresh pair for the user and persists the
// refresh record. Existing pairs for the same user stay valid: each
// device/session holds an independent refresh-token record.
func (a *TokenAuthority) Login(user *model.User) (*model.TokenPair, error) {
	now := a.now()

	accessToken, _, err := a.codec.Issue(user, model.TokenKindAccess, now)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", user.ID).Error("Failed to sign access token")
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, refreshClaims, err := a.codec.Issue(user, model.TokenKindRefresh, now)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", user.ID).Error("Failed to sign refresh token")
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	record := &model.RefreshToken{
		TokenID:   refreshClaims.ID,
		UserID:    user.ID,
		ExpiresAt: refreshClaims.ExpiresAt.Time,
	}
	if err := a.tokenRepo.Create(record); err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":          user.ID,
		"refresh_token_id": record.TokenID,
	}).Info("Issued new token pair")

	return &model.TokenPair{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		AccessTokenExpiresIn:  int64(a.codec.TTL(model.TokenKindAccess).Seconds()),
		RefreshTokenExpiresIn: int64(a.codec.TTL(model.TokenKindRefresh).Seconds()),
	}, nil
}

// VerifyAccess validates an access token string: signature, expiry, kind,
// and absence from the revocation cache. On success it returns the embedded
// claims. The claims are a point-in-time snapshot; callers that need the
// current role or active flag must re-fetch the live user record.
func (a *TokenAuthority) VerifyAccess(ctx context.Context, tokenString string) (*model.AppClaims, error) {
	claims, err := a.codec.Parse(tokenString, model.TokenKindAccess)
	if err != nil {
		return nil, err
	}

	revoked, err := a.revocation.Contains(ctx, claims.ID)
	if err != nil {
		logger.Log.WithError(err).Error("Revocation cache lookup failed")
		return nil, fmt.Errorf("revocation cache lookup failed: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Rotate exchanges a valid refresh token for a new pair, retiring the old
// record. Rotation is single-use: the store's conditional revoke-and-create
// guarantees that of two concurrent rotations with the same token at most one
// succeeds; the loser gets ErrRefreshRejected. A store failure is surfaced as
// an error, never silently treated as a valid token.
func (a *TokenAuthority) Rotate(refreshTokenString string) (*model.TokenPair, error) {
	claims, err := a.codec.Parse(refreshTokenString, model.TokenKindRefresh)
	if err != nil {
		return nil, err
	}

	record, err := a.tokenRepo.GetByTokenID(claims.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRefreshRejected
		}
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	now := a.now()
	if record.UserID != claims.UserID || !record.IsValid(now) {
		return nil, ErrRefreshRejected
	}

	// Claims are the issuance-time snapshot of the principal; handlers
	// re-check the live record separately.
	user := &model.User{ID: claims.UserID, Role: claims.Role}

	accessToken, _, err := a.codec.Issue(user, model.TokenKindAccess, now)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refreshToken, refreshClaims, err := a.codec.Issue(user, model.TokenKindRefresh, now)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	successor := &model.RefreshToken{
		TokenID:   refreshClaims.ID,
		UserID:    user.ID,
		ExpiresAt: refreshClaims.ExpiresAt.Time,
	}
	if err := a.tokenRepo.Rotate(record.TokenID, successor); err != nil {
		if errors.Is(err, repository.ErrTokenAlreadyRevoked) {
			// Lost the race: a concurrent rotation already consumed this token.
			return nil, ErrRefreshRejected
		}
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":      user.ID,
		"old_token_id": record.TokenID,
		"new_token_id": successor.TokenID,
	}).Info("Rotated refresh token")

	return &model.TokenPair{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		AccessTokenExpiresIn:  int64(a.codec.TTL(model.TokenKindAccess).Seconds()),
		RefreshTokenExpiresIn: int64(a.codec.TTL(model.TokenKindRefresh).Seconds()),
	}, nil
}

// Logout revokes the presented refresh token (or every refresh token of the
// user when allDevices is set) and blacklists the access token for the rest
// of its natural lifetime so it is unusable immediately.
func (a *TokenAuthority) Logout(ctx context.Context, accessClaims *model.AppClaims, refreshTokenString string, allDevices bool) error {
	remaining := accessClaims.ExpiresAt.Time.Sub(a.now())
	if err := a.revocation.Add(ctx, accessClaims.ID, remaining); err != nil {
		return fmt.Errorf("failed to blacklist access token: %w", err)
	}

	if allDevices {
		if err := a.tokenRepo.RevokeAllForUser(accessClaims.UserID); err != nil {
			return fmt.Errorf("failed to revoke all refresh tokens: %w", err)
		}
		logger.Log.WithField("user_id", accessClaims.UserID).Info("Logged out from all devices")
		return nil
	}

	// A malformed or expired refresh token at logout is not worth failing the
	// request over; the access token is already blacklisted.
	refreshClaims, err := a.codec.Parse(refreshTokenString, model.TokenKindRefresh)
	if err != nil && !errors.Is(err, ErrTokenExpired) {
		logger.Log.WithField("user_id", accessClaims.UserID).Warn("Logout presented an unparseable refresh token")
		return nil
	}
	if refreshClaims.UserID != accessClaims.UserID {
		logger.Log.WithField("user_id", accessClaims.UserID).Warn("Logout presented a refresh token of another user")
		return nil
	}
	if err := a.tokenRepo.Revoke(refreshClaims.ID); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":          accessClaims.UserID,
		"refresh_token_id": refreshClaims.ID,
	}).Info("Logged out")
	return nil
}

// OnPasswordChange revokes every outstanding refresh token for the user.
// A changed credential must not leave old sessions valid.
func (a *TokenAuthority) OnPasswordChange(userID int) error {
	if err := a.tokenRepo.RevokeAllForUser(userID); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens after password change: %w", err)
	}
	logger.Log.WithField("user_id", userID).Info("Revoked all sessions after password change")
	return nil
}
