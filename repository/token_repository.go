// file: repository/token_repository.go

package repository

import (
	"database/sql"
	"errors"
	"order-track-api/logger"
	"order-track-api/model"

	"github.com/sirupsen/logrus"
)

// ErrTokenAlreadyRevoked is returned by Rotate when the old record was
// already revoked by the time the conditional revoke ran. This is the
// expected outcome for the loser of a concurrent rotation race, not a fault.
var ErrTokenAlreadyRevoked = errors.New("refresh token already revoked")

// ITokenRepository defines the contract for refresh token database operations.
type ITokenRepository interface {
	Create(token *model.RefreshToken) error
	GetByTokenID(tokenID string) (*model.RefreshToken, error)
	Revoke(tokenID string) error
	RevokeAllForUser(userID int) error
	Rotate(oldTokenID string, newToken *model.RefreshToken) error
}

// TokenRepository implements ITokenRepository.
type TokenRepository struct {
	DB *sql.DB
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{DB: db}
}

// Create inserts a new refresh token record into the database.
func (r *TokenRepository) Create(token *model.RefreshToken) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":    token.UserID,
		"expires_at": token.ExpiresAt,
	})
	log.Info("Executing query to create a new refresh token")

	query := `INSERT INTO refresh_tokens (token_id, user_id, expires_at) VALUES ($1, $2, $3) RETURNING id, created_at`
	err := r.DB.QueryRow(query, token.TokenID, token.UserID, token.ExpiresAt).Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create refresh token query")
		return err
	}
	return nil
}

// GetByTokenID retrieves a refresh token record by its token identifier.
func (r *TokenRepository) GetByTokenID(tokenID string) (*model.RefreshToken, error) {
	log := logger.Log.WithField("token_id", tokenID)
	log.Info("Executing query to get refresh token by token ID")

	token := &model.RefreshToken{}
	query := `SELECT id, token_id, user_id, revoked, expires_at, created_at FROM refresh_tokens WHERE token_id = $1`
	err := r.DB.QueryRow(query, tokenID).Scan(&token.ID, &token.TokenID, &token.UserID, &token.Revoked, &token.ExpiresAt, &token.CreatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			log.WithError(err).Error("Failed to execute get refresh token by token ID query")
		}
		return nil, err // Return sql.ErrNoRows if not found
	}
	return token, nil
}

// Revoke marks a single refresh token as revoked. It is idempotent:
// revoking an already-revoked token is not an error.
func (r *TokenRepository) Revoke(tokenID string) error {
	log := logger.Log.WithField("token_id", tokenID)
	log.Info("Executing query to revoke refresh token")

	query := `UPDATE refresh_tokens SET revoked = TRUE WHERE token_id = $1`
	_, err := r.DB.Exec(query, tokenID)
	if err != nil {
		log.WithError(err).Error("Failed to execute revoke refresh token query")
		return err
	}
	return nil
}

// RevokeAllForUser marks every refresh token of a user as revoked.
// This is used for logging out from all sessions and after a password change.
func (r *TokenRepository) RevokeAllForUser(userID int) error {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to revoke all refresh tokens for a user")

	query := `UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = $1`
	_, err := r.DB.Exec(query, userID)
	if err != nil {
		log.WithError(err).Error("Failed to execute revoke all refresh tokens query")
		return err
	}
	return nil
}

// Rotate retires the old record and creates its successor in one
// transaction. The conditional revoke is the linchpin: it only succeeds if
// the old record is still active, so of two concurrent rotations using the
// same token exactly one creates a successor. The loser gets
// ErrTokenAlreadyRevoked and no new record.
func (r *TokenRepository) Rotate(oldTokenID string, newToken *model.RefreshToken) error {
	log := logger.Log.WithFields(logrus.Fields{
		"old_token_id": oldTokenID,
		"user_id":      newToken.UserID,
	})
	log.Info("Executing transaction to rotate refresh token")

	tx, err := r.DB.Begin()
	if err != nil {
		log.WithError(err).Error("Failed to begin rotation transaction")
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE refresh_tokens SET revoked = TRUE WHERE token_id = $1 AND revoked = FALSE`, oldTokenID)
	if err != nil {
		log.WithError(err).Error("Failed to execute conditional revoke query")
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		log.WithError(err).Error("Failed to read affected rows for conditional revoke")
		return err
	}
	if affected == 0 {
		// Someone else already consumed this token. Do not create a successor.
		return ErrTokenAlreadyRevoked
	}

	query := `INSERT INTO refresh_tokens (token_id, user_id, expires_at) VALUES ($1, $2, $3) RETURNING id, created_at`
	if err := tx.QueryRow(query, newToken.TokenID, newToken.UserID, newToken.ExpiresAt).Scan(&newToken.ID, &newToken.CreatedAt); err != nil {
		log.WithError(err).Error("Failed to insert successor refresh token")
		return err
	}

	if err := tx.Commit(); err != nil {
		log.WithError(err).Error("Failed to commit rotation transaction")
		return err
	}
	return nil
}
