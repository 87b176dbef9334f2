// file: service/token_codec_test.go

package service

import (
	"order-track-api/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *model.User {
	return &model.User{ID: 1, Role: model.RoleUser, IsActive: true}
}

func TestTokenCodec_IssueAndParse(t *testing.T) {
	codec := NewTokenCodec("test-secret", 15*time.Minute, 7*24*time.Hour)
	now := time.Now()

	t.Run("access token round trip", func(t *testing.T) {
		tokenString, issued, err := codec.Issue(testUser(), model.TokenKindAccess, now)
		require.NoError(t, err)
		require.NotEmpty(t, issued.ID)

		claims, err := codec.Parse(tokenString, model.TokenKindAccess)
		require.NoError(t, err)
		assert.Equal(t, 1, claims.UserID)
		assert.Equal(t, model.RoleUser, claims.Role)
		assert.Equal(t, model.TokenKindAccess, claims.Kind)
		assert.Equal(t, issued.ID, claims.ID)
	})

	t.Run("refresh token round trip", func(t *testing.T) {
		tokenString, issued, err := codec.Issue(testUser(), model.TokenKindRefresh, now)
		require.NoError(t, err)

		claims, err := codec.Parse(tokenString, model.TokenKindRefresh)
		require.NoError(t, err)
		assert.Equal(t, model.TokenKindRefresh, claims.Kind)
		assert.WithinDuration(t, now.Add(7*24*time.Hour), issued.ExpiresAt.Time, time.Second)
	})

	t.Run("kind cross-use is rejected", func(t *testing.T) {
		// A refresh token must never pass where an access token is expected,
		// and vice versa.
		refreshString, _, err := codec.Issue(testUser(), model.TokenKindRefresh, now)
		require.NoError(t, err)
		_, err = codec.Parse(refreshString, model.TokenKindAccess)
		assert.ErrorIs(t, err, ErrTokenMalformed)

		accessString, _, err := codec.Issue(testUser(), model.TokenKindAccess, now)
		require.NoError(t, err)
		_, err = codec.Parse(accessString, model.TokenKindRefresh)
		assert.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("tampered signature is rejected", func(t *testing.T) {
		otherCodec := NewTokenCodec("different-secret", 15*time.Minute, 7*24*time.Hour)
		tokenString, _, err := otherCodec.Issue(testUser(), model.TokenKindAccess, now)
		require.NoError(t, err)

		_, err = codec.Parse(tokenString, model.TokenKindAccess)
		assert.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("garbage input is rejected", func(t *testing.T) {
		_, err := codec.Parse("not-a-token", model.TokenKindAccess)
		assert.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("expired token is reported as expired", func(t *testing.T) {
		issuedAt := time.Now().Add(-time.Hour)
		tokenString, issued, err := codec.Issue(testUser(), model.TokenKindAccess, issuedAt)
		require.NoError(t, err)

		claims, err := codec.Parse(tokenString, model.TokenKindAccess)
		assert.ErrorIs(t, err, ErrTokenExpired)
		// The claims still come back so the caller can read the token ID.
		require.NotNil(t, claims)
		assert.Equal(t, issued.ID, claims.ID)
	})
}
