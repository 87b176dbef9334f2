package handler

import (
	"context"
	"errors"
	"net/http"
	"order-track-api/common"
	"order-track-api/model"
	"order-track-api/repository"
	"order-track-api/service"
	"strings"
)

type contextKey string

const (
	UserIDKey   contextKey = "userID"
	UserRoleKey contextKey = "userRole"
	ClaimsKey   contextKey = "claims"
)

// AuthMiddleware guards protected routes. It verifies the bearer token
// through the token authority and then re-fetches the live user record: the
// token is proof of identity plus a point-in-time role snapshot, but the
// active flag and role must come from the current record so a deactivated or
// demoted user loses access before the token expires.
type AuthMiddleware struct {
	authority *service.TokenAuthority
	userRepo  repository.IUserRepository
}

func NewAuthMiddleware(authority *service.TokenAuthority, userRepo repository.IUserRepository) *AuthMiddleware {
	return &AuthMiddleware{authority: authority, userRepo: userRepo}
}

func (m *AuthMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			err := common.NewAppError(http.StatusUnauthorized, "Authorization header is required", nil)
			err.Send(w)
			return
		}

		headerParts := strings.Split(authHeader, " ")
		if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
			err := common.NewAppError(http.StatusUnauthorized, "Invalid authorization header format", nil)
			err.Send(w)
			return
		}

		claims, err := m.authority.VerifyAccess(r.Context(), headerParts[1])
		if err != nil {
			switch {
			case errors.Is(err, service.ErrTokenExpired):
				appErr := common.NewAppError(http.StatusUnauthorized, "Token has expired", nil)
				appErr.Send(w)
			case errors.Is(err, service.ErrTokenRevoked), errors.Is(err, service.ErrTokenMalformed):
				appErr := common.NewAppError(http.StatusUnauthorized, "Invalid token", nil)
				appErr.Send(w)
			default:
				appErr := common.NewAppError(http.StatusInternalServerError, "Could not verify token", err)
				appErr.Send(w)
			}
			return
		}

		user, err := m.userRepo.GetUserByID(claims.UserID)
		if err != nil {
			appErr := common.NewAppError(http.StatusUnauthorized, "Unknown user", err)
			appErr.Send(w)
			return
		}
		if !user.IsActive {
			appErr := common.NewAppError(http.StatusForbidden, "Account is inactive", nil)
			appErr.Send(w)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, user.ID)
		ctx = context.WithValue(ctx, UserRoleKey, string(user.Role))
		ctx = context.WithValue(ctx, ClaimsKey, claims)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := r.Context().Value(UserRoleKey).(string)

		if !ok || role != string(model.RoleAdmin) {
			err := common.NewAppError(http.StatusForbidden, "Access denied. Admin privileges required.", nil)
			err.Send(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}
