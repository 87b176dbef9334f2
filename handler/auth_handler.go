package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"order-track-api/common"
	"order-track-api/logger"
	"order-track-api/model"
	"order-track-api/service"
)

// AuthHandler exposes the token lifecycle over HTTP: register, login,
// refresh, logout and password change.
type AuthHandler struct {
	users     *service.UserService
	authority *service.TokenAuthority
}

func NewAuthHandler(users *service.UserService, authority *service.TokenAuthority) *AuthHandler {
	return &AuthHandler{users: users, authority: authority}
}

// Register godoc
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.RegisterRequest true "registration payload"
// @Success      201  {object}  model.User
// @Router       /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RegisterRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	user, err := h.users.Register(&req)
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not create user", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
	return nil
}

// Login godoc
// @Summary      Authenticate and receive a token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.LoginRequest true "credentials"
// @Success      200  {object}  model.TokenPair
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LoginRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	user, err := h.users.Authenticate(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			return common.NewAppError(http.StatusUnauthorized, "Invalid email or password", nil)
		case errors.Is(err, service.ErrAccountInactive):
			return common.NewAppError(http.StatusForbidden, "Account is inactive", nil)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Could not authenticate", err)
		}
	}

	pair, err := h.authority.Login(user)
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not issue tokens", err)
	}

	logger.Log.WithField("user_id", user.ID).Info("User logged in")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(pair)
	return nil
}

// refreshRejection is the refresh endpoint's error body; Reason lets clients
// distinguish expired from revoked from invalid without string matching.
type refreshRejection struct {
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

// Refresh godoc
// @Summary      Exchange a refresh token for a new token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.RefreshRequest true "refresh token"
// @Success      200  {object}  model.TokenPair
// @Failure      401  {object}  refreshRejection
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RefreshRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	pair, err := h.authority.Rotate(req.RefreshToken)
	if err != nil {
		var reason string
		switch {
		case errors.Is(err, service.ErrTokenExpired):
			reason = "expired"
		case errors.Is(err, service.ErrRefreshRejected):
			reason = "revoked"
		case errors.Is(err, service.ErrTokenMalformed):
			reason = "invalid"
		default:
			return common.NewAppError(http.StatusInternalServerError, "Could not refresh tokens", err)
		}

		logger.Log.WithField("reason", reason).Info("Refresh rejected")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(refreshRejection{Message: "Refresh token rejected", Reason: reason})
		return nil
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(pair)
	return nil
}

// Logout godoc
// @Summary      Revoke the current session (or all sessions)
// @Tags         auth
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body model.LogoutRequest true "logout payload"
// @Success      204  "no content"
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LogoutRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	claims, ok := r.Context().Value(ClaimsKey).(*model.AppClaims)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid token claims in context", nil)
	}

	if err := h.authority.Logout(r.Context(), claims, req.RefreshToken, req.AllDevices); err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not log out", err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// ChangePassword godoc
// @Summary      Change the caller's password and revoke all their sessions
// @Tags         auth
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body model.ChangePasswordRequest true "password change payload"
// @Success      204  "no content"
// @Router       /auth/password [put]
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.ChangePasswordRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	if err := h.users.ChangePassword(userID, req.OldPassword, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return common.NewAppError(http.StatusUnauthorized, "Old password does not match", nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not change password", err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
