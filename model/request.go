// file: model/request.go

package model

// RegisterRequest defines the payload for creating a new user.
// It includes validation tags to ensure data integrity at the entry point.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest defines the payload for user authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// RefreshRequest carries the refresh token to be exchanged for a new pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest ends the current session. When AllDevices is true, every
// refresh token of the user is revoked, not just the one presented.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	AllDevices   bool   `json:"all_devices"`
}

// ChangePasswordRequest defines the payload for changing the caller's
// password. A successful change revokes all of the user's sessions.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required,min=8"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// CreateOrderRequest defines the payload for placing a new order.
type CreateOrderRequest struct {
	Item     string `json:"item" validate:"required,min=1,max=200"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

// UpdateOrderStatusRequest defines the payload for moving an order through
// its lifecycle. Using a dedicated struct instead of an inline anonymous
// struct in the handler improves code clarity, reusability, and
// compatibility with tooling like swag.
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required,oneof=pending shipped delivered cancelled"`
}
