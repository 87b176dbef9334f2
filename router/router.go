package router

import (
	"net/http"
	"order-track-api/handler"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

func NewRouter(authHandler *handler.AuthHandler, orderHandler *handler.OrderHandler, authMW *handler.AuthMiddleware) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", handler.HealthCheck)
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Public auth endpoints.
	mux.Handle("POST /auth/register", handler.ErrorHandlingMiddleware(authHandler.Register))
	mux.Handle("POST /auth/login", handler.ErrorHandlingMiddleware(authHandler.Login))
	mux.Handle("POST /auth/refresh", handler.ErrorHandlingMiddleware(authHandler.Refresh))

	// Protected auth endpoints: a valid access token is required to log out
	// or change the password.
	mux.Handle("POST /auth/logout", authMW.Handle(handler.ErrorHandlingMiddleware(authHandler.Logout)))
	mux.Handle("PUT /auth/password", authMW.Handle(handler.ErrorHandlingMiddleware(authHandler.ChangePassword)))

	// Protected order endpoints.
	mux.Handle("POST /orders", authMW.Handle(handler.ErrorHandlingMiddleware(orderHandler.CreateOrder)))
	mux.Handle("GET /orders", authMW.Handle(handler.ErrorHandlingMiddleware(orderHandler.ListOrders)))
	mux.Handle("PUT /orders/status", authMW.Handle(handler.AdminMiddleware(handler.ErrorHandlingMiddleware(orderHandler.UpdateOrderStatus))))

	return mux
}
