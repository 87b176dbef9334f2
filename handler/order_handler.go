package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"order-track-api/common"
	"order-track-api/logger"
	"order-track-api/model"
	"order-track-api/service"
	"strconv"

	"github.com/sirupsen/logrus"
)

type OrderHandler struct {
	service *service.OrderService
}

func NewOrderHandler(service *service.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// CreateOrder godoc
// @Summary      Place a new order
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body model.CreateOrderRequest true "order payload"
// @Success      201  {object}  model.Order
// @Router       /orders [post]
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.CreateOrderRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	log := logger.Log.WithFields(logrus.Fields{
		"user_id": userID,
		"item":    req.Item,
	})
	log.Info("Create order request received")

	order, err := h.service.CreateOrder(userID, &req)
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not create order", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(order)
	return nil
}

// ListOrders godoc
// @Summary      List the caller's orders
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  model.Order
// @Router       /orders [get]
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	orders, err := h.service.ListOrdersForUser(userID)
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not retrieve orders", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(orders)
	return nil
}

// UpdateOrderStatus godoc
// @Summary      Update an order's status (admin only)
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id      query  int  true  "order ID"
// @Param        request body model.UpdateOrderStatusRequest true "status payload"
// @Success      200  {object}  model.Order
// @Router       /orders/status [put]
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) *common.AppError {
	orderID, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid order ID", nil)
	}

	var req model.UpdateOrderStatusRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	order, svcErr := h.service.UpdateOrderStatus(orderID, req.Status)
	if svcErr != nil {
		if errors.Is(svcErr, sql.ErrNoRows) {
			return common.NewAppError(http.StatusNotFound, "Order not found", nil)
		}
		if errors.Is(svcErr, service.ErrOrderTerminal) {
			return common.NewAppError(http.StatusConflict, "Order is already in a terminal status", nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not update order status", svcErr)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(order)
	return nil
}
