// file: service/order_service.go

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"order-track-api/model"
	"order-track-api/repository"
	"time"
)

// ErrOrderTerminal means the order is delivered or cancelled and can no
// longer change status.
var ErrOrderTerminal = errors.New("order is already in a terminal status")

// OrderService handles order business logic with a cache-aside strategy on
// per-user order listings.
type OrderService struct {
	repo  repository.IOrderRepository
	cache ICacheClient
}

// NewOrderService creates a new OrderService. The cache client may be nil,
// in which case listings always hit the database.
func NewOrderService(repo repository.IOrderRepository, cache ICacheClient) *OrderService {
	return &OrderService{repo: repo, cache: cache}
}

func orderCacheKey(userID int) string {
	return fmt.Sprintf("orders:%d", userID)
}

// CreateOrder places a new order and invalidates the user's cached listing.
func (s *OrderService) CreateOrder(userID int, req *model.CreateOrderRequest) (*model.Order, error) {
	order := &model.Order{
		UserID:   userID,
		Item:     req.Item,
		Quantity: req.Quantity,
	}
	if err := s.repo.CreateOrder(order); err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Del(context.Background(), orderCacheKey(userID))
	}
	return order, nil
}

// ListOrdersForUser lists a user's orders, consulting the cache first.
func (s *OrderService) ListOrdersForUser(userID int) ([]*model.Order, error) {
	cacheKey := orderCacheKey(userID)
	ctx := context.Background()

	// 1. Try to get data from the cache.
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var orders []*model.Order
			if err := json.Unmarshal([]byte(cached), &orders); err == nil {
				return orders, nil
			}
		}
	}

	// 2. Cache miss. Fetch from the database.
	orders, err := s.repo.GetOrdersByUserID(userID)
	if err != nil {
		return nil, err
	}

	// 3. Store the result for future requests.
	if s.cache != nil {
		if data, err := json.Marshal(orders); err == nil {
			s.cache.Set(ctx, cacheKey, data, 10*time.Minute)
		}
	}
	return orders, nil
}

// UpdateOrderStatus moves an order to a new status and invalidates the
// owner's cached listing. For admin use only.
func (s *OrderService) UpdateOrderStatus(orderID int, status model.OrderStatus) (*model.Order, error) {
	order, err := s.repo.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == model.OrderStatusCancelled || order.Status == model.OrderStatusDelivered {
		return nil, ErrOrderTerminal
	}

	if err := s.repo.UpdateOrderStatus(orderID, status); err != nil {
		return nil, err
	}
	order.Status = status

	if s.cache != nil {
		s.cache.Del(context.Background(), orderCacheKey(order.UserID))
	}
	return order, nil
}
