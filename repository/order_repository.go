package repository

import (
	"database/sql"
	"order-track-api/logger"
	"order-track-api/model"

	"github.com/sirupsen/logrus"
)

// IOrderRepository defines the contract for order database operations.
type IOrderRepository interface {
	CreateOrder(order *model.Order) error
	GetOrdersByUserID(userID int) ([]*model.Order, error)
	GetOrderByID(orderID int) (*model.Order, error)
	UpdateOrderStatus(orderID int, status model.OrderStatus) error
}

type OrderRepository struct {
	DB *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{DB: db}
}

// CreateOrder adds a new order to the database.
func (r *OrderRepository) CreateOrder(order *model.Order) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":  order.UserID,
		"item":     order.Item,
		"quantity": order.Quantity,
	})
	log.Info("Executing query to create a new order")

	query := `INSERT INTO orders (user_id, item, quantity) VALUES ($1, $2, $3) RETURNING id, status, created_at`
	err := r.DB.QueryRow(query, order.UserID, order.Item, order.Quantity).Scan(&order.ID, &order.Status, &order.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create order query")
		return err
	}
	return nil
}

// GetOrdersByUserID retrieves all orders for a specific user.
func (r *OrderRepository) GetOrdersByUserID(userID int) ([]*model.Order, error) {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to get orders by user ID")

	query := `SELECT id, user_id, item, quantity, status, created_at FROM orders WHERE user_id = $1`
	rows, err := r.DB.Query(query, userID)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for orders by user ID")
		return nil, err
	}
	defer rows.Close()

	var orders []*model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Item, &o.Quantity, &o.Status, &o.CreatedAt); err != nil {
			log.WithError(err).Error("Failed to scan order row")
			return nil, err
		}
		orders = append(orders, &o)
	}
	return orders, nil
}

// GetOrderByID retrieves a single order.
func (r *OrderRepository) GetOrderByID(orderID int) (*model.Order, error) {
	order := &model.Order{}
	query := `SELECT id, user_id, item, quantity, status, created_at FROM orders WHERE id = $1`
	err := r.DB.QueryRow(query, orderID).Scan(&order.ID, &order.UserID, &order.Item, &order.Quantity, &order.Status, &order.CreatedAt)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateOrderStatus moves an order to a new status. For admin use only.
func (r *OrderRepository) UpdateOrderStatus(orderID int, status model.OrderStatus) error {
	log := logger.Log.WithFields(logrus.Fields{
		"order_id": orderID,
		"status":   status,
	})
	log.Info("Executing query to update order status")

	query := `UPDATE orders SET status = $1 WHERE id = $2`
	res, err := r.DB.Exec(query, status, orderID)
	if err != nil {
		log.WithError(err).Error("Failed to execute update order status query")
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
