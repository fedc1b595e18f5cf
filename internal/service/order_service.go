package service

import (
	"context"
	"errors"

	"github.com/gocql/gocql"

	"storefront/internal/analytics"
	"storefront/internal/events"
	"storefront/internal/model"
	"storefront/internal/repository/scylla"
)

// OrderService implements order lookup and the admin-side lifecycle.
type OrderService struct {
	orders  scylla.OrderRepository
	events  *events.Publisher
	metrics *analytics.Recorder
}

func NewOrderService(orders scylla.OrderRepository, eventPublisher *events.Publisher, metrics *analytics.Recorder) *OrderService {
	return &OrderService{
		orders:  orders,
		events:  eventPublisher,
		metrics: metrics,
	}
}

// GetOrder loads an order. Non-admin callers only see their own.
func (s *OrderService) GetOrder(ctx context.Context, callerID string, isAdmin bool, orderID string) (*model.Order, error) {
	if orderID == "" {
		return nil, ErrInvalidInput
	}

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !isAdmin && order.UserID != callerID {
		return nil, ErrForbidden
	}

	return order, nil
}

// ListUserOrders returns the caller's orders, newest first.
func (s *OrderService) ListUserOrders(ctx context.Context, userID string) ([]*model.OrderSummary, error) {
	return s.orders.ListOrdersByUser(ctx, userID)
}

// ListOrders returns every order, for the admin panel.
func (s *OrderService) ListOrders(ctx context.Context) ([]*model.Order, error) {
	return s.orders.ListOrders(ctx)
}

// UpdateStatus moves an order to a new lifecycle status.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, status string) error {
	if orderID == "" || !model.IsValidOrderStatus(status) {
		return ErrInvalidInput
	}

	if err := s.orders.UpdateStatus(ctx, orderID, status); err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.events.OrderStatusChanged(ctx, orderID, status)
	return nil
}

// MarkPaid flags an order as paid.
func (s *OrderService) MarkPaid(ctx context.Context, orderID string) error {
	if orderID == "" {
		return ErrInvalidInput
	}

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if order.Paid {
		return nil
	}

	if err := s.orders.MarkPaid(ctx, orderID); err != nil {
		return err
	}

	s.events.OrderPaid(ctx, orderID)
	s.metrics.RecordOrderEvent(ctx, events.TypeOrderPaid, orderID,
		order.UserID, order.Amount, order.PaymentMethod)

	return nil
}
