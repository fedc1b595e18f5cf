package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"storefront/internal/model"
	"storefront/internal/payment"
	"storefront/internal/repository/scylla"
	"storefront/internal/util"
)

// PaymentService bridges orders to the PayHere hosted checkout.
type PaymentService struct {
	orders       scylla.OrderRepository
	gateway      *payment.Gateway
	orderService *OrderService
}

func NewPaymentService(orders scylla.OrderRepository, gateway *payment.Gateway, orderService *OrderService) *PaymentService {
	return &PaymentService{
		orders:       orders,
		gateway:      gateway,
		orderService: orderService,
	}
}

// CreateCheckout builds the signed PayHere parameter set for an unpaid
// order owned by the caller.
func (s *PaymentService) CreateCheckout(ctx context.Context, userID, orderID string) (*payment.CheckoutParams, error) {
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
	if order.UserID != userID {
		return nil, ErrForbidden
	}
	if order.PaymentMethod != model.PaymentMethodPayHere {
		return nil, fmt.Errorf("%w: order is not a payhere order", ErrInvalidInput)
	}
	if order.Paid {
		return nil, fmt.Errorf("%w: order already paid", ErrAlreadyExists)
	}

	return s.gateway.BuildCheckoutParams(order), nil
}

// HandleNotification processes a PayHere webhook. The signature and the
// amount are both checked against the stored order before any state
// changes.
func (s *PaymentService) HandleNotification(ctx context.Context, n *payment.Notification) error {
	if err := s.gateway.VerifyNotification(n); err != nil {
		return ErrUnauthorized
	}

	order, err := s.orders.GetOrder(ctx, n.OrderID)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	expected := fmt.Sprintf("%.2f", order.Amount)
	if n.Amount != expected {
		util.Warn("PayHere notification amount mismatch",
			zap.String("order_id", n.OrderID),
			zap.String("notified", n.Amount),
			zap.String("expected", expected))
		return ErrInvalidInput
	}

	switch n.StatusCode {
	case payment.StatusSuccess:
		return s.orderService.MarkPaid(ctx, order.OrderID)
	case payment.StatusCancelled, payment.StatusFailed, payment.StatusChargeback:
		util.Info("PayHere payment not completed",
			zap.String("order_id", n.OrderID),
			zap.Int("status_code", n.StatusCode))
		return nil
	default:
		util.Debug("PayHere payment pending",
			zap.String("order_id", n.OrderID),
			zap.Int("status_code", n.StatusCode))
		return nil
	}
}
