package scylla

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/bucketing"
	"storefront/internal/model"
	"storefront/internal/util"
)

type orderRepository struct {
	client  *ScyllaClient
	buckets *bucketing.BucketingManager
}

func NewOrderRepository(client *ScyllaClient, buckets *bucketing.BucketingManager, logger *zap.Logger) OrderRepository {
	return &orderRepository{
		client:  client,
		buckets: buckets,
	}
}

func (r *orderRepository) CreateOrder(ctx context.Context, o *model.Order) error {
	if o.OrderID == "" {
		o.OrderID = uuid.New().String()
	}
	o.OrderBucket = r.buckets.OrderBucket(o.OrderID)

	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}
	deliveryJSON, err := json.Marshal(o.DeliveryInfo)
	if err != nil {
		return fmt.Errorf("failed to encode delivery info: %w", err)
	}

	// Dual-write the order row and the per-user listing row
	batch := r.client.Session.NewBatch(gocql.LoggedBatch)

	batch.Query(r.client.Prepared.CreateOrder.Statement(),
		o.OrderBucket, o.OrderID, o.UserID, string(itemsJSON), o.Amount,
		o.DeliveryFee, string(deliveryJSON), o.ServiceType, o.PaymentMethod,
		o.Paid, o.Status, o.CreatedAt, o.UpdatedAt)

	batch.Query(r.client.Prepared.CreateOrderByUser.Statement(),
		o.UserID, o.CreatedAt, o.OrderID, o.Amount, o.Status, o.Paid)

	if err := r.client.ExecuteBatch(batch.WithContext(ctx)); err != nil {
		util.Error("Failed to create order",
			zap.String("order_id", o.OrderID),
			zap.String("user_id", o.UserID),
			zap.Error(err))
		return fmt.Errorf("failed to create order: %w", err)
	}

	util.Info("Order created",
		zap.String("order_id", o.OrderID),
		zap.String("user_id", o.UserID),
		zap.Float64("amount", o.Amount))

	return nil
}

func (r *orderRepository) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	bucket := r.buckets.OrderBucket(orderID)

	o := &model.Order{}
	var itemsJSON, deliveryJSON string

	query := r.client.Prepared.GetOrder.Bind(bucket, orderID).WithContext(ctx)
	err := r.client.ScanWithRetry(query,
		&o.OrderBucket, &o.OrderID, &o.UserID, &itemsJSON, &o.Amount,
		&o.DeliveryFee, &deliveryJSON, &o.ServiceType, &o.PaymentMethod,
		&o.Paid, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, gocql.ErrNotFound
		}
		util.Error("Failed to get order",
			zap.String("order_id", orderID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if err := decodeOrderPayloads(o, itemsJSON, deliveryJSON); err != nil {
		return nil, err
	}

	return o, nil
}

func (r *orderRepository) ListOrdersByUser(ctx context.Context, userID string) ([]*model.OrderSummary, error) {
	iter := r.client.Prepared.GetOrdersByUser.Bind(userID).WithContext(ctx).Iter()

	var summaries []*model.OrderSummary
	for {
		s := &model.OrderSummary{}
		if !iter.Scan(&s.OrderID, &s.CreatedAt, &s.Amount, &s.Status, &s.Paid) {
			break
		}
		summaries = append(summaries, s)
	}
	if err := iter.Close(); err != nil {
		util.Error("Failed to list user orders",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list user orders: %w", err)
	}

	return summaries, nil
}

func (r *orderRepository) ListOrders(ctx context.Context) ([]*model.Order, error) {
	iter := r.client.Session.Query(`
		SELECT order_bucket, order_id, user_id, items, amount, delivery_fee,
			delivery_info, service_type, payment_method, paid, status,
			created_at, updated_at
		FROM orders`).WithContext(ctx).Iter()

	var orders []*model.Order
	for {
		o := &model.Order{}
		var itemsJSON, deliveryJSON string
		if !iter.Scan(&o.OrderBucket, &o.OrderID, &o.UserID, &itemsJSON, &o.Amount,
			&o.DeliveryFee, &deliveryJSON, &o.ServiceType, &o.PaymentMethod,
			&o.Paid, &o.Status, &o.CreatedAt, &o.UpdatedAt) {
			break
		}
		if err := decodeOrderPayloads(o, itemsJSON, deliveryJSON); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := iter.Close(); err != nil {
		util.Error("Failed to list orders", zap.Error(err))
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID, status string) error {
	o, err := r.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := r.client.Prepared.UpdateOrderStatus.
		Bind(status, now, o.OrderBucket, o.OrderID).
		WithContext(ctx).Exec(); err != nil {
		util.Error("Failed to update order status",
			zap.String("order_id", orderID),
			zap.String("status", status),
			zap.Error(err))
		return fmt.Errorf("failed to update order status: %w", err)
	}

	// Keep the listing row in sync
	if err := r.client.Session.Query(`
		UPDATE orders_by_user SET status = ?
		WHERE user_id = ? AND created_at = ? AND order_id = ?`,
		status, o.UserID, o.CreatedAt, o.OrderID).WithContext(ctx).Exec(); err != nil {
		util.Warn("Failed to sync order listing status",
			zap.String("order_id", orderID),
			zap.Error(err))
	}

	util.Info("Order status updated",
		zap.String("order_id", orderID),
		zap.String("status", status))

	return nil
}

func (r *orderRepository) MarkPaid(ctx context.Context, orderID string) error {
	o, err := r.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := r.client.Prepared.MarkOrderPaid.
		Bind(true, now, o.OrderBucket, o.OrderID).
		WithContext(ctx).Exec(); err != nil {
		util.Error("Failed to mark order paid",
			zap.String("order_id", orderID),
			zap.Error(err))
		return fmt.Errorf("failed to mark order paid: %w", err)
	}

	if err := r.client.Session.Query(`
		UPDATE orders_by_user SET paid = ?
		WHERE user_id = ? AND created_at = ? AND order_id = ?`,
		true, o.UserID, o.CreatedAt, o.OrderID).WithContext(ctx).Exec(); err != nil {
		util.Warn("Failed to sync order listing paid flag",
			zap.String("order_id", orderID),
			zap.Error(err))
	}

	util.Info("Order marked paid", zap.String("order_id", orderID))
	return nil
}

func (r *orderRepository) CountOrders(ctx context.Context) (int64, error) {
	var count int64
	query := r.client.Session.Query(`SELECT COUNT(*) FROM orders`).WithContext(ctx)
	if err := query.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

func (r *orderRepository) CountOrdersByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	query := r.client.Session.Query(
		`SELECT COUNT(*) FROM orders WHERE status = ? ALLOW FILTERING`, status).WithContext(ctx)
	if err := query.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count orders by status: %w", err)
	}
	return count, nil
}

func decodeOrderPayloads(o *model.Order, itemsJSON, deliveryJSON string) error {
	if itemsJSON != "" {
		if err := json.Unmarshal([]byte(itemsJSON), &o.Items); err != nil {
			return fmt.Errorf("failed to decode order items: %w", err)
		}
	}
	if deliveryJSON != "" {
		if err := json.Unmarshal([]byte(deliveryJSON), &o.DeliveryInfo); err != nil {
			return fmt.Errorf("failed to decode delivery info: %w", err)
		}
	}
	return nil
}
