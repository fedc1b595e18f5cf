package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"storefront/internal/analytics"
	"storefront/internal/model"
	"storefront/internal/repository/scylla"
)

// DashboardStats is the admin dashboard aggregate.
type DashboardStats struct {
	Users           int64                    `json:"users"`
	Products        int64                    `json:"products"`
	Orders          int64                    `json:"orders"`
	PendingOrders   int64                    `json:"pending_orders"`
	DeliveredOrders int64                    `json:"delivered_orders"`
	ContactMessages int64                    `json:"contact_messages"`
	Revenue         []analytics.RevenuePoint `json:"revenue,omitempty"`
}

// DashboardService aggregates counts across the stores for the admin
// panel.
type DashboardService struct {
	users    scylla.UserRepository
	products scylla.ProductRepository
	orders   scylla.OrderRepository
	contact  scylla.ContactRepository
	metrics  *analytics.Recorder
}

func NewDashboardService(
	users scylla.UserRepository,
	products scylla.ProductRepository,
	orders scylla.OrderRepository,
	contact scylla.ContactRepository,
	metrics *analytics.Recorder,
) *DashboardService {
	return &DashboardService{
		users:    users,
		products: products,
		orders:   orders,
		contact:  contact,
		metrics:  metrics,
	}
}

// Stats fans the count queries out concurrently and fails if any store
// is unreachable. The revenue series is best-effort.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		count, err := s.users.CountUsers(gctx)
		stats.Users = count
		return err
	})
	g.Go(func() error {
		count, err := s.products.CountProducts(gctx)
		stats.Products = count
		return err
	})
	g.Go(func() error {
		count, err := s.orders.CountOrders(gctx)
		stats.Orders = count
		return err
	})
	g.Go(func() error {
		count, err := s.orders.CountOrdersByStatus(gctx, model.StatusOrderPlaced)
		stats.PendingOrders = count
		return err
	})
	g.Go(func() error {
		count, err := s.orders.CountOrdersByStatus(gctx, model.StatusDelivered)
		stats.DeliveredOrders = count
		return err
	})
	g.Go(func() error {
		count, err := s.contact.CountMessages(gctx)
		stats.ContactMessages = count
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if series, err := s.metrics.RevenueSeries(ctx, 30); err == nil {
		stats.Revenue = series
	}

	return stats, nil
}
