package analytics

import (
	"context"
	"time"

	"go.uber.org/zap"

	"storefront/internal/client"
	"storefront/internal/util"
)

// RevenuePoint is one day of aggregated revenue.
type RevenuePoint struct {
	Day     time.Time `json:"day"`
	Orders  uint64    `json:"orders"`
	Revenue float64   `json:"revenue"`
}

// Recorder writes order activity to ClickHouse and serves the
// aggregations behind the admin dashboard. A nil client disables
// recording and returns empty aggregates.
type Recorder struct {
	clickhouse *client.ClickHouseClient
}

func NewRecorder(clickhouseClient *client.ClickHouseClient) *Recorder {
	return &Recorder{clickhouse: clickhouseClient}
}

// EnsureSchema creates the order_events table.
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	if r.clickhouse == nil {
		return nil
	}
	return r.clickhouse.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS order_events (
			event_time DateTime,
			event_type String,
			order_id String,
			user_id String,
			amount Float64,
			payment_method String
		) ENGINE = MergeTree()
		ORDER BY (event_time, order_id)`)
}

// RecordOrderEvent is best-effort; analytics loss never fails the
// request that produced the event.
func (r *Recorder) RecordOrderEvent(ctx context.Context, eventType, orderID, userID string, amount float64, paymentMethod string) {
	if r == nil || r.clickhouse == nil {
		return
	}

	err := r.clickhouse.Exec(ctx, `
		INSERT INTO order_events (event_time, event_type, order_id, user_id, amount, payment_method)
		VALUES (?, ?, ?, ?, ?, ?)`,
		time.Now().UTC(), eventType, orderID, userID, amount, paymentMethod)
	if err != nil {
		util.Warn("Failed to record analytics event",
			zap.String("event_type", eventType),
			zap.String("order_id", orderID),
			zap.Error(err))
	}
}

// RevenueSeries returns per-day order counts and revenue for the last
// `days` days of placed orders.
func (r *Recorder) RevenueSeries(ctx context.Context, days int) ([]RevenuePoint, error) {
	if r == nil || r.clickhouse == nil {
		return nil, nil
	}

	rows, err := r.clickhouse.QueryRows(ctx, `
		SELECT toStartOfDay(event_time) AS day,
			count() AS orders,
			sum(amount) AS revenue
		FROM order_events
		WHERE event_type = 'order.placed'
			AND event_time >= now() - INTERVAL ? DAY
		GROUP BY day
		ORDER BY day`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series []RevenuePoint
	for rows.Next() {
		var point RevenuePoint
		if err := rows.Scan(&point.Day, &point.Orders, &point.Revenue); err != nil {
			return nil, err
		}
		series = append(series, point)
	}

	return series, rows.Err()
}
