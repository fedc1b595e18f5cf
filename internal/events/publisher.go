package events

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"storefront/internal/client"
	"storefront/internal/config"
	"storefront/internal/model"
	"storefront/internal/util"
)

// Event types published to the order topic.
const (
	TypeOrderPlaced    = "order.placed"
	TypeOrderStatus    = "order.status_changed"
	TypeOrderPaid      = "order.paid"
	TypeContactMessage = "contact.message"
)

// Envelope wraps every published event.
type Envelope struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// OrderPlacedPayload describes a newly placed order.
type OrderPlacedPayload struct {
	OrderID       string  `json:"order_id"`
	UserID        string  `json:"user_id"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
	ItemCount     int     `json:"item_count"`
}

// OrderStatusPayload describes an order status transition.
type OrderStatusPayload struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// Publisher emits domain events to Kafka. A nil producer turns every
// publish into a no-op, which keeps the API usable when the broker is
// down at startup.
type Publisher struct {
	producer *client.KafkaProducer
	topic    string
}

func NewPublisher(producer *client.KafkaProducer, cfg *config.Config) *Publisher {
	return &Publisher{
		producer: producer,
		topic:    cfg.Kafka.OrderTopic,
	}
}

func (p *Publisher) OrderPlaced(ctx context.Context, o *model.Order) {
	p.publish(ctx, o.OrderID, Envelope{
		Type:       TypeOrderPlaced,
		OccurredAt: time.Now().UTC(),
		Payload: OrderPlacedPayload{
			OrderID:       o.OrderID,
			UserID:        o.UserID,
			Amount:        o.Amount,
			PaymentMethod: o.PaymentMethod,
			ItemCount:     len(o.Items),
		},
	})
}

func (p *Publisher) OrderStatusChanged(ctx context.Context, orderID, status string) {
	p.publish(ctx, orderID, Envelope{
		Type:       TypeOrderStatus,
		OccurredAt: time.Now().UTC(),
		Payload:    OrderStatusPayload{OrderID: orderID, Status: status},
	})
}

func (p *Publisher) OrderPaid(ctx context.Context, orderID string) {
	p.publish(ctx, orderID, Envelope{
		Type:       TypeOrderPaid,
		OccurredAt: time.Now().UTC(),
		Payload:    OrderStatusPayload{OrderID: orderID, Status: "paid"},
	})
}

func (p *Publisher) ContactMessageReceived(ctx context.Context, messageID string) {
	p.publish(ctx, messageID, Envelope{
		Type:       TypeContactMessage,
		OccurredAt: time.Now().UTC(),
		Payload:    map[string]string{"message_id": messageID},
	})
}

// publish is best-effort: event loss is logged, never surfaced to the
// request that triggered it.
func (p *Publisher) publish(ctx context.Context, key string, envelope Envelope) {
	if p == nil || p.producer == nil {
		return
	}

	value, err := json.Marshal(envelope)
	if err != nil {
		util.Error("Failed to encode event", zap.String("type", envelope.Type), zap.Error(err))
		return
	}

	headers := map[string]string{"event_type": envelope.Type}
	if err := p.producer.ProduceMessage(ctx, p.topic, []byte(key), value, headers); err != nil {
		util.Warn("Failed to publish event",
			zap.String("type", envelope.Type),
			zap.String("key", key),
			zap.Error(err))
	}
}
