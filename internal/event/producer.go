package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Mahbub2001/morgan-backend/internal/domain"
	pkgkafka "github.com/Mahbub2001/morgan-backend/pkg/kafka"
)

// Topics published by the order service.
var (
	TopicOrderCreated       = pkgkafka.Topic("order", "created")
	TopicOrderStatusChanged = pkgkafka.Topic("order", "status_changed")
	TopicOrderCanceled      = pkgkafka.Topic("order", "canceled")
	TopicStockUpdated       = pkgkafka.Topic("inventory", "stock_updated")
)

const (
	AggregateTypeOrder   = "order"
	AggregateTypeVariant = "variant"
	SourceOrderService   = "order-service"
)

// Publisher sends an event to a topic. *pkgkafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// OrderCreatedData is the order.created payload.
type OrderCreatedData struct {
	ID              string             `json:"id"`
	OrderID         string             `json:"orderId"`
	TranID          string             `json:"tran_id"`
	UserID          string             `json:"userId"`
	Email           string             `json:"email"`
	Products        []domain.OrderLine `json:"products"`
	TotalPrice      decimal.Decimal    `json:"totalPrice"`
	TotalMainAmount decimal.Decimal    `json:"totalMainAmount"`
}

// OrderStatusChangedData is the order.status_changed payload.
type OrderStatusChangedData struct {
	ID        string `json:"id"`
	OrderID   string `json:"orderId"`
	OldStatus string `json:"oldStatus"`
	NewStatus string `json:"newStatus"`
}

// OrderCanceledData is the order.canceled payload.
type OrderCanceledData struct {
	ID       string            `json:"id"`
	OrderID  string            `json:"orderId"`
	Restored []domain.LineItem `json:"restored"`
}

// StockUpdatedData is the inventory.stock_updated payload.
type StockUpdatedData struct {
	ProductID string `json:"productId"`
	Color     string `json:"color"`
	Delta     int    `json:"delta"`
	Reason    string `json:"reason"`
	Reference string `json:"reference"`
}

// Producer publishes order and inventory events.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a Producer.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, logger: logger}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	ev, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceOrderService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if err := p.publisher.Publish(ctx, topic, ev); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// PublishOrderCreated publishes a snapshot of a placed order.
func (p *Producer) PublishOrderCreated(ctx context.Context, o *domain.Order) error {
	return p.publish(ctx, TopicOrderCreated, o.ID, AggregateTypeOrder, OrderCreatedData{
		ID:              o.ID,
		OrderID:         o.OrderID,
		TranID:          o.TranID,
		UserID:          o.UserID,
		Email:           o.Email,
		Products:        o.Products,
		TotalPrice:      o.TotalPrice,
		TotalMainAmount: o.TotalMainAmount,
	})
}

// PublishOrderStatusChanged publishes a status transition.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, o *domain.Order, old domain.OrderStatus) error {
	return p.publish(ctx, TopicOrderStatusChanged, o.ID, AggregateTypeOrder, OrderStatusChangedData{
		ID:        o.ID,
		OrderID:   o.OrderID,
		OldStatus: string(old),
		NewStatus: string(o.Status),
	})
}

// PublishOrderCanceled publishes a cancellation and the restored lines.
func (p *Producer) PublishOrderCanceled(ctx context.Context, o *domain.Order) error {
	return p.publish(ctx, TopicOrderCanceled, o.ID, AggregateTypeOrder, OrderCanceledData{
		ID:       o.ID,
		OrderID:  o.OrderID,
		Restored: domain.Items(o.Products),
	})
}

// PublishStockUpdated publishes one ledger movement.
func (p *Producer) PublishStockUpdated(ctx context.Context, m domain.StockMovement) error {
	return p.publish(ctx, TopicStockUpdated, m.ProductID+"/"+m.Color, AggregateTypeVariant, StockUpdatedData{
		ProductID: m.ProductID,
		Color:     m.Color,
		Delta:     m.Delta,
		Reason:    m.Reason,
		Reference: m.Reference,
	})
}
