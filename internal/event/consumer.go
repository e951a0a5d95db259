package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/Mahbub2001/morgan-backend/pkg/kafka"
)

// TopicPaymentSucceeded carries payment gateway confirmations relayed onto the bus.
var TopicPaymentSucceeded = pkgkafka.Topic("payment", "succeeded")

// PaymentService is what the consumer needs from the service layer.
type PaymentService interface {
	ConfirmPayment(ctx context.Context, tranID string) error
}

// PaymentSucceededData is the expected payment.succeeded payload.
type PaymentSucceededData struct {
	TranID     string `json:"tran_id"`
	GatewayRef string `json:"gatewayRef"`
}

// Consumer handles inbound events for the order service.
type Consumer struct {
	service PaymentService
	logger  *slog.Logger
}

// NewConsumer creates a Consumer.
func NewConsumer(service PaymentService, logger *slog.Logger) *Consumer {
	return &Consumer{service: service, logger: logger}
}

// HandlePaymentSucceeded marks the referenced transaction paid.
func (c *Consumer) HandlePaymentSucceeded(ctx context.Context, event *pkgkafka.Event) error {
	var data PaymentSucceededData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal payment.succeeded data: %w", err)
	}
	if data.TranID == "" {
		data.TranID = event.AggregateID
	}
	if data.TranID == "" {
		return fmt.Errorf("payment.succeeded event %s has no tran_id", event.EventID)
	}

	c.logger.InfoContext(ctx, "processing payment.succeeded event",
		slog.String("tran_id", data.TranID),
		slog.String("gateway_ref", data.GatewayRef),
	)

	if err := c.service.ConfirmPayment(ctx, data.TranID); err != nil {
		return fmt.Errorf("confirm payment for transaction %s: %w", data.TranID, err)
	}
	return nil
}
