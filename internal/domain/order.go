package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

// Order statuses. Every state other than pending is terminal.
const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusReceived  OrderStatus = "received"
)

// ParseOrderStatus accepts a status in any case. The American spelling
// "canceled" is normalized to cancelled.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return OrderStatusPending, nil
	case "cancelled", "canceled":
		return OrderStatusCancelled, nil
	case "delivered":
		return OrderStatusDelivered, nil
	case "received":
		return OrderStatusReceived, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// IsTerminal reports whether no further transition is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s != OrderStatusPending
}

// TransactionStatus mirrors the order status onto its transaction.
func (s OrderStatus) TransactionStatus() TransactionStatus {
	switch s {
	case OrderStatusCancelled:
		return TransactionStatusCancelled
	case OrderStatusDelivered, OrderStatusReceived:
		return TransactionStatusSuccess
	default:
		return TransactionStatusPending
	}
}

// Buyer is the contact and shipping snapshot captured at checkout.
type Buyer struct {
	Name       string `json:"name" validate:"required,max=200"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"max=40"`
	Address    string `json:"address" validate:"max=500"`
	City       string `json:"city" validate:"max=100"`
	Country    string `json:"country" validate:"max=100"`
	PostalCode string `json:"postalCode" validate:"max=20"`
}

// Order is a placed order. It is 1:1 with its Transaction through TranID.
type Order struct {
	ID      string `json:"id"`
	OrderID string `json:"orderId"`
	TranID  string `json:"tran_id"`
	UserID  string `json:"userId"`
	Buyer
	Products        []OrderLine     `json:"products"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	TotalMainAmount decimal.Decimal `json:"totalMainAmount"`
	Status          OrderStatus     `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// CanTransitionTo reports whether the order may move to target.
func (o *Order) CanTransitionTo(target OrderStatus) error {
	if o.Status == target && target == OrderStatusCancelled {
		return ErrOrderAlreadyCancelled
	}
	if o.Status.IsTerminal() || target == OrderStatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, target)
	}
	return nil
}

// OrderSortFields maps the sort keys the order listing accepts to columns.
var OrderSortFields = map[string]string{
	"created_at":  "created_at",
	"createdAt":   "created_at",
	"order_id":    "order_id",
	"orderId":     "order_id",
	"total_price": "total_price",
	"totalPrice":  "total_price",
	"status":      "status",
}

// OrderFilter narrows the admin order listing.
type OrderFilter struct {
	UserID string
	Status OrderStatus
	// Search matches the order code, buyer email, or buyer name.
	Search string
	// SortBy is a column from OrderSortFields.
	SortBy   string
	SortDesc bool
	Page     int
	PerPage  int
}
