package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the payment state of a checkout.
type TransactionStatus string

// Transaction statuses.
const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusSuccess   TransactionStatus = "success"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// Payment methods.
const (
	PaymentMethodCOD    = "cod"
	PaymentMethodOnline = "online"
)

// Transaction records one checkout attempt. Only Status changes after creation.
type Transaction struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Buyer
	PaymentMethod   string            `json:"paymentMethod"`
	CouponCode      string            `json:"couponCode,omitempty"`
	Products        []OrderLine       `json:"products"`
	TotalPrice      decimal.Decimal   `json:"totalPrice"`
	TotalMainAmount decimal.Decimal   `json:"totalMainAmount"`
	Status          TransactionStatus `json:"status"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}
