package repository

import (
	"context"

	"github.com/Mahbub2001/morgan-backend/internal/domain"
)

// InventoryRepository mutates per-variant stock. Every method touches a
// single product or variant row.
type InventoryRepository interface {
	// GetVariant loads a variant with its product's name and prices and locks
	// the variant row until the surrounding transaction ends.
	GetVariant(ctx context.Context, productID, color string) (*domain.Variant, error)

	// Decrement lowers stock by qty only if at least qty units remain.
	// Otherwise it returns domain.ErrInsufficientStock.
	Decrement(ctx context.Context, productID, color string, qty int) error

	// Increment raises stock by qty.
	Increment(ctx context.Context, productID, color string, qty int) error

	// Adjust applies a signed delta, refusing to go below zero.
	Adjust(ctx context.Context, productID, color string, delta int) (*domain.Variant, error)

	// RecordSale adds qty to the product's sales counter.
	RecordSale(ctx context.Context, productID string, qty int) error

	// RecordMovement appends an audit row.
	RecordMovement(ctx context.Context, m domain.StockMovement) error
}

// ProductRepository persists catalog entries.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// OrderRepository persists orders.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// GetForUpdate loads an order and locks its row.
	GetForUpdate(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
	// HasReceivedLine reports whether the user has a received order
	// containing the exact product and color.
	HasReceivedLine(ctx context.Context, userID, productID, color string) (bool, error)
}

// TransactionRepository persists checkout transactions.
type TransactionRepository interface {
	Create(ctx context.Context, t *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	UpdateStatus(ctx context.Context, id string, status domain.TransactionStatus) error
	// MarkPaid moves a pending transaction to success and reports whether a
	// row changed.
	MarkPaid(ctx context.Context, id string) (bool, error)
}

// UserRepository persists users.
type UserRepository interface {
	// Upsert inserts the user or refreshes name and photo of an existing one.
	// The stored role is never overwritten.
	Upsert(ctx context.Context, u *domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// ReviewRepository persists product reviews.
type ReviewRepository interface {
	Create(ctx context.Context, r *domain.Review) error
	ListByProduct(ctx context.Context, productID string, page, perPage int) ([]domain.Review, int, error)
	Summary(ctx context.Context, productID string) (domain.ReviewSummary, error)
}

// Tx exposes the repositories that take part in order workflows, bound to
// one database transaction.
type Tx interface {
	Inventory() InventoryRepository
	Orders() OrderRepository
	Transactions() TransactionRepository
}

// TxManager runs fn in a database transaction. A non-nil error from fn
// rolls back every write made through tx.
type TxManager interface {
	Tx
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
