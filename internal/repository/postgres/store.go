package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Mahbub2001/morgan-backend/internal/repository"
	"github.com/Mahbub2001/morgan-backend/pkg/database"
)

// Store groups the order workflow repositories over one connection or
// transaction.
type Store struct {
	db           database.DBTX
	inventory    *InventoryRepository
	orders       *OrderRepository
	transactions *TransactionRepository
}

// NewStore creates a Store over db, which may be a pool or a pgx.Tx.
func NewStore(db database.DBTX) *Store {
	return &Store{
		db:           db,
		inventory:    NewInventoryRepository(db),
		orders:       NewOrderRepository(db),
		transactions: NewTransactionRepository(db),
	}
}

func (s *Store) Inventory() repository.InventoryRepository      { return s.inventory }
func (s *Store) Orders() repository.OrderRepository             { return s.orders }
func (s *Store) Transactions() repository.TransactionRepository { return s.transactions }

// WithinTx runs fn with repositories bound to a new transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		return fn(ctx, NewStore(tx))
	})
}
