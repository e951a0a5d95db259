package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Mahbub2001/morgan-backend/internal/domain"
	"github.com/Mahbub2001/morgan-backend/pkg/database"
	apperrors "github.com/Mahbub2001/morgan-backend/pkg/errors"
)

// TransactionRepository implements repository.TransactionRepository.
type TransactionRepository struct {
	db database.DBTX
}

// NewTransactionRepository creates a TransactionRepository.
func NewTransactionRepository(db database.DBTX) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts a transaction.
func (r *TransactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	products, err := json.Marshal(t.Products)
	if err != nil {
		return fmt.Errorf("marshal transaction products: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO transactions (id, user_id, name, email, phone, address, city, country, postal_code,
			payment_method, coupon_code, products, total_price, total_main_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		t.ID, t.UserID, t.Name, t.Email, t.Phone, t.Address, t.City, t.Country, t.PostalCode,
		t.PaymentMethod, t.CouponCode, products, t.TotalPrice, t.TotalMainAmount, string(t.Status),
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID loads a transaction.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	var (
		t        domain.Transaction
		products []byte
		status   string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, name, email, phone, address, city, country, postal_code,
			payment_method, coupon_code, products, total_price, total_main_amount, status, created_at, updated_at
		FROM transactions WHERE id = $1`, id,
	).Scan(
		&t.ID, &t.UserID, &t.Name, &t.Email, &t.Phone, &t.Address, &t.City, &t.Country, &t.PostalCode,
		&t.PaymentMethod, &t.CouponCode, &products, &t.TotalPrice, &t.TotalMainAmount, &status,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("transaction", id)
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	t.Status = domain.TransactionStatus(status)
	if err := json.Unmarshal(products, &t.Products); err != nil {
		return nil, fmt.Errorf("unmarshal transaction products: %w", err)
	}
	return &t, nil
}

// UpdateStatus sets the transaction status.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id string, status domain.TransactionStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE transactions SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("transaction", id)
	}
	return nil
}

// MarkPaid moves a pending transaction to success.
func (r *TransactionRepository) MarkPaid(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE transactions SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3`,
		id, string(domain.TransactionStatusSuccess), string(domain.TransactionStatusPending),
	)
	if err != nil {
		return false, fmt.Errorf("mark transaction paid: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
