package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Mahbub2001/morgan-backend/internal/domain"
	"github.com/Mahbub2001/morgan-backend/pkg/database"
	apperrors "github.com/Mahbub2001/morgan-backend/pkg/errors"
)

// InventoryRepository implements repository.InventoryRepository on the
// product_utilities table.
type InventoryRepository struct {
	db database.DBTX
}

// NewInventoryRepository creates an InventoryRepository.
func NewInventoryRepository(db database.DBTX) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func variantNotFound(productID, color string) error {
	return apperrors.NotFound("variant", productID+"/"+color)
}

// GetVariant loads and locks one variant together with its product pricing.
func (r *InventoryRepository) GetVariant(ctx context.Context, productID, color string) (*domain.Variant, error) {
	query := `
		SELECT u.product_id, u.color, u.number_of_products, u.updated_at,
			p.name, p.asking_price, p.main_price, p.discount
		FROM product_utilities u
		JOIN products p ON p.id = u.product_id
		WHERE u.product_id = $1 AND u.color = $2
		FOR UPDATE OF u`

	var v domain.Variant
	err := r.db.QueryRow(ctx, query, productID, color).Scan(
		&v.ProductID,
		&v.Color,
		&v.Stock,
		&v.UpdatedAt,
		&v.ProductName,
		&v.Pricing.AskingPrice,
		&v.Pricing.MainPrice,
		&v.Pricing.Discount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, variantNotFound(productID, color)
		}
		return nil, fmt.Errorf("get variant %s/%s: %w", productID, color, err)
	}
	return &v, nil
}

// Decrement conditionally lowers stock.
func (r *InventoryRepository) Decrement(ctx context.Context, productID, color string, qty int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE product_utilities
		SET number_of_products = number_of_products - $3, updated_at = NOW()
		WHERE product_id = $1 AND color = $2 AND number_of_products >= $3`,
		productID, color, qty,
	)
	if err != nil {
		return fmt.Errorf("decrement %s/%s: %w", productID, color, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s/%s needs %d", domain.ErrInsufficientStock, productID, color, qty)
	}
	return nil
}

// Increment raises stock.
func (r *InventoryRepository) Increment(ctx context.Context, productID, color string, qty int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE product_utilities
		SET number_of_products = number_of_products + $3, updated_at = NOW()
		WHERE product_id = $1 AND color = $2`,
		productID, color, qty,
	)
	if err != nil {
		return fmt.Errorf("increment %s/%s: %w", productID, color, err)
	}
	if tag.RowsAffected() == 0 {
		return variantNotFound(productID, color)
	}
	return nil
}

// Adjust applies a signed delta without letting stock go negative.
func (r *InventoryRepository) Adjust(ctx context.Context, productID, color string, delta int) (*domain.Variant, error) {
	var v domain.Variant
	err := r.db.QueryRow(ctx, `
		UPDATE product_utilities
		SET number_of_products = number_of_products + $3, updated_at = NOW()
		WHERE product_id = $1 AND color = $2 AND number_of_products + $3 >= 0
		RETURNING product_id, color, number_of_products, updated_at`,
		productID, color, delta,
	).Scan(&v.ProductID, &v.Color, &v.Stock, &v.UpdatedAt)
	if err == nil {
		return &v, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("adjust %s/%s: %w", productID, color, err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM product_utilities WHERE product_id = $1 AND color = $2)`,
		productID, color,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check variant %s/%s: %w", productID, color, err)
	}
	if !exists {
		return nil, variantNotFound(productID, color)
	}
	return nil, fmt.Errorf("%w: %s/%s cannot change by %d", domain.ErrInsufficientStock, productID, color, delta)
}

// RecordSale bumps the product's sales counter.
func (r *InventoryRepository) RecordSale(ctx context.Context, productID string, qty int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE products SET sales = sales + $2, updated_at = NOW() WHERE id = $1`,
		productID, qty,
	)
	if err != nil {
		return fmt.Errorf("record sale for %s: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("product", productID)
	}
	return nil
}

// RecordMovement appends a stock_movements row.
func (r *InventoryRepository) RecordMovement(ctx context.Context, m domain.StockMovement) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO stock_movements (product_id, color, delta, reason, reference)
		VALUES ($1, $2, $3, $4, $5)`,
		m.ProductID, m.Color, m.Delta, m.Reason, m.Reference,
	)
	if err != nil {
		return fmt.Errorf("record stock movement: %w", err)
	}
	return nil
}
