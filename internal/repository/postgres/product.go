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

// ProductRepository implements repository.ProductRepository.
type ProductRepository struct {
	db database.DBTX
}

// NewProductRepository creates a ProductRepository.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts a product and its variants atomically.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO products (id, name, category, sub_category, person, asking_price, main_price, discount, sales, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			p.ID, p.Name, p.Category, p.SubCategory, p.Person,
			p.AskingPrice, p.MainPrice, p.Discount, p.Sales, p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			if database.IsUniqueViolation(err, "products_pkey") {
				return apperrors.AlreadyExists("product", "id", p.ID)
			}
			return fmt.Errorf("insert product: %w", err)
		}

		for _, v := range p.Variants {
			_, err := tx.Exec(ctx, `
				INSERT INTO product_utilities (product_id, color, number_of_products, updated_at)
				VALUES ($1, $2, $3, $4)`,
				p.ID, v.Color, v.Stock, p.UpdatedAt,
			)
			if err != nil {
				if database.IsUniqueViolation(err, "product_utilities_pkey") {
					return apperrors.InvalidInput(fmt.Sprintf("duplicate color %q", v.Color))
				}
				return fmt.Errorf("insert product utility: %w", err)
			}
		}
		return nil
	})
}

// GetByID loads a product with its variants.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.QueryRow(ctx, `
		SELECT id, name, category, sub_category, person, asking_price, main_price, discount, sales, created_at, updated_at
		FROM products WHERE id = $1`, id,
	).Scan(
		&p.ID, &p.Name, &p.Category, &p.SubCategory, &p.Person,
		&p.AskingPrice, &p.MainPrice, &p.Discount, &p.Sales, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT product_id, color, number_of_products, updated_at
		FROM product_utilities WHERE product_id = $1 ORDER BY color`, id)
	if err != nil {
		return nil, fmt.Errorf("list product utilities: %w", err)
	}
	defer rows.Close()

	p.Variants = make([]domain.Variant, 0)
	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(&v.ProductID, &v.Color, &v.Stock, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product utility: %w", err)
		}
		p.Variants = append(p.Variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product utilities: %w", err)
	}
	return &p, nil
}
