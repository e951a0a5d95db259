package postgres

import (
	"context"
	"fmt"
	"math"

	"github.com/Mahbub2001/morgan-backend/internal/domain"
	"github.com/Mahbub2001/morgan-backend/pkg/database"
	"github.com/Mahbub2001/morgan-backend/pkg/pagination"
)

// ReviewRepository implements repository.ReviewRepository.
type ReviewRepository struct {
	db database.DBTX
}

// NewReviewRepository creates a ReviewRepository.
func NewReviewRepository(db database.DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO reviews (id, product_id, color, user_email, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rv.ID, rv.ProductID, rv.Color, rv.UserEmail, rv.Rating, rv.Comment, rv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// ListByProduct returns one page of a product's reviews, newest first.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string, page, perPage int) ([]domain.Review, int, error) {
	if perPage <= 0 {
		perPage = pagination.DefaultPerPage
	}
	perPage = min(perPage, pagination.MaxPerPage)
	offset := pagination.Params{Page: page, PerPage: perPage}.Offset()

	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, color, user_email, rating, comment, created_at, count(*) OVER() AS total_count
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`,
		productID, perPage, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var total int
	reviews := make([]domain.Review, 0)
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.Color, &rv.UserEmail, &rv.Rating, &rv.Comment, &rv.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}
	return reviews, total, nil
}

// Summary returns the review count and the average rating rounded to one decimal.
func (r *ReviewRepository) Summary(ctx context.Context, productID string) (domain.ReviewSummary, error) {
	var (
		s   domain.ReviewSummary
		avg float64
	)
	err := r.db.QueryRow(ctx,
		`SELECT count(*), COALESCE(AVG(rating), 0)::float8 FROM reviews WHERE product_id = $1`,
		productID,
	).Scan(&s.Count, &avg)
	if err != nil {
		return s, fmt.Errorf("summarize reviews: %w", err)
	}
	s.Average = math.Round(avg*10) / 10
	return s, nil
}
