package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Mahbub2001/morgan-backend/internal/domain"
	"github.com/Mahbub2001/morgan-backend/internal/repository"
	apperrors "github.com/Mahbub2001/morgan-backend/pkg/errors"
	"github.com/Mahbub2001/morgan-backend/pkg/pagination"
	"github.com/Mahbub2001/morgan-backend/pkg/validator"
)

// CreateReviewRequest is a review submission.
type CreateReviewRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Color     string `json:"color" validate:"required"`
	Rating    int    `json:"rating" validate:"min=1,max=5"`
	Comment   string `json:"comment" validate:"max=2000"`
}

// ReviewPage is one page of a product's reviews with the overall summary.
type ReviewPage struct {
	Reviews []domain.Review
	Total   int
	Summary domain.ReviewSummary
}

// ReviewService decides who may review what and stores reviews.
type ReviewService struct {
	users   repository.UserRepository
	orders  repository.OrderRepository
	reviews repository.ReviewRepository
	logger  *slog.Logger
	now     func() time.Time
}

// NewReviewService creates a ReviewService.
func NewReviewService(users repository.UserRepository, orders repository.OrderRepository, reviews repository.ReviewRepository, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		users:   users,
		orders:  orders,
		reviews: reviews,
		logger:  logger,
		now:     time.Now,
	}
}

// IsEligible reports whether the user with email has a received order
// containing exactly productID in color. An unknown email is not eligible.
func (s *ReviewService) IsEligible(ctx context.Context, email, productID, color string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" || productID == "" || color == "" {
		return false, nil
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("look up reviewer: %w", err)
	}

	ok, err := s.orders.HasReceivedLine(ctx, u.ID, productID, color)
	if err != nil {
		return false, fmt.Errorf("check received orders: %w", err)
	}
	return ok, nil
}

// CreateReview stores a review from an eligible buyer.
func (s *ReviewService) CreateReview(ctx context.Context, email string, req CreateReviewRequest) (*domain.Review, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	ok, err := s.IsEligible(ctx, email, req.ProductID, req.Color)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.Forbidden("only buyers who received this product may review it")
	}

	r := &domain.Review{
		ID:        uuid.NewString(),
		ProductID: req.ProductID,
		Color:     req.Color,
		UserEmail: email,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
		CreatedAt: s.now().UTC(),
	}
	if err := s.reviews.Create(ctx, r); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", r.ID),
		slog.String("product_id", r.ProductID),
		slog.Int("rating", r.Rating),
	)
	return r, nil
}

// ListReviews returns a page of reviews for a product.
func (s *ReviewService) ListReviews(ctx context.Context, productID string, p pagination.Params) (*ReviewPage, error) {
	reviews, total, err := s.reviews.ListByProduct(ctx, productID, p.Page, p.PerPage)
	if err != nil {
		return nil, err
	}
	summary, err := s.reviews.Summary(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &ReviewPage{Reviews: reviews, Total: total, Summary: summary}, nil
}
