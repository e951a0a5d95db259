package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mahbub2001/morgan-backend/internal/domain"
	"github.com/Mahbub2001/morgan-backend/internal/repository"
	apperrors "github.com/Mahbub2001/morgan-backend/pkg/errors"
	"github.com/Mahbub2001/morgan-backend/pkg/validator"
)

// StockEvents publishes inventory changes.
type StockEvents interface {
	PublishStockUpdated(ctx context.Context, m domain.StockMovement) error
}

// VariantInput is one color and its opening stock.
type VariantInput struct {
	Color string `json:"color" validate:"required,max=50"`
	Stock int    `json:"numberOfProducts" validate:"gte=0"`
}

// CreateProductRequest is a new catalog entry.
type CreateProductRequest struct {
	ID          string          `json:"id" validate:"omitempty,max=64"`
	Name        string          `json:"name" validate:"required,max=200"`
	Category    string          `json:"category" validate:"max=100"`
	SubCategory string          `json:"subCategory" validate:"max=100"`
	Person      string          `json:"person" validate:"max=50"`
	AskingPrice decimal.Decimal `json:"askingPrice"`
	MainPrice   decimal.Decimal `json:"mainPrice"`
	Discount    decimal.Decimal `json:"discount"`
	Utilities   []VariantInput  `json:"utilities" validate:"required,min=1,dive"`
}

// AdjustStockRequest changes one variant's stock by a signed delta.
type AdjustStockRequest struct {
	Color string `json:"color" validate:"required"`
	Delta int    `json:"delta" validate:"ne=0"`
}

// ProductService manages catalog entries and manual stock corrections.
type ProductService struct {
	products repository.ProductRepository
	store    repository.TxManager
	events   StockEvents
	logger   *slog.Logger
	now      func() time.Time
}

// NewProductService creates a ProductService. events may be nil.
func NewProductService(products repository.ProductRepository, store repository.TxManager, events StockEvents, logger *slog.Logger) *ProductService {
	return &ProductService{
		products: products,
		store:    store,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateProduct validates and stores a product with its variants.
func (s *ProductService) CreateProduct(ctx context.Context, req CreateProductRequest) (*domain.Product, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	if err := checkPricing(req); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(req.Utilities))
	now := s.now().UTC()
	p := &domain.Product{
		ID:          req.ID,
		Name:        strings.TrimSpace(req.Name),
		Category:    req.Category,
		SubCategory: req.SubCategory,
		Person:      req.Person,
		Pricing: domain.Pricing{
			AskingPrice: req.AskingPrice,
			MainPrice:   req.MainPrice,
			Discount:    req.Discount,
		},
		Variants:  make([]domain.Variant, 0, len(req.Utilities)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	for _, u := range req.Utilities {
		if _, dup := seen[u.Color]; dup {
			return nil, apperrors.InvalidInput(fmt.Sprintf("duplicate color %q", u.Color))
		}
		seen[u.Color] = struct{}{}
		p.Variants = append(p.Variants, domain.Variant{
			ProductID: p.ID,
			Color:     u.Color,
			Stock:     u.Stock,
			UpdatedAt: now,
		})
	}

	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", p.ID),
		slog.Int("variants", len(p.Variants)),
	)
	return p, nil
}

func checkPricing(req CreateProductRequest) error {
	switch {
	case req.AskingPrice.IsNegative():
		return apperrors.InvalidInput("askingPrice must not be negative")
	case req.MainPrice.IsNegative():
		return apperrors.InvalidInput("mainPrice must not be negative")
	case req.Discount.IsNegative() || req.Discount.GreaterThan(decimal.NewFromInt(100)):
		return apperrors.InvalidInput("discount must be between 0 and 100")
	}
	return nil
}

// GetProduct returns a product with its variants.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.GetByID(ctx, id)
}

// AdjustStock applies a manual correction and records it as an adjust
// movement. Stock never goes below zero.
func (s *ProductService) AdjustStock(ctx context.Context, productID string, req AdjustStockRequest) (*domain.Variant, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	var (
		variant *domain.Variant
		move    domain.StockMovement
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		v, err := tx.Inventory().Adjust(ctx, productID, req.Color, req.Delta)
		if err != nil {
			if errors.Is(err, domain.ErrInsufficientStock) {
				return &apperrors.AppError{
					Code:    "INSUFFICIENT_STOCK",
					Message: fmt.Sprintf("stock of %s in color %s cannot change by %d", productID, req.Color, req.Delta),
					Status:  http.StatusBadRequest,
					Err:     err,
				}
			}
			return err
		}
		move = domain.StockMovement{
			ProductID: productID,
			Color:     req.Color,
			Delta:     req.Delta,
			Reason:    domain.MovementAdjust,
			Reference: "admin",
			CreatedAt: s.now().UTC(),
		}
		if err := tx.Inventory().RecordMovement(ctx, move); err != nil {
			return err
		}
		variant = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "stock adjusted",
		slog.String("product_id", productID),
		slog.String("color", req.Color),
		slog.Int("delta", req.Delta),
		slog.Int("stock", variant.Stock),
	)
	if s.events != nil {
		if err := s.events.PublishStockUpdated(ctx, move); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish stock update",
				slog.String("product_id", productID),
				slog.String("error", err.Error()),
			)
		}
	}
	return variant, nil
}
