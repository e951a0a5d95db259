package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Mahbub2001/morgan-backend/internal/domain"
	"github.com/Mahbub2001/morgan-backend/internal/repository"
	apperrors "github.com/Mahbub2001/morgan-backend/pkg/errors"
)

// Availability is the result of a stock check.
type Availability struct {
	Available bool
	Variant   *domain.Variant
}

// Ledger applies stock changes tied to order transitions. Its methods run
// against a transaction-bound InventoryRepository; callers own the
// transaction.
type Ledger struct {
	logger *slog.Logger
}

// NewLedger creates a Ledger.
func NewLedger(logger *slog.Logger) *Ledger {
	return &Ledger{logger: logger}
}

// CheckAvailability reports whether the variant exists with at least qty
// units. A missing product or color is unavailable, not an error.
func (l *Ledger) CheckAvailability(ctx context.Context, inv repository.InventoryRepository, productID, color string, qty int) (Availability, error) {
	v, err := inv.GetVariant(ctx, productID, color)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return Availability{}, nil
		}
		return Availability{}, err
	}
	return Availability{Available: v.Stock >= qty, Variant: v}, nil
}

// Reserve checks every line, then decrements each one. Lines naming the
// same variant are summed first and variants are visited in lock order. The returned order lines carry the name
// and prices read while the variant rows were locked.
func (l *Ledger) Reserve(ctx context.Context, inv repository.InventoryRepository, items []domain.LineItem, reference string) ([]domain.OrderLine, error) {
	merged := domain.LockOrder(domain.MergeLines(items))
	variants := make(map[string]*domain.Variant, len(merged))

	for _, it := range merged {
		av, err := l.CheckAvailability(ctx, inv, it.ProductID, it.Color, it.Quantity)
		if err != nil {
			return nil, fmt.Errorf("check availability: %w", err)
		}
		if !av.Available {
			return nil, insufficientStock(it)
		}
		variants[variantKey(it.ProductID, it.Color)] = av.Variant
	}

	for _, it := range merged {
		if err := inv.Decrement(ctx, it.ProductID, it.Color, it.Quantity); err != nil {
			if errors.Is(err, domain.ErrInsufficientStock) {
				return nil, insufficientStock(it)
			}
			return nil, err
		}
		if err := inv.RecordMovement(ctx, movement(it, -it.Quantity, domain.MovementReserve, reference)); err != nil {
			return nil, err
		}
	}

	lines := make([]domain.OrderLine, 0, len(items))
	for _, it := range items {
		v := variants[variantKey(it.ProductID, it.Color)]
		lines = append(lines, domain.OrderLine{
			ProductID: it.ProductID,
			Color:     it.Color,
			Quantity:  it.Quantity,
			Name:      v.ProductName,
			UnitPrice: v.Pricing.UnitPrice(),
			MainPrice: v.Pricing.MainPrice,
		})
	}
	return lines, nil
}

// Restock returns every line's quantity to stock. A variant that no longer
// exists is skipped with a warning.
func (l *Ledger) Restock(ctx context.Context, inv repository.InventoryRepository, items []domain.LineItem, reference string) ([]domain.StockMovement, error) {
	moves := make([]domain.StockMovement, 0, len(items))
	for _, it := range domain.LockOrder(items) {
		if err := inv.Increment(ctx, it.ProductID, it.Color, it.Quantity); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				l.logger.WarnContext(ctx, "restock skipped, variant no longer exists",
					slog.String("product_id", it.ProductID),
					slog.String("color", it.Color),
					slog.String("reference", reference),
				)
				continue
			}
			return nil, err
		}
		m := movement(it, it.Quantity, domain.MovementRestock, reference)
		if err := inv.RecordMovement(ctx, m); err != nil {
			return nil, err
		}
		moves = append(moves, m)
	}
	return moves, nil
}

// Fulfill records the sale of every line and removes the units from stock
// a second time. It fails if any variant cannot cover the quantity.
func (l *Ledger) Fulfill(ctx context.Context, inv repository.InventoryRepository, items []domain.LineItem, reference string) ([]domain.StockMovement, error) {
	moves := make([]domain.StockMovement, 0, len(items))
	for _, it := range domain.LockOrder(items) {
		if err := inv.RecordSale(ctx, it.ProductID, it.Quantity); err != nil {
			return nil, err
		}
		if err := inv.Decrement(ctx, it.ProductID, it.Color, it.Quantity); err != nil {
			if errors.Is(err, domain.ErrInsufficientStock) {
				return nil, insufficientStock(it)
			}
			return nil, err
		}
		m := movement(it, -it.Quantity, domain.MovementFulfill, reference)
		if err := inv.RecordMovement(ctx, m); err != nil {
			return nil, err
		}
		moves = append(moves, m)
	}
	return moves, nil
}

func insufficientStock(it domain.LineItem) error {
	return &apperrors.AppError{
		Code:    "INSUFFICIENT_STOCK",
		Message: fmt.Sprintf("product %s in color %s is not available in quantity %d", it.ProductID, it.Color, it.Quantity),
		Status:  http.StatusBadRequest,
		Err:     domain.ErrInsufficientStock,
	}
}

func movement(it domain.LineItem, delta int, reason, reference string) domain.StockMovement {
	return domain.StockMovement{
		ProductID: it.ProductID,
		Color:     it.Color,
		Delta:     delta,
		Reason:    reason,
		Reference: reference,
	}
}

func variantKey(productID, color string) string {
	return productID + "\x00" + color
}
