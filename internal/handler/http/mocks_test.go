package http

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/Mahbub2001/morgan-backend/internal/domain"
	"github.com/Mahbub2001/morgan-backend/internal/service"
	"github.com/Mahbub2001/morgan-backend/pkg/middleware"
	"github.com/Mahbub2001/morgan-backend/pkg/pagination"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testTokens accepts two fixed bearer tokens.
func testTokens(token string) (*middleware.Claims, error) {
	switch token {
	case "user-token":
		return &middleware.Claims{UserID: "user-1", Email: "kari@example.com", Role: middleware.RoleUser}, nil
	case "admin-token":
		return &middleware.Claims{UserID: "admin-1", Email: "boss@example.com", Role: middleware.RoleAdmin}, nil
	}
	return nil, errors.New("invalid token")
}

type mockOrderService struct {
	mock.Mock
}

func (m *mockOrderService) PlaceOrder(ctx context.Context, userID string, req service.PlaceOrderRequest) (*domain.Order, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderService) CancelOrder(ctx context.Context, actor service.Actor, id string) (*domain.Order, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderService) BulkUpdateStatus(ctx context.Context, updates []service.StatusUpdate) (*service.BulkResult, error) {
	args := m.Called(ctx, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BulkResult), args.Error(1)
}

func (m *mockOrderService) GetOrder(ctx context.Context, actor service.Actor, id string) (*domain.Order, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderService) ListUserOrders(ctx context.Context, actor service.Actor, userID string, p pagination.Params) ([]domain.Order, int, error) {
	args := m.Called(ctx, actor, userID, p)
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderService) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

type mockReviewService struct {
	mock.Mock
}

func (m *mockReviewService) IsEligible(ctx context.Context, email, productID, color string) (bool, error) {
	args := m.Called(ctx, email, productID, color)
	return args.Bool(0), args.Error(1)
}

func (m *mockReviewService) CreateReview(ctx context.Context, email string, req service.CreateReviewRequest) (*domain.Review, error) {
	args := m.Called(ctx, email, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewService) ListReviews(ctx context.Context, productID string, p pagination.Params) (*service.ReviewPage, error) {
	args := m.Called(ctx, productID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReviewPage), args.Error(1)
}

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) Upsert(ctx context.Context, email string, req service.UpsertUserRequest) (*domain.User, string, error) {
	args := m.Called(ctx, email, req)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*domain.User), args.String(1), args.Error(2)
}

type mockProductService struct {
	mock.Mock
}

func (m *mockProductService) CreateProduct(ctx context.Context, req service.CreateProductRequest) (*domain.Product, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductService) AdjustStock(ctx context.Context, productID string, req service.AdjustStockRequest) (*domain.Variant, error) {
	args := m.Called(ctx, productID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Variant), args.Error(1)
}
