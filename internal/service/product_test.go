package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Mahbub2001/morgan-backend/internal/domain"
	apperrors "github.com/Mahbub2001/morgan-backend/pkg/errors"
)

func newProductFixture() (*ProductService, *mockProductRepository, *fakeStore, *mockEvents) {
	products := new(mockProductRepository)
	store := newFakeStore()
	events := new(mockEvents)
	return NewProductService(products, store, events, newTestLogger()), products, store, events
}

func validProductRequest() CreateProductRequest {
	return CreateProductRequest{
		Name:        "Linen shirt",
		Category:    "shirts",
		Person:      "men",
		AskingPrice: decimal.NewFromInt(500),
		MainPrice:   decimal.NewFromInt(300),
		Discount:    decimal.NewFromInt(10),
		Utilities: []VariantInput{
			{Color: "red", Stock: 5},
			{Color: "blue", Stock: 0},
		},
	}
}

func TestCreateProduct(t *testing.T) {
	svc, products, _, _ := newProductFixture()
	products.On("Create", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)

	p, err := svc.CreateProduct(context.Background(), validProductRequest())

	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	require.Len(t, p.Variants, 2)
	assert.Equal(t, p.ID, p.Variants[0].ProductID)
	assert.True(t, decimal.NewFromInt(450).Equal(p.UnitPrice()))
	products.AssertExpectations(t)
}

func TestCreateProduct_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateProductRequest)
	}{
		{"no utilities", func(r *CreateProductRequest) { r.Utilities = nil }},
		{"negative stock", func(r *CreateProductRequest) { r.Utilities[0].Stock = -1 }},
		{"duplicate color", func(r *CreateProductRequest) { r.Utilities[1].Color = "red" }},
		{"discount over 100", func(r *CreateProductRequest) { r.Discount = decimal.NewFromInt(101) }},
		{"negative price", func(r *CreateProductRequest) { r.AskingPrice = decimal.NewFromInt(-1) }},
		{"no name", func(r *CreateProductRequest) { r.Name = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, products, _, _ := newProductFixture()
			req := validProductRequest()
			tt.mutate(&req)

			_, err := svc.CreateProduct(context.Background(), req)

			require.Error(t, err)
			products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestAdjustStock(t *testing.T) {
	svc, _, store, events := newProductFixture()
	store.inv.put("P1", "red", 5, 100)
	events.On("PublishStockUpdated", mock.Anything, mock.MatchedBy(func(m domain.StockMovement) bool {
		return m.Delta == -2 && m.Reason == domain.MovementAdjust
	})).Return(nil).Once()

	v, err := svc.AdjustStock(context.Background(), "P1", AdjustStockRequest{Color: "red", Delta: -2})

	require.NoError(t, err)
	assert.Equal(t, 3, v.Stock)
	require.Len(t, store.inv.moves, 1)
	assert.Equal(t, domain.MovementAdjust, store.inv.moves[0].Reason)
	events.AssertExpectations(t)
}

func TestAdjustStock_BelowZero(t *testing.T) {
	svc, _, store, events := newProductFixture()
	store.inv.put("P1", "red", 1, 100)

	_, err := svc.AdjustStock(context.Background(), "P1", AdjustStockRequest{Color: "red", Delta: -2})

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(err))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 1, store.inv.stock("P1", "red"))
	events.AssertNotCalled(t, "PublishStockUpdated", mock.Anything, mock.Anything)
}

func TestAdjustStock_UnknownVariant(t *testing.T) {
	svc, _, _, _ := newProductFixture()

	_, err := svc.AdjustStock(context.Background(), "P1", AdjustStockRequest{Color: "red", Delta: 1})

	assert.Equal(t, http.StatusNotFound, apperrors.HTTPStatus(err))
}

func TestAdjustStock_ZeroDelta(t *testing.T) {
	svc, _, store, _ := newProductFixture()

	_, err := svc.AdjustStock(context.Background(), "P1", AdjustStockRequest{Color: "red"})

	require.Error(t, err)
	assert.Zero(t, store.commits+store.rollbacks)
}

func TestAdjustStock_PublishFailureIgnored(t *testing.T) {
	svc, _, store, events := newProductFixture()
	store.inv.put("P1", "red", 1, 100)
	events.On("PublishStockUpdated", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	v, err := svc.AdjustStock(context.Background(), "P1", AdjustStockRequest{Color: "red", Delta: 4})

	require.NoError(t, err)
	assert.Equal(t, 5, v.Stock)
}
