package service

import (
	"context"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/Mahbub2001/morgan-backend/internal/domain"
	"github.com/Mahbub2001/morgan-backend/internal/notify"
	"github.com/Mahbub2001/morgan-backend/internal/repository"
	apperrors "github.com/Mahbub2001/morgan-backend/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// --- In-memory inventory ---

type memInventory struct {
	variants map[string]*domain.Variant
	sales    map[string]int
	moves    []domain.StockMovement
}

func newMemInventory() *memInventory {
	return &memInventory{
		variants: make(map[string]*domain.Variant),
		sales:    make(map[string]int),
	}
}

func (m *memInventory) put(productID, color string, stock int, price int64) {
	m.variants[variantKey(productID, color)] = &domain.Variant{
		ProductID:   productID,
		Color:       color,
		Stock:       stock,
		ProductName: "Product " + productID,
		Pricing: domain.Pricing{
			AskingPrice: decPrice(price),
			MainPrice:   decPrice(price / 2),
		},
	}
	if _, ok := m.sales[productID]; !ok {
		m.sales[productID] = 0
	}
}

func decPrice(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func (m *memInventory) stock(productID, color string) int {
	return m.variants[variantKey(productID, color)].Stock
}

func (m *memInventory) snapshot() *memInventory {
	c := newMemInventory()
	for k, v := range m.variants {
		cp := *v
		c.variants[k] = &cp
	}
	for k, v := range m.sales {
		c.sales[k] = v
	}
	c.moves = append(c.moves, m.moves...)
	return c
}

func (m *memInventory) restore(from *memInventory) {
	m.variants, m.sales, m.moves = from.variants, from.sales, from.moves
}

func (m *memInventory) GetVariant(_ context.Context, productID, color string) (*domain.Variant, error) {
	v, ok := m.variants[variantKey(productID, color)]
	if !ok {
		return nil, apperrors.NotFound("variant", productID+"/"+color)
	}
	cp := *v
	return &cp, nil
}

func (m *memInventory) Decrement(_ context.Context, productID, color string, qty int) error {
	v, ok := m.variants[variantKey(productID, color)]
	if !ok || v.Stock < qty {
		return domain.ErrInsufficientStock
	}
	v.Stock -= qty
	return nil
}

func (m *memInventory) Increment(_ context.Context, productID, color string, qty int) error {
	v, ok := m.variants[variantKey(productID, color)]
	if !ok {
		return apperrors.NotFound("variant", productID+"/"+color)
	}
	v.Stock += qty
	return nil
}

func (m *memInventory) Adjust(_ context.Context, productID, color string, delta int) (*domain.Variant, error) {
	v, ok := m.variants[variantKey(productID, color)]
	if !ok {
		return nil, apperrors.NotFound("variant", productID+"/"+color)
	}
	if v.Stock+delta < 0 {
		return nil, domain.ErrInsufficientStock
	}
	v.Stock += delta
	cp := *v
	return &cp, nil
}

func (m *memInventory) RecordSale(_ context.Context, productID string, qty int) error {
	if _, ok := m.sales[productID]; !ok {
		return apperrors.NotFound("product", productID)
	}
	m.sales[productID] += qty
	return nil
}

func (m *memInventory) RecordMovement(_ context.Context, mv domain.StockMovement) error {
	m.moves = append(m.moves, mv)
	return nil
}

// --- Mock repositories ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, o *domain.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) GetForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockOrderRepository) HasReceivedLine(ctx context.Context, userID, productID, color string) (bool, error) {
	args := m.Called(ctx, userID, productID, color)
	return args.Bool(0), args.Error(1)
}

type mockTransactionRepository struct {
	mock.Mock
}

func (m *mockTransactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *mockTransactionRepository) UpdateStatus(ctx context.Context, id string, status domain.TransactionStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockTransactionRepository) MarkPaid(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Upsert(ctx context.Context, u *domain.User) (*domain.User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, r *domain.Review) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockReviewRepository) ListByProduct(ctx context.Context, productID string, page, perPage int) ([]domain.Review, int, error) {
	args := m.Called(ctx, productID, page, perPage)
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepository) Summary(ctx context.Context, productID string) (domain.ReviewSummary, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(domain.ReviewSummary), args.Error(1)
}

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, p *domain.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

// --- Store ---

// fakeStore runs WithinTx against the in-memory inventory and discards its
// changes when fn fails. Order and transaction writes go to the mocks.
type fakeStore struct {
	inv          *memInventory
	orders       *mockOrderRepository
	transactions *mockTransactionRepository
	commits      int
	rollbacks    int
	inTx         bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		inv:          newMemInventory(),
		orders:       new(mockOrderRepository),
		transactions: new(mockTransactionRepository),
	}
}

func (s *fakeStore) Inventory() repository.InventoryRepository      { return s.inv }
func (s *fakeStore) Orders() repository.OrderRepository             { return s.orders }
func (s *fakeStore) Transactions() repository.TransactionRepository { return s.transactions }

func (s *fakeStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	before := s.inv.snapshot()
	s.inTx = true
	defer func() { s.inTx = false }()
	if err := fn(ctx, s); err != nil {
		s.inv.restore(before)
		s.rollbacks++
		return err
	}
	s.commits++
	return nil
}

// --- Collaborators ---

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) PublishOrderCreated(ctx context.Context, o *domain.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *mockEvents) PublishOrderStatusChanged(ctx context.Context, o *domain.Order, old domain.OrderStatus) error {
	args := m.Called(ctx, o, old)
	return args.Error(0)
}

func (m *mockEvents) PublishOrderCanceled(ctx context.Context, o *domain.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *mockEvents) PublishStockUpdated(ctx context.Context, mv domain.StockMovement) error {
	args := m.Called(ctx, mv)
	return args.Error(0)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Name() string { return "mock" }

func (m *mockSender) Send(ctx context.Context, msg notify.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type stubCodes struct {
	codes  []string
	err    error
	onNext func()
}

func (s *stubCodes) Next(context.Context) (string, error) {
	if s.onNext != nil {
		s.onNext()
	}
	if s.err != nil {
		return "", s.err
	}
	if len(s.codes) == 0 {
		return "", nil
	}
	c := s.codes[0]
	s.codes = s.codes[1:]
	return c, nil
}

type stubTokens struct {
	token string
	err   error
}

func (s stubTokens) Issue(string, string, string) (string, error) {
	return s.token, s.err
}
