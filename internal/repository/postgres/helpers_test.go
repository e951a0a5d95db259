package postgres

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Mahbub2001/morgan-backend/internal/domain"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

// q builds a matcher for SQL containing the fragments in order.
func q(fragments ...string) string {
	quoted := make([]string, len(fragments))
	for i, f := range fragments {
		quoted[i] = regexp.QuoteMeta(f)
	}
	return "(?s)" + strings.Join(quoted, ".*")
}

// anyArgs matches n placeholders of any value.
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

var fixedTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func sampleLines() []domain.OrderLine {
	return []domain.OrderLine{{
		ProductID: "P1",
		Color:     "red",
		Quantity:  2,
		Name:      "Linen Shirt",
		UnitPrice: decimal.RequireFromString("45.00"),
		MainPrice: decimal.RequireFromString("30.00"),
	}}
}

func sampleOrder() *domain.Order {
	return &domain.Order{
		ID:      "7f1d9c2e-1111-4a1b-9c3d-000000000001",
		OrderID: "NYMORGEN-20240301-00001",
		TranID:  "7f1d9c2e-2222-4a1b-9c3d-000000000001",
		UserID:  "7f1d9c2e-3333-4a1b-9c3d-000000000001",
		Buyer: domain.Buyer{
			Name:    "Nadia Rahman",
			Email:   "nadia@example.com",
			Phone:   "+8801700000000",
			Address: "House 12, Road 4",
			City:    "Dhaka",
			Country: "BD",
		},
		Products:        sampleLines(),
		TotalPrice:      decimal.RequireFromString("90.00"),
		TotalMainAmount: decimal.RequireFromString("60.00"),
		Status:          domain.OrderStatusPending,
		CreatedAt:       fixedTime,
		UpdatedAt:       fixedTime,
	}
}

var orderColumnNames = []string{
	"id", "order_id", "tran_id", "user_id", "name", "email", "phone", "address", "city", "country", "postal_code",
	"products", "total_price", "total_main_amount", "status", "created_at", "updated_at",
}

func orderRowValues(t *testing.T, o *domain.Order) []any {
	t.Helper()
	products := []byte(`[{"id":"P1","color":"red","quantity":2,"name":"Linen Shirt","unitPrice":"45","mainPrice":"30"}]`)
	return []any{
		o.ID, o.OrderID, o.TranID, o.UserID, o.Name, o.Email, o.Phone, o.Address, o.City, o.Country, o.PostalCode,
		products, o.TotalPrice, o.TotalMainAmount, string(o.Status), o.CreatedAt, o.UpdatedAt,
	}
}
