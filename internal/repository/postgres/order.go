package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Mahbub2001/morgan-backend/internal/domain"
	"github.com/Mahbub2001/morgan-backend/pkg/database"
	apperrors "github.com/Mahbub2001/morgan-backend/pkg/errors"
	"github.com/Mahbub2001/morgan-backend/pkg/pagination"
)

const orderColumns = `id, order_id, tran_id, user_id, name, email, phone, address, city, country, postal_code,
	products, total_price, total_main_amount, status, created_at, updated_at`

// OrderRepository implements repository.OrderRepository.
type OrderRepository struct {
	db database.DBTX
}

// NewOrderRepository creates an OrderRepository.
func NewOrderRepository(db database.DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts an order. The order code and tran_id must be unique.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	products, err := json.Marshal(o.Products)
	if err != nil {
		return fmt.Errorf("marshal order products: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		o.ID, o.OrderID, o.TranID, o.UserID,
		o.Name, o.Email, o.Phone, o.Address, o.City, o.Country, o.PostalCode,
		products, o.TotalPrice, o.TotalMainAmount, string(o.Status), o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		switch {
		case database.IsUniqueViolation(err, "orders_order_id_key"):
			return apperrors.AlreadyExists("order", "orderId", o.OrderID)
		case database.IsUniqueViolation(err, "orders_tran_id_key"):
			return apperrors.AlreadyExists("order", "tran_id", o.TranID)
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetByID loads an order by its id.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// GetForUpdate loads an order and locks it for the rest of the transaction.
func (r *OrderRepository) GetForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *OrderRepository) get(ctx context.Context, query, id string) (*domain.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// List returns one page of orders matching filter and the total match count.
func (r *OrderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int, error) {
	var (
		conditions []string
		args       []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.UserID != "" {
		conditions = append(conditions, "user_id = "+arg(filter.UserID))
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = "+arg(string(filter.Status)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		p := arg("%" + escapeLike(s) + "%")
		conditions = append(conditions, fmt.Sprintf("(order_id ILIKE %[1]s OR email ILIKE %[1]s OR name ILIKE %[1]s)", p))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	sortCol, ok := domain.OrderSortFields[filter.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	dir := "ASC"
	if filter.SortDesc {
		dir = "DESC"
	}

	page := pagination.Params{Page: filter.Page, PerPage: filter.PerPage}
	if page.PerPage <= 0 {
		page.PerPage = pagination.DefaultPerPage
	}
	page.PerPage = min(page.PerPage, pagination.MaxPerPage)
	limit, offset := page.PerPage, page.Offset()

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM orders
		%s
		ORDER BY %s %s, id
		LIMIT %s OFFSET %s`,
		orderColumns, where, sortCol, dir, arg(limit), arg(offset),
	)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var total int
	orders := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}
	return orders, total, nil
}

// UpdateStatus sets the order status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}
	return nil
}

// HasReceivedLine uses JSONB containment on the stored lines.
func (r *OrderRepository) HasReceivedLine(ctx context.Context, userID, productID, color string) (bool, error) {
	needle, err := json.Marshal([]map[string]string{{"id": productID, "color": color}})
	if err != nil {
		return false, fmt.Errorf("marshal containment filter: %w", err)
	}

	var ok bool
	err = r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM orders
			WHERE user_id = $1 AND status = $2 AND products @> $3::jsonb
		)`,
		userID, string(domain.OrderStatusReceived), needle,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check received order: %w", err)
	}
	return ok, nil
}

func scanOrder(row pgx.Row, extra ...any) (*domain.Order, error) {
	var (
		o        domain.Order
		products []byte
		status   string
	)
	dest := []any{
		&o.ID, &o.OrderID, &o.TranID, &o.UserID,
		&o.Name, &o.Email, &o.Phone, &o.Address, &o.City, &o.Country, &o.PostalCode,
		&products, &o.TotalPrice, &o.TotalMainAmount, &status, &o.CreatedAt, &o.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	if err := json.Unmarshal(products, &o.Products); err != nil {
		return nil, fmt.Errorf("unmarshal order products: %w", err)
	}
	return &o, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
