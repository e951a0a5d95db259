package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Mahbub2001/morgan-backend/internal/domain"
	"github.com/Mahbub2001/morgan-backend/internal/service"
	apperrors "github.com/Mahbub2001/morgan-backend/pkg/errors"
	"github.com/Mahbub2001/morgan-backend/pkg/httputil"
	"github.com/Mahbub2001/morgan-backend/pkg/middleware"
	"github.com/Mahbub2001/morgan-backend/pkg/pagination"
)

// maxBulkUpdates caps one bulk-update request.
const maxBulkUpdates = 100

// OrderService is the order workflow as seen by the HTTP layer.
type OrderService interface {
	PlaceOrder(ctx context.Context, userID string, req service.PlaceOrderRequest) (*domain.Order, error)
	CancelOrder(ctx context.Context, actor service.Actor, id string) (*domain.Order, error)
	BulkUpdateStatus(ctx context.Context, updates []service.StatusUpdate) (*service.BulkResult, error)
	GetOrder(ctx context.Context, actor service.Actor, id string) (*domain.Order, error)
	ListUserOrders(ctx context.Context, actor service.Actor, userID string, p pagination.Params) ([]domain.Order, int, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int, error)
}

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	service OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(svc OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{service: svc, logger: logger}
}

func actorFrom(r *http.Request) service.Actor {
	c := middleware.ClaimsFromContext(r.Context())
	if c == nil {
		return service.Actor{}
	}
	return service.Actor{UserID: c.UserID, Admin: c.IsAdmin()}
}

// PlaceOrder handles POST /orders
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req service.PlaceOrderRequest
	if err := httputil.ReadJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	order, err := h.service.PlaceOrder(r.Context(), middleware.UserIDFromContext(r.Context()), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, order)
}

// ListUserOrders handles GET /orders/{id} where id is the user id.
func (h *OrderHandler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r)
	orders, total, err := h.service.ListUserOrders(r.Context(), actorFrom(r), chi.URLParam(r, "id"), p)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(orders, total, p))
}

// GetOrder handles GET /orders/{id}/{orderId} where id is the user id.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "orderId"))
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), actorFrom(r), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if order.UserID != chi.URLParam(r, "id") {
		httputil.WriteError(w, r, apperrors.NotFound("order", id.String()), h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, order)
}

// CancelOrder handles PUT /orders/{id} where id is the order id. Any body
// is ignored; the stored lines decide what goes back to stock.
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.service.CancelOrder(r.Context(), actorFrom(r), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, order)
}

// ListOrders handles GET /admin/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r)
	sort := pagination.SortFromRequest(r, domain.OrderSortFields, pagination.Sort{Field: "created_at", Desc: true})
	q := r.URL.Query()

	filter := domain.OrderFilter{
		Search:   strings.TrimSpace(q.Get("search")),
		SortBy:   sort.Field,
		SortDesc: sort.Desc,
		Page:     p.Page,
		PerPage:  p.PerPage,
		UserID:   q.Get("userId"),
	}
	if v := q.Get("status"); v != "" {
		status, err := domain.ParseOrderStatus(v)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput(err.Error()), h.logger)
			return
		}
		filter.Status = status
	}

	orders, total, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(orders, total, p))
}

// BulkUpdateStatus handles PUT /admin/orders/bulk-update
func (h *OrderHandler) BulkUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var updates []service.StatusUpdate
	if err := httputil.ReadJSON(w, r, &updates); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if len(updates) > maxBulkUpdates {
		httputil.WriteError(w, r, apperrors.InvalidInput("too many updates in one request"), h.logger)
		return
	}

	res, err := h.service.BulkUpdateStatus(r.Context(), updates)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.logger.InfoContext(r.Context(), "bulk status update",
		slog.Int("updated", res.Updated),
		slog.Int("failed", res.Failed),
	)
	httputil.WriteData(w, http.StatusOK, res)
}
