package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Mahbub2001/morgan-backend/internal/domain"
	"github.com/Mahbub2001/morgan-backend/internal/notify"
	"github.com/Mahbub2001/morgan-backend/internal/orderid"
	"github.com/Mahbub2001/morgan-backend/internal/repository"
	apperrors "github.com/Mahbub2001/morgan-backend/pkg/errors"
	"github.com/Mahbub2001/morgan-backend/pkg/pagination"
	"github.com/Mahbub2001/morgan-backend/pkg/tracing"
	"github.com/Mahbub2001/morgan-backend/pkg/validator"
)

const tracerName = "github.com/Mahbub2001/morgan-backend/internal/service"

// CodeGenerator hands out order codes. *orderid.Generator satisfies it.
type CodeGenerator interface {
	Next(ctx context.Context) (string, error)
}

// OrderEvents publishes order lifecycle events. *event.Producer satisfies it.
type OrderEvents interface {
	PublishOrderCreated(ctx context.Context, o *domain.Order) error
	PublishOrderStatusChanged(ctx context.Context, o *domain.Order, old domain.OrderStatus) error
	PublishOrderCanceled(ctx context.Context, o *domain.Order) error
	PublishStockUpdated(ctx context.Context, m domain.StockMovement) error
}

// Actor is the authenticated caller of an order operation.
type Actor struct {
	UserID string
	Admin  bool
}

// PlaceOrderRequest is a checkout submission.
type PlaceOrderRequest struct {
	Products []domain.LineItem `json:"products" validate:"required,min=1,max=50,dive"`
	domain.Buyer
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=cod online"`
	CouponCode    string `json:"couponCode" validate:"max=40"`
}

// StatusUpdate is one entry of an admin bulk update. Products is accepted
// for compatibility; stock is always compensated from the stored lines.
type StatusUpdate struct {
	ID       string            `json:"id" validate:"required"`
	Status   string            `json:"status" validate:"required"`
	Products []domain.LineItem `json:"products" validate:"omitempty,dive"`
	TranID   string            `json:"tran_id"`
}

// BulkItemResult reports the outcome for one order of a bulk update.
type BulkItemResult struct {
	ID      string `json:"id"`
	OrderID string `json:"orderId,omitempty"`
	Status  string `json:"status,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BulkResult summarizes a bulk update.
type BulkResult struct {
	Updated int              `json:"updated"`
	Failed  int              `json:"failed"`
	Results []BulkItemResult `json:"results"`
}

// OrderService runs the order workflow: checkout, cancellation and admin
// status changes, each with its compensating stock movements.
type OrderService struct {
	store    repository.TxManager
	ledger   *Ledger
	codes    CodeGenerator
	events   OrderEvents
	mailer   notify.Sender
	mailFrom string
	metrics  *Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// OrderServiceDeps groups OrderService collaborators. Events, Mailer and
// Metrics are optional.
type OrderServiceDeps struct {
	Store    repository.TxManager
	Ledger   *Ledger
	Codes    CodeGenerator
	Events   OrderEvents
	Mailer   notify.Sender
	MailFrom string
	Metrics  *Metrics
	Logger   *slog.Logger
}

// NewOrderService creates an OrderService.
func NewOrderService(d OrderServiceDeps) *OrderService {
	return &OrderService{
		store:    d.Store,
		ledger:   d.Ledger,
		codes:    d.Codes,
		events:   d.Events,
		mailer:   d.Mailer,
		mailFrom: d.MailFrom,
		metrics:  d.Metrics,
		logger:   d.Logger,
		now:      time.Now,
	}
}

// PlaceOrder reserves stock for every line and writes the transaction and
// the order in one database transaction. Nothing is written if any line
// lacks stock.
func (s *OrderService) PlaceOrder(ctx context.Context, userID string, req PlaceOrderRequest) (_ *domain.Order, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "OrderService.PlaceOrder",
		attribute.String("user.id", userID),
		attribute.Int("order.lines", len(req.Products)),
	)
	defer func() { tracing.End(span, err) }()

	if userID == "" {
		return nil, apperrors.Unauthorized("unauthorized access")
	}
	if err := validator.Validate(req); err != nil {
		s.metrics.checkoutRejected("invalid")
		return nil, err
	}

	// The code is drawn before the transaction opens: the sequence runs on
	// its own pool connection and a failed checkout only leaves a gap.
	code, err := s.nextCode(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	tranID := uuid.NewString()
	var order *domain.Order

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		lines, err := s.ledger.Reserve(ctx, tx.Inventory(), req.Products, tranID)
		if err != nil {
			return err
		}
		total, mainAmount := domain.Totals(lines)

		tr := &domain.Transaction{
			ID:              tranID,
			UserID:          userID,
			Buyer:           req.Buyer,
			PaymentMethod:   req.PaymentMethod,
			CouponCode:      req.CouponCode,
			Products:        lines,
			TotalPrice:      total,
			TotalMainAmount: mainAmount,
			Status:          domain.TransactionStatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.Transactions().Create(ctx, tr); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}

		o := &domain.Order{
			ID:              uuid.NewString(),
			OrderID:         code,
			TranID:          tranID,
			UserID:          userID,
			Buyer:           req.Buyer,
			Products:        lines,
			TotalPrice:      total,
			TotalMainAmount: mainAmount,
			Status:          domain.OrderStatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.Orders().Create(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		order = o
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			s.metrics.checkoutRejected("insufficient_stock")
		}
		return nil, err
	}

	s.metrics.orderPlaced(order.TotalPrice)
	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.OrderID),
		slog.String("tran_id", order.TranID),
		slog.String("user_id", userID),
		slog.String("total_price", order.TotalPrice.StringFixed(2)),
	)

	s.publish(ctx, "order.created", func(e OrderEvents) error { return e.PublishOrderCreated(ctx, order) })
	for _, it := range domain.MergeLines(req.Products) {
		m := movement(it, -it.Quantity, domain.MovementReserve, tranID)
		s.publish(ctx, "inventory.stock_updated", func(e OrderEvents) error { return e.PublishStockUpdated(ctx, m) })
	}
	s.sendConfirmation(ctx, order)
	return order, nil
}

func (s *OrderService) nextCode(ctx context.Context) (string, error) {
	code, err := s.codes.Next(ctx)
	if err != nil {
		return "", apperrors.Internal(fmt.Errorf("generate order code: %w", err))
	}
	if code == "" {
		return "", apperrors.Internal(errors.New("generate order code: empty code"))
	}
	if _, err := orderid.Parse(code); err != nil {
		return "", apperrors.Internal(fmt.Errorf("generate order code: %w", err))
	}
	return code, nil
}

// CancelOrder cancels a pending order and returns its stored lines to stock.
func (s *OrderService) CancelOrder(ctx context.Context, actor Actor, id string) (_ *domain.Order, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "OrderService.CancelOrder", attribute.String("order.id", id))
	defer func() { tracing.End(span, err) }()

	var (
		order *domain.Order
		moves []domain.StockMovement
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		o, err := tx.Orders().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !actor.Admin && o.UserID != actor.UserID {
			return apperrors.Forbidden("forbidden access")
		}
		if err := o.CanTransitionTo(domain.OrderStatusCancelled); err != nil {
			return transitionError(o, domain.OrderStatusCancelled, err)
		}

		moves, err = s.ledger.Restock(ctx, tx.Inventory(), domain.Items(o.Products), o.OrderID)
		if err != nil {
			return fmt.Errorf("restock order %s: %w", o.OrderID, err)
		}
		if err := s.setStatus(ctx, tx, o, domain.OrderStatusCancelled); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, order, domain.OrderStatusPending, moves)
	return order, nil
}

// BulkUpdateStatus applies each update in its own database transaction.
// A failed update is reported and does not affect the others.
func (s *OrderService) BulkUpdateStatus(ctx context.Context, updates []StatusUpdate) (*BulkResult, error) {
	if len(updates) == 0 {
		return nil, apperrors.InvalidInput("no updates given")
	}

	res := &BulkResult{Results: make([]BulkItemResult, 0, len(updates))}
	for _, u := range updates {
		item := BulkItemResult{ID: u.ID}
		o, err := s.applyStatus(ctx, u)
		if err != nil {
			item.Error = publicMessage(err)
			res.Failed++
			s.logger.WarnContext(ctx, "bulk status update failed",
				slog.String("id", u.ID),
				slog.String("status", u.Status),
				slog.String("error", err.Error()),
			)
		} else {
			item.Success = true
			item.OrderID = o.OrderID
			item.Status = string(o.Status)
			res.Updated++
		}
		res.Results = append(res.Results, item)
	}
	return res, nil
}

func (s *OrderService) applyStatus(ctx context.Context, u StatusUpdate) (_ *domain.Order, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "OrderService.applyStatus",
		attribute.String("order.id", u.ID),
		attribute.String("order.status", u.Status),
	)
	defer func() { tracing.End(span, err) }()

	if err := validator.Validate(u); err != nil {
		return nil, err
	}
	target, err := domain.ParseOrderStatus(u.Status)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	var (
		order *domain.Order
		old   domain.OrderStatus
		moves []domain.StockMovement
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		o, err := tx.Orders().GetForUpdate(ctx, u.ID)
		if err != nil {
			return err
		}
		if u.TranID != "" && u.TranID != o.TranID {
			return apperrors.InvalidInput(fmt.Sprintf("tran_id %s does not belong to order %s", u.TranID, o.OrderID))
		}
		if err := o.CanTransitionTo(target); err != nil {
			return transitionError(o, target, err)
		}

		switch target {
		case domain.OrderStatusCancelled:
			moves, err = s.ledger.Restock(ctx, tx.Inventory(), domain.Items(o.Products), o.OrderID)
		case domain.OrderStatusReceived:
			moves, err = s.ledger.Fulfill(ctx, tx.Inventory(), domain.Items(o.Products), o.OrderID)
		}
		if err != nil {
			return err
		}

		old = o.Status
		if err := s.setStatus(ctx, tx, o, target); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, order, old, moves)
	return order, nil
}

// setStatus moves the order and mirrors the change onto its transaction.
func (s *OrderService) setStatus(ctx context.Context, tx repository.Tx, o *domain.Order, target domain.OrderStatus) error {
	if err := tx.Orders().UpdateStatus(ctx, o.ID, target); err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if err := tx.Transactions().UpdateStatus(ctx, o.TranID, target.TransactionStatus()); err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	o.Status = target
	o.UpdatedAt = s.now().UTC()
	return nil
}

func (s *OrderService) afterTransition(ctx context.Context, o *domain.Order, old domain.OrderStatus, moves []domain.StockMovement) {
	s.metrics.transitioned(string(o.Status))
	s.logger.InfoContext(ctx, "order status changed",
		slog.String("order_id", o.OrderID),
		slog.String("from", string(old)),
		slog.String("to", string(o.Status)),
		slog.Int("stock_movements", len(moves)),
	)

	s.publish(ctx, "order.status_changed", func(e OrderEvents) error { return e.PublishOrderStatusChanged(ctx, o, old) })
	if o.Status == domain.OrderStatusCancelled {
		s.publish(ctx, "order.canceled", func(e OrderEvents) error { return e.PublishOrderCanceled(ctx, o) })
	}
	for _, m := range moves {
		s.publish(ctx, "inventory.stock_updated", func(e OrderEvents) error { return e.PublishStockUpdated(ctx, m) })
	}
}

// publish sends an event after commit. Failures are logged only.
func (s *OrderService) publish(ctx context.Context, name string, fn func(OrderEvents) error) {
	if s.events == nil {
		return
	}
	if err := fn(s.events); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish event",
			slog.String("event", name),
			slog.String("error", err.Error()),
		)
	}
}

func (s *OrderService) sendConfirmation(ctx context.Context, o *domain.Order) {
	if s.mailer == nil {
		return
	}
	msg, err := notify.OrderConfirmation(s.mailFrom, o)
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "order confirmation not sent",
			slog.String("order_id", o.OrderID),
			slog.String("sender", s.mailer.Name()),
			slog.String("error", err.Error()),
		)
	}
}

// GetOrder returns an order visible to the actor.
func (s *OrderService) GetOrder(ctx context.Context, actor Actor, id string) (*domain.Order, error) {
	o, err := s.store.Orders().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && o.UserID != actor.UserID {
		return nil, apperrors.Forbidden("forbidden access")
	}
	return o, nil
}

// ListUserOrders returns a user's orders, newest first.
func (s *OrderService) ListUserOrders(ctx context.Context, actor Actor, userID string, p pagination.Params) ([]domain.Order, int, error) {
	if !actor.Admin && userID != actor.UserID {
		return nil, 0, apperrors.Forbidden("forbidden access")
	}
	orders, total, err := s.store.Orders().List(ctx, domain.OrderFilter{
		UserID:   userID,
		SortBy:   "created_at",
		SortDesc: true,
		Page:     p.Page,
		PerPage:  p.PerPage,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list user orders: %w", err)
	}
	return orders, total, nil
}

// ListOrders returns orders for the admin dashboard.
func (s *OrderService) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int, error) {
	orders, total, err := s.store.Orders().List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

func transitionError(o *domain.Order, target domain.OrderStatus, err error) error {
	if errors.Is(err, domain.ErrOrderAlreadyCancelled) {
		return apperrors.Conflict("order already cancelled")
	}
	return apperrors.InvalidState(fmt.Sprintf("order %s is %s and cannot become %s", o.OrderID, o.Status, target))
}

// publicMessage is the client-safe text of err.
func publicMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		return valErr.Error()
	}
	return "an internal error occurred"
}
