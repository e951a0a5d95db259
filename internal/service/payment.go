package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Mahbub2001/morgan-backend/internal/repository"
)

// PaymentService applies gateway confirmations to transactions.
type PaymentService struct {
	transactions repository.TransactionRepository
	metrics      *Metrics
	logger       *slog.Logger
}

// NewPaymentService creates a PaymentService.
func NewPaymentService(transactions repository.TransactionRepository, metrics *Metrics, logger *slog.Logger) *PaymentService {
	return &PaymentService{transactions: transactions, metrics: metrics, logger: logger}
}

// ConfirmPayment moves a pending transaction to success. A transaction in
// any other state is left alone; an unknown one is an error.
func (s *PaymentService) ConfirmPayment(ctx context.Context, tranID string) error {
	ok, err := s.transactions.MarkPaid(ctx, tranID)
	if err != nil {
		return err
	}
	if ok {
		s.metrics.paymentConfirmed()
		s.logger.InfoContext(ctx, "payment confirmed", slog.String("tran_id", tranID))
		return nil
	}

	tr, err := s.transactions.GetByID(ctx, tranID)
	if err != nil {
		return fmt.Errorf("confirm payment %s: %w", tranID, err)
	}
	s.logger.InfoContext(ctx, "payment confirmation ignored",
		slog.String("tran_id", tranID),
		slog.String("status", string(tr.Status)),
	)
	return nil
}
