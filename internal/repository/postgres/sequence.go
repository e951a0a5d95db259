package postgres

import (
	"context"
	"fmt"

	"github.com/Mahbub2001/morgan-backend/pkg/database"
)

// Sequence implements orderid.Sequence with an upsert on order_sequences.
// It runs on the pool, so codes are drawn before a checkout transaction
// opens; a checkout that fails afterwards leaves a gap in the numbering.
type Sequence struct {
	db database.DBTX
}

// NewSequence creates a Sequence.
func NewSequence(db database.DBTX) *Sequence {
	return &Sequence{db: db}
}

// Next increments and returns the counter for day.
func (s *Sequence) Next(ctx context.Context, day string) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO order_sequences (day, value) VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET value = order_sequences.value + 1
		RETURNING value`, day,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("increment order sequence: %w", err)
	}
	return n, nil
}
