package domain

import "errors"

var (
	// ErrInsufficientStock is returned when a variant holds fewer units than requested.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrOrderAlreadyCancelled is returned when cancelling a cancelled order.
	ErrOrderAlreadyCancelled = errors.New("order already cancelled")
	// ErrInvalidTransition is returned for a status change the workflow does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrInvalidStatus is returned for an unknown status string.
	ErrInvalidStatus = errors.New("invalid status")
)
