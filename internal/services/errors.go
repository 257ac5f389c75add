package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalid wraps every input validation failure.
	ErrInvalid = errors.New("invalid input")
	// ErrConflict marks a request that contradicts the stored state.
	ErrConflict = errors.New("conflict")

	ErrAlreadyCompleted = fmt.Errorf("%w: planned transaction already completed", ErrConflict)
	ErrAlreadyPaid      = fmt.Errorf("%w: subscription already paid this month", ErrConflict)
)

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalid, err)
}
