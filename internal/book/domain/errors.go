package domain

import (
	"errors"
	"fmt"
)

var (
	ErrBookNotFound         = errors.New("book not found")
	ErrISBNExists           = errors.New("isbn already exists")
	ErrReservationNotFound  = errors.New("reservation not found")
	ErrReservationCommitted = errors.New("reservation already committed")
)

type InsufficientStockError struct {
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock, available: %d", e.Available)
}
