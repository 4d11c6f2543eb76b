package domain

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// Terminal dependency failures: the entity does not exist.
	ErrUserNotFound = errors.New("user not found")
	ErrBookNotFound = errors.New("book not found")

	// Retryable dependency failures: the remote service could not answer.
	ErrIdentityUnavailable = errors.New("identity service unavailable")
	ErrCatalogUnavailable  = errors.New("catalog service unavailable")
)

type InsufficientStockError struct {
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock, available: %d", e.Available)
}
