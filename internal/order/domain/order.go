package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusCancelled OrderStatus = "cancelled"
)

// Order is the durable commitment record. Created as Pending before the
// stock reservation is attempted, flipped to Confirmed together with the
// outbox rows, or to Cancelled when the reservation or confirmation fails.
type Order struct {
	ID         int64
	UserID     int64
	BookID     int64
	Quantity   int
	TotalPrice decimal.Decimal
	Status     OrderStatus
	CreatedAt  time.Time
}

// NewOrder computes the total once, from the unit price at this instant.
// It is never recomputed.
func NewOrder(userID, bookID int64, quantity int, unitPrice decimal.Decimal) Order {
	return Order{
		UserID:     userID,
		BookID:     bookID,
		Quantity:   quantity,
		TotalPrice: unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
}
