package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Book struct {
	ID          int64
	Title       string
	Author      string
	ISBN        string
	Price       decimal.Decimal
	Stock       int
	Description string
	CreatedAt   time.Time
}

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationCommitted ReservationStatus = "committed"
	ReservationReleased  ReservationStatus = "released"
)

// Reservation is a held stock decrement: the quantity has already been taken
// out of the book's stock and is finalized on commit or restored on release.
type Reservation struct {
	ID        string
	BookID    int64
	Quantity  int
	OrderRef  int64
	Status    ReservationStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
