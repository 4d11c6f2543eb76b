package application

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mvelickovic/bookstore/internal/order/domain"
	"github.com/mvelickovic/bookstore/pkg/outbox"
)

type OrderRepository interface {
	// Create assigns the order id and persists the Pending row.
	Create(ctx context.Context, o *domain.Order) error
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error
	// ConfirmWithOutbox flips the order to Confirmed and enqueues the outbox
	// entries in the same transaction.
	ConfirmWithOutbox(ctx context.Context, id int64, entries []outbox.Entry) error
	Get(ctx context.Context, id int64) (domain.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
}

type IdentityClient interface {
	Exists(ctx context.Context, userID int64) (bool, error)
}

// CatalogBook is the slice of the remote book the workflow needs.
type CatalogBook struct {
	ID    int64
	Title string
	Price decimal.Decimal
	Stock int
}

type StockReservation struct {
	ID string
}

type CatalogClient interface {
	GetBook(ctx context.Context, bookID int64) (CatalogBook, error)
	ReserveStock(ctx context.Context, bookID int64, quantity int, orderRef int64) (StockReservation, error)
	CommitStock(ctx context.Context, reservationID string) error
	ReleaseStock(ctx context.Context, reservationID string) error
}
