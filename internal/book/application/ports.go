package application

import (
	"context"

	"github.com/mvelickovic/bookstore/internal/book/domain"
)

type BookRepository interface {
	Create(ctx context.Context, b *domain.Book) error
	Get(ctx context.Context, id int64) (domain.Book, error)
	List(ctx context.Context) ([]domain.Book, error)
	Search(ctx context.Context, title, author string) ([]domain.Book, error)
	// AdjustStock applies a signed delta and fails when the result would go
	// negative, returning the updated book otherwise.
	AdjustStock(ctx context.Context, id int64, delta int) (domain.Book, error)
	Delete(ctx context.Context, id int64) error

	// Reserve performs an atomic conditional decrement and records the hold.
	Reserve(ctx context.Context, bookID int64, quantity int, orderRef int64) (domain.Reservation, error)
	CommitReservation(ctx context.Context, id string) error
	ReleaseReservation(ctx context.Context, id string) error
}
