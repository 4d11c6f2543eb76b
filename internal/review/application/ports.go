package application

import (
	"context"

	"github.com/mvelickovic/bookstore/internal/review/domain"
)

type ReviewRepository interface {
	Create(ctx context.Context, rev *domain.Review) error
	ListByBook(ctx context.Context, bookID int64) ([]domain.Review, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Review, error)
	ListAll(ctx context.Context) ([]domain.Review, error)
	AverageRating(ctx context.Context, bookID int64) (float64, error)

	// UpsertEligibility must be idempotent per (user, book, order).
	UpsertEligibility(ctx context.Context, e domain.Eligibility) error
	IsEligible(ctx context.Context, userID, bookID int64) (bool, error)
}

type CatalogClient interface {
	BookExists(ctx context.Context, bookID int64) (bool, error)
}
