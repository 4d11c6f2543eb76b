package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mvelickovic/bookstore/internal/review/domain"
)

type Service struct {
	log     *slog.Logger
	repo    ReviewRepository
	catalog CatalogClient
}

func NewService(log *slog.Logger, repo ReviewRepository, catalog CatalogClient) *Service {
	return &Service{log: log, repo: repo, catalog: catalog}
}

type CreateReviewInput struct {
	BookID  int64
	UserID  int64
	Rating  int
	Comment string
}

// CreateReview accepts a review only from users who bought the book, the
// capability unlocked by the order-confirmed event.
func (s *Service) CreateReview(ctx context.Context, in CreateReviewInput) (domain.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return domain.Review{}, domain.ErrInvalidRating
	}
	if strings.TrimSpace(in.Comment) == "" {
		return domain.Review{}, domain.ErrEmptyComment
	}
	if len(in.Comment) > 1000 {
		return domain.Review{}, domain.ErrCommentTooLong
	}

	exists, err := s.catalog.BookExists(ctx, in.BookID)
	if err != nil {
		return domain.Review{}, err
	}
	if !exists {
		return domain.Review{}, domain.ErrBookNotFound
	}

	eligible, err := s.repo.IsEligible(ctx, in.UserID, in.BookID)
	if err != nil {
		return domain.Review{}, err
	}
	if !eligible {
		return domain.Review{}, domain.ErrNotEligible
	}

	rev := domain.Review{
		BookID:  in.BookID,
		UserID:  in.UserID,
		Rating:  in.Rating,
		Comment: in.Comment,
	}
	if err := s.repo.Create(ctx, &rev); err != nil {
		return domain.Review{}, err
	}
	s.log.Info("review created", "review_id", rev.ID, "book_id", rev.BookID, "user_id", rev.UserID)
	return rev, nil
}

// MarkEligible is the consumer-side effect of an order confirmation.
// Delivering the same event twice leaves the state unchanged.
func (s *Service) MarkEligible(ctx context.Context, userID, bookID, orderID int64, bookTitle string) error {
	err := s.repo.UpsertEligibility(ctx, domain.Eligibility{
		UserID:    userID,
		BookID:    bookID,
		OrderID:   orderID,
		BookTitle: bookTitle,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	s.log.Info("review eligibility recorded", "user_id", userID, "book_id", bookID, "order_id", orderID)
	return nil
}

func (s *Service) ListReviewsByBook(ctx context.Context, bookID int64) ([]domain.Review, error) {
	return s.repo.ListByBook(ctx, bookID)
}

func (s *Service) ListReviewsByUser(ctx context.Context, userID int64) ([]domain.Review, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ListAllReviews(ctx context.Context) ([]domain.Review, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) AverageRating(ctx context.Context, bookID int64) (float64, error) {
	return s.repo.AverageRating(ctx, bookID)
}
