package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mvelickovic/bookstore/internal/review/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS reviews (
			id BIGSERIAL PRIMARY KEY,
			book_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			rating INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
			comment TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_reviews_book ON reviews(book_id);
		CREATE INDEX IF NOT EXISTS idx_reviews_user ON reviews(user_id);
		CREATE TABLE IF NOT EXISTS review_eligibility (
			user_id BIGINT NOT NULL,
			book_id BIGINT NOT NULL,
			order_id BIGINT NOT NULL,
			book_title TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (user_id, book_id, order_id)
		);
	`)
	return err
}

func (r *Repository) Create(ctx context.Context, rev *domain.Review) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO reviews (book_id, user_id, rating, comment)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at`,
		rev.BookID, rev.UserID, rev.Rating, rev.Comment,
	).Scan(&rev.ID, &rev.CreatedAt)
}

func (r *Repository) ListByBook(ctx context.Context, bookID int64) ([]domain.Review, error) {
	rows, err := r.pool.Query(ctx, selectReview+` WHERE book_id=$1 ORDER BY id`, bookID)
	if err != nil {
		return nil, err
	}
	return collectReviews(rows)
}

func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]domain.Review, error) {
	rows, err := r.pool.Query(ctx, selectReview+` WHERE user_id=$1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	return collectReviews(rows)
}

func (r *Repository) ListAll(ctx context.Context) ([]domain.Review, error) {
	rows, err := r.pool.Query(ctx, selectReview+` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectReviews(rows)
}

func (r *Repository) AverageRating(ctx context.Context, bookID int64) (float64, error) {
	var avg float64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE book_id=$1`, bookID).Scan(&avg)
	return avg, err
}

func (r *Repository) UpsertEligibility(ctx context.Context, e domain.Eligibility) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO review_eligibility (user_id, book_id, order_id, book_title, created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (user_id, book_id, order_id) DO NOTHING`,
		e.UserID, e.BookID, e.OrderID, e.BookTitle, timeOrNow(e.CreatedAt))
	return err
}

func (r *Repository) IsEligible(ctx context.Context, userID, bookID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM review_eligibility WHERE user_id=$1 AND book_id=$2)`,
		userID, bookID).Scan(&exists)
	return exists, err
}

const selectReview = `SELECT id, book_id, user_id, rating, comment, created_at FROM reviews`

func scanReview(row pgx.Row) (domain.Review, error) {
	var rev domain.Review
	err := row.Scan(&rev.ID, &rev.BookID, &rev.UserID, &rev.Rating, &rev.Comment, &rev.CreatedAt)
	return rev, err
}

func collectReviews(rows pgx.Rows) ([]domain.Review, error) {
	defer rows.Close()
	reviews := []domain.Review{}
	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, rev)
	}
	return reviews, rows.Err()
}

func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
