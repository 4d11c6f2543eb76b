package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mvelickovic/bookstore/internal/book/domain"
)

const uniqueViolation = "23505"

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS books (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			author TEXT NOT NULL,
			isbn TEXT UNIQUE,
			price NUMERIC(12,2) NOT NULL,
			stock INT NOT NULL DEFAULT 0 CHECK (stock >= 0),
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS reservations (
			id UUID PRIMARY KEY,
			book_id BIGINT NOT NULL REFERENCES books(id),
			quantity INT NOT NULL,
			order_ref BIGINT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_reservations_book ON reservations(book_id);
	`)
	return err
}

func (r *Repository) Create(ctx context.Context, b *domain.Book) error {
	var isbn *string
	if b.ISBN != "" {
		isbn = &b.ISBN
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO books (title, author, isbn, price, stock, description)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at`,
		b.Title, b.Author, isbn, b.Price, b.Stock, b.Description,
	).Scan(&b.ID, &b.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrISBNExists
	}
	return err
}

func (r *Repository) Get(ctx context.Context, id int64) (domain.Book, error) {
	b, err := scanBook(r.pool.QueryRow(ctx, selectBook+` WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Book{}, domain.ErrBookNotFound
	}
	return b, err
}

func (r *Repository) List(ctx context.Context) ([]domain.Book, error) {
	rows, err := r.pool.Query(ctx, selectBook+` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectBooks(rows)
}

func (r *Repository) Search(ctx context.Context, title, author string) ([]domain.Book, error) {
	var rows pgx.Rows
	var err error
	switch {
	case title != "":
		rows, err = r.pool.Query(ctx, selectBook+` WHERE title ILIKE '%'||$1||'%' ORDER BY id`, title)
	case author != "":
		rows, err = r.pool.Query(ctx, selectBook+` WHERE author ILIKE '%'||$1||'%' ORDER BY id`, author)
	default:
		rows, err = r.pool.Query(ctx, selectBook+` ORDER BY id`)
	}
	if err != nil {
		return nil, err
	}
	return collectBooks(rows)
}

func (r *Repository) AdjustStock(ctx context.Context, id int64, delta int) (domain.Book, error) {
	b, err := scanBook(r.pool.QueryRow(ctx, `
		UPDATE books SET stock = stock + $2
		WHERE id=$1 AND stock + $2 >= 0
		RETURNING id, title, author, COALESCE(isbn,''), price, stock, description, created_at`,
		id, delta))
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the book is missing or the delta would drive stock negative.
		current, gerr := r.Get(ctx, id)
		if gerr != nil {
			return domain.Book{}, gerr
		}
		return domain.Book{}, &domain.InsufficientStockError{Available: current.Stock}
	}
	return b, err
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM books WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

func (r *Repository) Reserve(ctx context.Context, bookID int64, quantity int, orderRef int64) (domain.Reservation, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Reservation{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// The conditional decrement is the whole point: two concurrent buyers of
	// the last copy cannot both get past this statement.
	ct, err := tx.Exec(ctx, `UPDATE books SET stock = stock - $2 WHERE id=$1 AND stock >= $2`, bookID, quantity)
	if err != nil {
		return domain.Reservation{}, err
	}
	if ct.RowsAffected() == 0 {
		var available int
		err := tx.QueryRow(ctx, `SELECT stock FROM books WHERE id=$1`, bookID).Scan(&available)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Reservation{}, domain.ErrBookNotFound
		}
		if err != nil {
			return domain.Reservation{}, err
		}
		return domain.Reservation{}, &domain.InsufficientStockError{Available: available}
	}

	now := time.Now().UTC()
	res := domain.Reservation{
		ID:        uuid.NewString(),
		BookID:    bookID,
		Quantity:  quantity,
		OrderRef:  orderRef,
		Status:    domain.ReservationPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO reservations (id, book_id, quantity, order_ref, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		res.ID, res.BookID, res.Quantity, res.OrderRef, res.Status, res.CreatedAt, res.UpdatedAt)
	if err != nil {
		return domain.Reservation{}, err
	}
	return res, tx.Commit(ctx)
}

func (r *Repository) CommitReservation(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `
		UPDATE reservations SET status=$2, updated_at=now()
		WHERE id=$1 AND status=$3`,
		id, domain.ReservationCommitted, domain.ReservationPending)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}

	var status domain.ReservationStatus
	err = r.pool.QueryRow(ctx, `SELECT status FROM reservations WHERE id=$1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrReservationNotFound
	}
	if err != nil {
		return err
	}
	if status == domain.ReservationCommitted {
		return nil // commit is idempotent
	}
	return domain.ErrReservationNotFound
}

func (r *Repository) ReleaseReservation(ctx context.Context, id string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var bookID int64
	var quantity int
	var status domain.ReservationStatus
	err = tx.QueryRow(ctx, `SELECT book_id, quantity, status FROM reservations WHERE id=$1 FOR UPDATE`, id).
		Scan(&bookID, &quantity, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrReservationNotFound
	}
	if err != nil {
		return err
	}

	switch status {
	case domain.ReservationReleased:
		return nil // release is idempotent
	case domain.ReservationCommitted:
		return domain.ErrReservationCommitted
	}

	if _, err := tx.Exec(ctx, `UPDATE books SET stock = stock + $2 WHERE id=$1`, bookID, quantity); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE reservations SET status=$2, updated_at=now() WHERE id=$1`,
		id, domain.ReservationReleased); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const selectBook = `SELECT id, title, author, COALESCE(isbn,''), price, stock, description, created_at FROM books`

func scanBook(row pgx.Row) (domain.Book, error) {
	var b domain.Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Price, &b.Stock, &b.Description, &b.CreatedAt)
	return b, err
}

func collectBooks(rows pgx.Rows) ([]domain.Book, error) {
	defer rows.Close()
	books := []domain.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}
