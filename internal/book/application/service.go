package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mvelickovic/bookstore/internal/book/domain"
)

var (
	ErrTitleRequired   = errors.New("title must not be blank")
	ErrAuthorRequired  = errors.New("author must not be blank")
	ErrNegativePrice   = errors.New("price must not be negative")
	ErrNegativeStock   = errors.New("stock must not be negative")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidOrderRef = errors.New("order reference must be positive")
)

type Service struct {
	log  *slog.Logger
	repo BookRepository
}

func NewService(log *slog.Logger, repo BookRepository) *Service {
	return &Service{log: log, repo: repo}
}

type CreateBookInput struct {
	Title       string
	Author      string
	ISBN        string
	Price       decimal.Decimal
	Stock       int
	Description string
}

func (s *Service) CreateBook(ctx context.Context, in CreateBookInput) (domain.Book, error) {
	switch {
	case in.Title == "":
		return domain.Book{}, ErrTitleRequired
	case in.Author == "":
		return domain.Book{}, ErrAuthorRequired
	case in.Price.IsNegative():
		return domain.Book{}, ErrNegativePrice
	case in.Stock < 0:
		return domain.Book{}, ErrNegativeStock
	}

	b := domain.Book{
		Title:       in.Title,
		Author:      in.Author,
		ISBN:        in.ISBN,
		Price:       in.Price,
		Stock:       in.Stock,
		Description: in.Description,
	}
	if err := s.repo.Create(ctx, &b); err != nil {
		return domain.Book{}, err
	}
	s.log.Info("book created", "book_id", b.ID, "title", b.Title)
	return b, nil
}

func (s *Service) GetBook(ctx context.Context, id int64) (domain.Book, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListBooks(ctx context.Context) ([]domain.Book, error) {
	return s.repo.List(ctx)
}

func (s *Service) SearchBooks(ctx context.Context, title, author string) ([]domain.Book, error) {
	return s.repo.Search(ctx, title, author)
}

func (s *Service) AdjustStock(ctx context.Context, id int64, delta int) (domain.Book, error) {
	b, err := s.repo.AdjustStock(ctx, id, delta)
	if err != nil {
		return domain.Book{}, err
	}
	s.log.Info("stock adjusted", "book_id", id, "delta", delta, "stock", b.Stock)
	return b, nil
}

func (s *Service) DeleteBook(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("book deleted", "book_id", id)
	return nil
}

func (s *Service) Reserve(ctx context.Context, bookID int64, quantity int, orderRef int64) (domain.Reservation, error) {
	if quantity <= 0 {
		return domain.Reservation{}, ErrInvalidQuantity
	}
	if orderRef <= 0 {
		return domain.Reservation{}, ErrInvalidOrderRef
	}
	res, err := s.repo.Reserve(ctx, bookID, quantity, orderRef)
	if err != nil {
		return domain.Reservation{}, err
	}
	s.log.Info("stock reserved", "reservation_id", res.ID, "book_id", bookID, "quantity", quantity, "order_ref", orderRef)
	return res, nil
}

func (s *Service) CommitReservation(ctx context.Context, id string) error {
	if err := s.repo.CommitReservation(ctx, id); err != nil {
		return err
	}
	s.log.Info("reservation committed", "reservation_id", id)
	return nil
}

func (s *Service) ReleaseReservation(ctx context.Context, id string) error {
	if err := s.repo.ReleaseReservation(ctx, id); err != nil {
		return err
	}
	s.log.Info("reservation released", "reservation_id", id)
	return nil
}
