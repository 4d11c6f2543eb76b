package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/mvelickovic/bookstore/internal/order/domain"
	"github.com/mvelickovic/bookstore/pkg/outbox"
	"github.com/mvelickovic/bookstore/pkg/tracing"
)

// Outbox entry types produced by the workflow. OrderConfirmed is published
// to Kafka; the stock tasks are executed against the catalog by the relay.
const (
	EventOrderConfirmed = "OrderConfirmed"
	TaskStockCommit     = "StockCommit"
	TaskStockRelease    = "StockRelease"
)

// StockTask is the payload of TaskStockCommit / TaskStockRelease entries.
type StockTask struct {
	ReservationID string `json:"reservationId"`
}

type Service struct {
	log      *slog.Logger
	repo     OrderRepository
	identity IdentityClient
	catalog  CatalogClient
}

func NewService(log *slog.Logger, repo OrderRepository, identity IdentityClient, catalog CatalogClient) *Service {
	return &Service{log: log, repo: repo, identity: identity, catalog: catalog}
}

// CreateOrder runs the purchase workflow in strict sequence: identity check,
// catalog read, availability pre-check, Pending commit, conditional stock
// reservation, then confirmation with the outbox entries in one transaction.
// Steps before the Pending commit fail closed; failures after it cancel the
// order and release the reservation.
func (s *Service) CreateOrder(ctx context.Context, userID, bookID int64, quantity int) (domain.Order, error) {
	if quantity <= 0 {
		return domain.Order{}, domain.ErrInvalidQuantity
	}

	ok, err := s.identity.Exists(ctx, userID)
	if err != nil {
		return domain.Order{}, err
	}
	if !ok {
		return domain.Order{}, domain.ErrUserNotFound
	}

	book, err := s.catalog.GetBook(ctx, bookID)
	if err != nil {
		return domain.Order{}, err
	}
	if book.Stock < quantity {
		return domain.Order{}, &domain.InsufficientStockError{Available: book.Stock}
	}

	o := domain.NewOrder(userID, bookID, quantity, book.Price)
	if err := s.repo.Create(ctx, &o); err != nil {
		return domain.Order{}, fmt.Errorf("persist order: %w", err)
	}

	// The read above was only a pre-check; the reservation is the
	// authoritative, atomic decrement on the catalog side.
	res, err := s.catalog.ReserveStock(ctx, bookID, quantity, o.ID)
	if err != nil {
		s.cancel(ctx, o.ID)
		return domain.Order{}, err
	}

	entries, err := s.confirmationEntries(ctx, o, book.Title, res.ID)
	if err == nil {
		err = s.repo.ConfirmWithOutbox(ctx, o.ID, entries)
	}
	if err != nil {
		if rerr := s.catalog.ReleaseStock(ctx, res.ID); rerr != nil {
			s.log.Error("stock release failed after confirm error", "order_id", o.ID, "reservation_id", res.ID, "err", rerr)
		}
		s.cancel(ctx, o.ID)
		return domain.Order{}, fmt.Errorf("confirm order: %w", err)
	}

	o.Status = domain.StatusConfirmed
	s.log.Info("order confirmed", "order_id", o.ID, "user_id", userID, "book_id", bookID,
		"quantity", quantity, "total_price", o.TotalPrice)
	return o, nil
}

func (s *Service) confirmationEntries(ctx context.Context, o domain.Order, bookTitle, reservationID string) ([]outbox.Entry, error) {
	event, err := json.Marshal(domain.OrderConfirmed{
		OrderID:    o.ID,
		UserID:     o.UserID,
		BookID:     o.BookID,
		Quantity:   o.Quantity,
		TotalPrice: o.TotalPrice,
		BookTitle:  bookTitle,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	task, err := json.Marshal(StockTask{ReservationID: reservationID})
	if err != nil {
		return nil, fmt.Errorf("marshal stock task: %w", err)
	}

	traceparent := tracing.Traceparent(ctx)
	return []outbox.Entry{
		{Type: EventOrderConfirmed, Key: strconv.FormatInt(o.ID, 10), Payload: event, Traceparent: traceparent},
		{Type: TaskStockCommit, Key: reservationID, Payload: task, Traceparent: traceparent},
	}, nil
}

func (s *Service) cancel(ctx context.Context, orderID int64) {
	if err := s.repo.UpdateStatus(ctx, orderID, domain.StatusCancelled); err != nil {
		s.log.Error("order cancel failed", "order_id", orderID, "err", err)
	}
}

// HandleStockTask executes StockCommit/StockRelease outbox entries drained
// by the relay.
func (s *Service) HandleStockTask(ctx context.Context, e outbox.Event) error {
	var task StockTask
	if err := json.Unmarshal(e.Payload, &task); err != nil {
		return fmt.Errorf("decode stock task: %w", err)
	}
	switch e.Type {
	case TaskStockCommit:
		return s.catalog.CommitStock(ctx, task.ReservationID)
	case TaskStockRelease:
		return s.catalog.ReleaseStock(ctx, task.ReservationID)
	default:
		return fmt.Errorf("unknown stock task type %q", e.Type)
	}
}

func (s *Service) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	return s.repo.ListAll(ctx)
}
