package application

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvelickovic/bookstore/internal/book/domain"
	"github.com/mvelickovic/bookstore/pkg/logging"
)

type fakeRepo struct {
	mu           sync.Mutex
	books        map[int64]domain.Book
	nextID       int64
	reservations map[string]domain.Reservation
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		books:        map[int64]domain.Book{},
		reservations: map[string]domain.Reservation{},
	}
}

func (f *fakeRepo) Create(_ context.Context, b *domain.Book) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.books {
		if existing.ISBN == b.ISBN {
			return domain.ErrISBNExists
		}
	}
	f.nextID++
	b.ID = f.nextID
	f.books[b.ID] = *b
	return nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (domain.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[id]
	if !ok {
		return domain.Book{}, domain.ErrBookNotFound
	}
	return b, nil
}

func (f *fakeRepo) List(_ context.Context) ([]domain.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Book{}
	for _, b := range f.books {
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeRepo) Search(_ context.Context, title, author string) ([]domain.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Book{}
	for _, b := range f.books {
		if title != "" && !strings.Contains(strings.ToLower(b.Title), strings.ToLower(title)) {
			continue
		}
		if author != "" && !strings.Contains(strings.ToLower(b.Author), strings.ToLower(author)) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeRepo) AdjustStock(_ context.Context, id int64, delta int) (domain.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[id]
	if !ok {
		return domain.Book{}, domain.ErrBookNotFound
	}
	if b.Stock+delta < 0 {
		return domain.Book{}, &domain.InsufficientStockError{Available: b.Stock}
	}
	b.Stock += delta
	f.books[id] = b
	return b, nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.books[id]; !ok {
		return domain.ErrBookNotFound
	}
	delete(f.books, id)
	return nil
}

func (f *fakeRepo) Reserve(_ context.Context, bookID int64, quantity int, orderRef int64) (domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[bookID]
	if !ok {
		return domain.Reservation{}, domain.ErrBookNotFound
	}
	if b.Stock < quantity {
		return domain.Reservation{}, &domain.InsufficientStockError{Available: b.Stock}
	}
	b.Stock -= quantity
	f.books[bookID] = b
	res := domain.Reservation{
		ID:       uuid.NewString(),
		BookID:   bookID,
		Quantity: quantity,
		OrderRef: orderRef,
		Status:   domain.ReservationPending,
	}
	f.reservations[res.ID] = res
	return res, nil
}

func (f *fakeRepo) CommitReservation(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return domain.ErrReservationNotFound
	}
	res.Status = domain.ReservationCommitted
	f.reservations[id] = res
	return nil
}

func (f *fakeRepo) ReleaseReservation(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return domain.ErrReservationNotFound
	}
	switch res.Status {
	case domain.ReservationCommitted:
		return domain.ErrReservationCommitted
	case domain.ReservationReleased:
		return nil
	}
	b := f.books[res.BookID]
	b.Stock += res.Quantity
	f.books[res.BookID] = b
	res.Status = domain.ReservationReleased
	f.reservations[id] = res
	return nil
}

func newTestService(repo *fakeRepo) *Service {
	return NewService(logging.New("test"), repo)
}

func validInput() CreateBookInput {
	return CreateBookInput{
		Title:  "Clean Code",
		Author: "Robert C. Martin",
		ISBN:   "9780132350884",
		Price:  decimal.RequireFromString("39.99"),
		Stock:  10,
	}
}

func TestCreateBook(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc := newTestService(repo)

	b, err := svc.CreateBook(context.Background(), validInput())
	require.NoError(t, err)
	assert.NotZero(t, b.ID)
	assert.True(t, b.Price.Equal(decimal.RequireFromString("39.99")))

	_, err = svc.CreateBook(context.Background(), validInput())
	assert.ErrorIs(t, err, domain.ErrISBNExists)
}

func TestCreateBook_Validation(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeRepo())

	for name, tc := range map[string]struct {
		mutate func(*CreateBookInput)
		want   error
	}{
		"blank title":    {func(in *CreateBookInput) { in.Title = "" }, ErrTitleRequired},
		"blank author":   {func(in *CreateBookInput) { in.Author = "" }, ErrAuthorRequired},
		"negative price": {func(in *CreateBookInput) { in.Price = decimal.RequireFromString("-1") }, ErrNegativePrice},
		"negative stock": {func(in *CreateBookInput) { in.Stock = -1 }, ErrNegativeStock},
	} {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := svc.CreateBook(context.Background(), in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestReserveCommitRelease(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc := newTestService(repo)
	b, err := svc.CreateBook(context.Background(), validInput())
	require.NoError(t, err)

	res, err := svc.Reserve(context.Background(), b.ID, 3, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)

	got, err := svc.GetBook(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Stock, "reservation decrements stock immediately")

	require.NoError(t, svc.ReleaseReservation(context.Background(), res.ID))
	got, err = svc.GetBook(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock, "release restores stock")

	// A committed reservation cannot be released.
	res, err = svc.Reserve(context.Background(), b.ID, 2, 2)
	require.NoError(t, err)
	require.NoError(t, svc.CommitReservation(context.Background(), res.ID))
	err = svc.ReleaseReservation(context.Background(), res.ID)
	assert.ErrorIs(t, err, domain.ErrReservationCommitted)
}

func TestReserve_Validation(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc := newTestService(repo)
	b, err := svc.CreateBook(context.Background(), validInput())
	require.NoError(t, err)

	_, err = svc.Reserve(context.Background(), b.ID, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Reserve(context.Background(), b.ID, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidOrderRef)

	_, err = svc.Reserve(context.Background(), b.ID, 11, 1)
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 10, insufficient.Available)
}

func TestAdjustStock(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc := newTestService(repo)
	b, err := svc.CreateBook(context.Background(), validInput())
	require.NoError(t, err)

	got, err := svc.AdjustStock(context.Background(), b.ID, -4)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Stock)

	_, err = svc.AdjustStock(context.Background(), b.ID, -7)
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 6, insufficient.Available)
}

func TestSearchBooks(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc := newTestService(repo)

	in := validInput()
	_, err := svc.CreateBook(context.Background(), in)
	require.NoError(t, err)

	other := CreateBookInput{
		Title:  "The Go Programming Language",
		Author: "Donovan",
		ISBN:   "9780134190440",
		Price:  decimal.RequireFromString("44.95"),
		Stock:  3,
	}
	_, err = svc.CreateBook(context.Background(), other)
	require.NoError(t, err)

	found, err := svc.SearchBooks(context.Background(), "clean", "")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Clean Code", found[0].Title)

	found, err = svc.SearchBooks(context.Background(), "", "donovan")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "The Go Programming Language", found[0].Title)
}
