package application

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvelickovic/bookstore/internal/review/domain"
	"github.com/mvelickovic/bookstore/pkg/logging"
)

type eligibilityKey struct {
	userID, bookID, orderID int64
}

type fakeRepo struct {
	mu          sync.Mutex
	reviews     []domain.Review
	nextID      int64
	eligibility map[eligibilityKey]domain.Eligibility
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{eligibility: map[eligibilityKey]domain.Eligibility{}}
}

func (f *fakeRepo) Create(_ context.Context, rev *domain.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	rev.ID = f.nextID
	f.reviews = append(f.reviews, *rev)
	return nil
}

func (f *fakeRepo) ListByBook(_ context.Context, bookID int64) ([]domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Review{}
	for _, r := range f.reviews {
		if r.BookID == bookID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListByUser(_ context.Context, userID int64) ([]domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Review{}
	for _, r := range f.reviews {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListAll(_ context.Context) ([]domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Review{}, f.reviews...), nil
}

func (f *fakeRepo) AverageRating(_ context.Context, bookID int64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum, n int
	for _, r := range f.reviews {
		if r.BookID == bookID {
			sum += r.Rating
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

func (f *fakeRepo) UpsertEligibility(_ context.Context, e domain.Eligibility) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := eligibilityKey{e.UserID, e.BookID, e.OrderID}
	if _, ok := f.eligibility[k]; ok {
		return nil
	}
	f.eligibility[k] = e
	return nil
}

func (f *fakeRepo) IsEligible(_ context.Context, userID, bookID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k := range f.eligibility {
		if k.userID == userID && k.bookID == bookID {
			return true, nil
		}
	}
	return false, nil
}

type fakeCatalog struct {
	books map[int64]bool
}

func (f *fakeCatalog) BookExists(_ context.Context, bookID int64) (bool, error) {
	return f.books[bookID], nil
}

func newTestService(repo *fakeRepo) *Service {
	return NewService(logging.New("test"), repo, &fakeCatalog{books: map[int64]bool{5: true}})
}

func TestCreateReview_RequiresPurchase(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc := newTestService(repo)
	in := CreateReviewInput{BookID: 5, UserID: 10, Rating: 4, Comment: "solid read"}

	_, err := svc.CreateReview(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrNotEligible)

	require.NoError(t, svc.MarkEligible(context.Background(), 10, 5, 1, "Clean Code"))

	rev, err := svc.CreateReview(context.Background(), in)
	require.NoError(t, err)
	assert.NotZero(t, rev.ID)
	assert.Equal(t, 4, rev.Rating)
}

func TestCreateReview_Validation(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeRepo())
	base := CreateReviewInput{BookID: 5, UserID: 10, Rating: 4, Comment: "fine"}

	for name, tc := range map[string]struct {
		mutate func(*CreateReviewInput)
		want   error
	}{
		"rating too low":   {func(in *CreateReviewInput) { in.Rating = 0 }, domain.ErrInvalidRating},
		"rating too high":  {func(in *CreateReviewInput) { in.Rating = 6 }, domain.ErrInvalidRating},
		"blank comment":    {func(in *CreateReviewInput) { in.Comment = "   " }, domain.ErrEmptyComment},
		"comment too long": {func(in *CreateReviewInput) { in.Comment = strings.Repeat("x", 1001) }, domain.ErrCommentTooLong},
		"unknown book":     {func(in *CreateReviewInput) { in.BookID = 404 }, domain.ErrBookNotFound},
	} {
		t.Run(name, func(t *testing.T) {
			in := base
			tc.mutate(&in)
			_, err := svc.CreateReview(context.Background(), in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

// Redelivering the same order event must not change state or fail.
func TestMarkEligible_Idempotent(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc := newTestService(repo)

	require.NoError(t, svc.MarkEligible(context.Background(), 10, 5, 1, "Clean Code"))
	require.NoError(t, svc.MarkEligible(context.Background(), 10, 5, 1, "Clean Code"))

	assert.Len(t, repo.eligibility, 1)

	eligible, err := repo.IsEligible(context.Background(), 10, 5)
	require.NoError(t, err)
	assert.True(t, eligible)
}

func TestAverageRating(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc := newTestService(repo)
	require.NoError(t, svc.MarkEligible(context.Background(), 10, 5, 1, "Clean Code"))
	require.NoError(t, svc.MarkEligible(context.Background(), 11, 5, 2, "Clean Code"))

	for _, in := range []CreateReviewInput{
		{BookID: 5, UserID: 10, Rating: 5, Comment: "great"},
		{BookID: 5, UserID: 11, Rating: 2, Comment: "meh"},
	} {
		_, err := svc.CreateReview(context.Background(), in)
		require.NoError(t, err)
	}

	avg, err := svc.AverageRating(context.Background(), 5)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, avg, 0.0001)

	avg, err = svc.AverageRating(context.Background(), 404)
	require.NoError(t, err)
	assert.Zero(t, avg, "no reviews yields zero, not an error")
}
