package domain

import (
	"errors"
	"time"
)

var (
	ErrReviewNotFound = errors.New("review not found")
	ErrBookNotFound   = errors.New("book not found")
	ErrNotEligible    = errors.New("user has not purchased this book")
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
	ErrEmptyComment   = errors.New("comment must not be blank")
	ErrCommentTooLong = errors.New("comment must be at most 1000 characters")
)

type Review struct {
	ID        int64
	BookID    int64
	UserID    int64
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// Eligibility records that a user bought a book and may now review it.
// Written by the order-event consumer; redelivery of the same event is a
// no-op.
type Eligibility struct {
	UserID    int64
	BookID    int64
	OrderID   int64
	BookTitle string
	CreatedAt time.Time
}
