package domain

import "github.com/shopspring/decimal"

// OrderConfirmed is the wire payload announcing a confirmed order. Every
// field is a snapshot taken at confirmation time; consumers need no further
// synchronous lookup.
type OrderConfirmed struct {
	OrderID    int64           `json:"orderId"`
	UserID     int64           `json:"userId"`
	BookID     int64           `json:"bookId"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	BookTitle  string          `json:"bookTitle"`
}
