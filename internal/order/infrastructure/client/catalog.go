package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mvelickovic/bookstore/internal/order/application"
	"github.com/mvelickovic/bookstore/internal/order/domain"
)

// Catalog is the JSON-over-HTTP accessor to the book service, including the
// reserve/commit/release trio that replaced the unguarded stock decrement.
type Catalog struct {
	log  *slog.Logger
	base string
	http *http.Client
}

func NewCatalog(log *slog.Logger, baseURL string) *Catalog {
	return &Catalog{
		log:  log,
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Catalog) GetBook(ctx context.Context, bookID int64) (application.CatalogBook, error) {
	url := fmt.Sprintf("%s/api/books/%d", c.base, bookID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return application.CatalogBook{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return application.CatalogBook{}, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	defer drain(resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		var body struct {
			ID    int64           `json:"id"`
			Title string          `json:"title"`
			Price decimal.Decimal `json:"price"`
			Stock int             `json:"stock"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return application.CatalogBook{}, fmt.Errorf("%w: decode: %v", domain.ErrCatalogUnavailable, err)
		}
		return application.CatalogBook{ID: body.ID, Title: body.Title, Price: body.Price, Stock: body.Stock}, nil
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusBadRequest:
		return application.CatalogBook{}, domain.ErrBookNotFound
	default:
		return application.CatalogBook{}, fmt.Errorf("%w: status %d", domain.ErrCatalogUnavailable, resp.StatusCode)
	}
}

func (c *Catalog) ReserveStock(ctx context.Context, bookID int64, quantity int, orderRef int64) (application.StockReservation, error) {
	url := fmt.Sprintf("%s/api/books/%d/reservations", c.base, bookID)
	payload, err := json.Marshal(map[string]any{"quantity": quantity, "orderRef": orderRef})
	if err != nil {
		return application.StockReservation{}, err
	}
	resp, err := c.post(ctx, url, payload)
	if err != nil {
		return application.StockReservation{}, err
	}
	defer drain(resp.Body)

	switch {
	case resp.StatusCode == http.StatusCreated:
		var body struct {
			ReservationID string `json:"reservationId"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return application.StockReservation{}, fmt.Errorf("%w: decode: %v", domain.ErrCatalogUnavailable, err)
		}
		return application.StockReservation{ID: body.ReservationID}, nil
	case resp.StatusCode == http.StatusConflict:
		var body struct {
			Available int `json:"available"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return application.StockReservation{}, fmt.Errorf("%w: decode: %v", domain.ErrCatalogUnavailable, err)
		}
		return application.StockReservation{}, &domain.InsufficientStockError{Available: body.Available}
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusBadRequest:
		return application.StockReservation{}, domain.ErrBookNotFound
	default:
		return application.StockReservation{}, fmt.Errorf("%w: status %d", domain.ErrCatalogUnavailable, resp.StatusCode)
	}
}

func (c *Catalog) CommitStock(ctx context.Context, reservationID string) error {
	return c.reservationOp(ctx, reservationID, "commit")
}

func (c *Catalog) ReleaseStock(ctx context.Context, reservationID string) error {
	return c.reservationOp(ctx, reservationID, "release")
}

func (c *Catalog) reservationOp(ctx context.Context, reservationID, op string) error {
	url := fmt.Sprintf("%s/api/reservations/%s/%s", c.base, reservationID, op)
	resp, err := c.post(ctx, url, nil)
	if err != nil {
		return err
	}
	defer drain(resp.Body)

	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusOK {
		return nil
	}
	return fmt.Errorf("%w: %s reservation %s: status %d", domain.ErrCatalogUnavailable, op, reservationID, resp.StatusCode)
}

func (c *Catalog) post(ctx context.Context, url string, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	return resp, nil
}
