package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvelickovic/bookstore/internal/order/application"
	"github.com/mvelickovic/bookstore/internal/order/domain"
	"github.com/mvelickovic/bookstore/pkg/logging"
	"github.com/mvelickovic/bookstore/pkg/outbox"
)

type stubRepo struct {
	orders map[int64]domain.Order
	nextID int64
}

func (s *stubRepo) Create(_ context.Context, o *domain.Order) error {
	s.nextID++
	o.ID = s.nextID
	s.orders[o.ID] = *o
	return nil
}

func (s *stubRepo) UpdateStatus(_ context.Context, id int64, status domain.OrderStatus) error {
	o, ok := s.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	s.orders[id] = o
	return nil
}

func (s *stubRepo) ConfirmWithOutbox(_ context.Context, id int64, _ []outbox.Entry) error {
	o := s.orders[id]
	o.Status = domain.StatusConfirmed
	s.orders[id] = o
	return nil
}

func (s *stubRepo) Get(_ context.Context, id int64) (domain.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o, nil
}

func (s *stubRepo) ListByUser(_ context.Context, userID int64) ([]domain.Order, error) {
	out := []domain.Order{}
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubRepo) ListAll(_ context.Context) ([]domain.Order, error) {
	out := []domain.Order{}
	for _, o := range s.orders {
		out = append(out, o)
	}
	return out, nil
}

type stubIdentity struct {
	users map[int64]bool
	err   error
}

func (s *stubIdentity) Exists(_ context.Context, userID int64) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.users[userID], nil
}

type stubCatalog struct {
	books map[int64]application.CatalogBook
}

func (s *stubCatalog) GetBook(_ context.Context, bookID int64) (application.CatalogBook, error) {
	b, ok := s.books[bookID]
	if !ok {
		return application.CatalogBook{}, domain.ErrBookNotFound
	}
	return b, nil
}

func (s *stubCatalog) ReserveStock(_ context.Context, bookID int64, quantity int, _ int64) (application.StockReservation, error) {
	b := s.books[bookID]
	if b.Stock < quantity {
		return application.StockReservation{}, &domain.InsufficientStockError{Available: b.Stock}
	}
	b.Stock -= quantity
	s.books[bookID] = b
	return application.StockReservation{ID: "res-1"}, nil
}

func (s *stubCatalog) CommitStock(context.Context, string) error  { return nil }
func (s *stubCatalog) ReleaseStock(context.Context, string) error { return nil }

func newTestServer(identity *stubIdentity, catalog *stubCatalog) *httptest.Server {
	log := logging.New("test")
	repo := &stubRepo{orders: map[int64]domain.Order{}}
	svc := application.NewService(log, repo, identity, catalog)
	return httptest.NewServer(NewHandler(log, svc).Routes())
}

func defaultFixtures() (*stubIdentity, *stubCatalog) {
	identity := &stubIdentity{users: map[int64]bool{10: true}}
	catalog := &stubCatalog{books: map[int64]application.CatalogBook{
		5: {ID: 5, Title: "Clean Code", Price: decimal.RequireFromString("39.99"), Stock: 10},
	}}
	return identity, catalog
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func jsonDecode(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, jsonDecode(resp.Body, &out))
	return out
}

func TestCreateOrderEndpoint(t *testing.T) {
	t.Parallel()

	identity, catalog := defaultFixtures()
	srv := newTestServer(identity, catalog)
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/orders", `{"userId":10,"bookId":5,"quantity":2}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "confirmed", body["status"])
	assert.Equal(t, "79.98", body["totalPrice"])
	assert.EqualValues(t, 10, body["userId"])
	assert.EqualValues(t, 5, body["bookId"])
	assert.EqualValues(t, 2, body["quantity"])
	assert.NotZero(t, body["id"])
}

func TestCreateOrderEndpoint_FieldValidation(t *testing.T) {
	t.Parallel()

	identity, catalog := defaultFixtures()
	srv := newTestServer(identity, catalog)
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/orders", `{"userId":0,"bookId":-1,"quantity":0}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	errs, ok := body["errors"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, errs, "userId")
	assert.Contains(t, errs, "bookId")
	assert.Contains(t, errs, "quantity")
}

func TestCreateOrderEndpoint_MalformedBody(t *testing.T) {
	t.Parallel()

	identity, catalog := defaultFixtures()
	srv := newTestServer(identity, catalog)
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/orders", `{not json`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateOrderEndpoint_ErrorMapping(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		body       string
		identity   *stubIdentity
		wantStatus int
	}{
		"unknown user": {
			body:       `{"userId":99,"bookId":5,"quantity":1}`,
			identity:   &stubIdentity{users: map[int64]bool{10: true}},
			wantStatus: http.StatusBadRequest,
		},
		"unknown book": {
			body:       `{"userId":10,"bookId":404,"quantity":1}`,
			identity:   &stubIdentity{users: map[int64]bool{10: true}},
			wantStatus: http.StatusBadRequest,
		},
		"identity outage": {
			body:       `{"userId":10,"bookId":5,"quantity":1}`,
			identity:   &stubIdentity{err: domain.ErrIdentityUnavailable},
			wantStatus: http.StatusServiceUnavailable,
		},
	} {
		t.Run(name, func(t *testing.T) {
			_, catalog := defaultFixtures()
			srv := newTestServer(tc.identity, catalog)
			defer srv.Close()

			resp := postJSON(t, srv.URL+"/api/orders", tc.body)
			defer resp.Body.Close()
			assert.Equal(t, tc.wantStatus, resp.StatusCode)
		})
	}
}

func TestCreateOrderEndpoint_InsufficientStock(t *testing.T) {
	t.Parallel()

	identity, catalog := defaultFixtures()
	b := catalog.books[5]
	b.Stock = 1
	catalog.books[5] = b
	srv := newTestServer(identity, catalog)
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/orders", `{"userId":10,"bookId":5,"quantity":2}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.EqualValues(t, 1, body["available"])
}

func TestGetOrderEndpoint(t *testing.T) {
	t.Parallel()

	identity, catalog := defaultFixtures()
	srv := newTestServer(identity, catalog)
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/orders", `{"userId":10,"bookId":5,"quantity":1}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/api/orders/1")
	require.NoError(t, err)
	body := decodeBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["id"])

	// Unknown ids keep the historical 400 contract.
	resp, err = http.Get(srv.URL + "/api/orders/999")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListEndpoints(t *testing.T) {
	t.Parallel()

	identity, catalog := defaultFixtures()
	srv := newTestServer(identity, catalog)
	defer srv.Close()

	for _, path := range []string{"/api/orders", "/api/orders/user/10"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var out []map[string]any
		require.NoError(t, jsonDecode(resp.Body, &out))
		assert.Empty(t, out, "empty list, not null or an error")
	}
}
