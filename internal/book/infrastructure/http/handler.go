package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mvelickovic/bookstore/internal/book/application"
	"github.com/mvelickovic/bookstore/internal/book/domain"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/api/books", h.createBook)
	r.Get("/api/books", h.listBooks)
	r.Get("/api/books/search", h.searchBooks)
	r.Get("/api/books/{id}", h.getBook)
	r.Patch("/api/books/{id}/stock", h.adjustStock)
	r.Delete("/api/books/{id}", h.deleteBook)
	r.Post("/api/books/{id}/reservations", h.reserveStock)
	r.Post("/api/reservations/{id}/commit", h.commitReservation)
	r.Post("/api/reservations/{id}/release", h.releaseReservation)
	return r
}

type bookResponse struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	ISBN        string          `json:"isbn,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func toResponse(b domain.Book) bookResponse {
	return bookResponse{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		ISBN:        b.ISBN,
		Price:       b.Price,
		Stock:       b.Stock,
		Description: b.Description,
		CreatedAt:   b.CreatedAt,
	}
}

type createBookReq struct {
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	ISBN        string          `json:"isbn"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Description string          `json:"description"`
}

func (h *Handler) createBook(w http.ResponseWriter, r *http.Request) {
	var req createBookReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	b, err := h.service.CreateBook(r.Context(), application.CreateBookInput{
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		Price:       req.Price,
		Stock:       req.Stock,
		Description: req.Description,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(b))
}

func (h *Handler) getBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(b))
}

func (h *Handler) listBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListBooks(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeBookList(w, books)
}

func (h *Handler) searchBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.SearchBooks(r.Context(), r.URL.Query().Get("title"), r.URL.Query().Get("author"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeBookList(w, books)
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	delta, err := strconv.Atoi(r.URL.Query().Get("delta"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "delta must be an integer")
		return
	}
	b, err := h.service.AdjustStock(r.Context(), id, delta)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(b))
}

func (h *Handler) deleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteBook(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reserveReq struct {
	Quantity int   `json:"quantity"`
	OrderRef int64 `json:"orderRef"`
}

func (h *Handler) reserveStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req reserveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.service.Reserve(r.Context(), id, req.Quantity, req.OrderRef)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"reservationId": res.ID})
}

func (h *Handler) commitReservation(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CommitReservation(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) releaseReservation(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ReleaseReservation(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var insufficient *domain.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     insufficient.Error(),
			"available": insufficient.Available,
		})
	case errors.Is(err, domain.ErrBookNotFound),
		errors.Is(err, domain.ErrReservationNotFound),
		errors.Is(err, domain.ErrReservationCommitted),
		errors.Is(err, domain.ErrISBNExists),
		errors.Is(err, application.ErrTitleRequired),
		errors.Is(err, application.ErrAuthorRequired),
		errors.Is(err, application.ErrNegativePrice),
		errors.Is(err, application.ErrNegativeStock),
		errors.Is(err, application.ErrInvalidQuantity),
		errors.Is(err, application.ErrInvalidOrderRef):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("book request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeBookList(w http.ResponseWriter, books []domain.Book) {
	out := make([]bookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, toResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
