package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mvelickovic/bookstore/internal/review/application"
	"github.com/mvelickovic/bookstore/internal/review/domain"
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
	r.Post("/api/reviews", h.createReview)
	r.Get("/api/reviews", h.listAllReviews)
	r.Get("/api/reviews/book/{bookId}", h.listByBook)
	r.Get("/api/reviews/book/{bookId}/average", h.averageRating)
	r.Get("/api/reviews/user/{userId}", h.listByUser)
	return r
}

type reviewResponse struct {
	ID        int64     `json:"id"`
	BookID    int64     `json:"bookId"`
	UserID    int64     `json:"userId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

func toResponse(rev domain.Review) reviewResponse {
	return reviewResponse{
		ID:        rev.ID,
		BookID:    rev.BookID,
		UserID:    rev.UserID,
		Rating:    rev.Rating,
		Comment:   rev.Comment,
		CreatedAt: rev.CreatedAt,
	}
}

type createReviewReq struct {
	BookID  int64  `json:"bookId"`
	UserID  int64  `json:"userId"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *Handler) createReview(w http.ResponseWriter, r *http.Request) {
	var req createReviewReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rev, err := h.service.CreateReview(r.Context(), application.CreateReviewInput{
		BookID:  req.BookID,
		UserID:  req.UserID,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(rev))
}

func (h *Handler) listByBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := strconv.ParseInt(chi.URLParam(r, "bookId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid book id")
		return
	}
	reviews, err := h.service.ListReviewsByBook(r.Context(), bookID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeReviewList(w, reviews)
}

func (h *Handler) listByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	reviews, err := h.service.ListReviewsByUser(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeReviewList(w, reviews)
}

func (h *Handler) listAllReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.ListAllReviews(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeReviewList(w, reviews)
}

func (h *Handler) averageRating(w http.ResponseWriter, r *http.Request) {
	bookID, err := strconv.ParseInt(chi.URLParam(r, "bookId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid book id")
		return
	}
	avg, err := h.service.AverageRating(r.Context(), bookID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"averageRating": avg})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBookNotFound),
		errors.Is(err, domain.ErrReviewNotFound),
		errors.Is(err, domain.ErrNotEligible),
		errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrEmptyComment),
		errors.Is(err, domain.ErrCommentTooLong):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("review request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeReviewList(w http.ResponseWriter, reviews []domain.Review) {
	out := make([]reviewResponse, 0, len(reviews))
	for _, rev := range reviews {
		out = append(out, toResponse(rev))
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
