package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Catalog answers only the question the review service has for the book
// service: does this book exist.
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

func (c *Catalog) BookExists(ctx context.Context, bookID int64) (bool, error) {
	url := fmt.Sprintf("%s/api/books/%d", c.base, bookID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("catalog unavailable: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusBadRequest:
		return false, nil
	default:
		return false, fmt.Errorf("catalog unavailable: status %d", resp.StatusCode)
	}
}
