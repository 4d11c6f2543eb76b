package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mvelickovic/bookstore/internal/order/domain"
)

// Identity is the JSON-over-HTTP accessor to the user directory. The base
// URL is fixed at construction time.
type Identity struct {
	log  *slog.Logger
	base string
	http *http.Client
}

func NewIdentity(log *slog.Logger, baseURL string) *Identity {
	return &Identity{
		log:  log,
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Identity) Exists(ctx context.Context, userID int64) (bool, error) {
	url := fmt.Sprintf("%s/api/users/%d", c.base, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrIdentityUnavailable, err)
	}
	defer drain(resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusBadRequest:
		return false, nil
	default:
		return false, fmt.Errorf("%w: status %d", domain.ErrIdentityUnavailable, resp.StatusCode)
	}
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
