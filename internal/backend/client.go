package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"newsletter_dashboard/internal/models"
)

// ErrStatus is wrapped by every error caused by a non-2xx backend response.
var ErrStatus = errors.New("unexpected backend status")

// Client talks to the newsletter backend over its JSON HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for baseURL with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// ListNewsletters fetches the full newsletter collection.
func (c *Client) ListNewsletters(ctx context.Context) ([]models.Newsletter, error) {
	var out []models.Newsletter
	if err := c.do(ctx, http.MethodGet, "/api/newsletters", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRecommendations fetches the full recommendation collection.
func (c *Client) ListRecommendations(ctx context.Context) ([]models.Recommendation, error) {
	var out []models.Recommendation
	if err := c.do(ctx, http.MethodGet, "/api/recommendations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteNewsletter asks the backend to remove one newsletter. Only the
// status code matters; the body is ignored.
func (c *Client) DeleteNewsletter(ctx context.Context, id models.ID) error {
	return c.do(ctx, http.MethodDelete, "/api/newsletters/"+url.PathEscape(id.String()), nil, nil)
}

// CreateNewsletter submits the add form and returns the stored record.
func (c *Client) CreateNewsletter(ctx context.Context, n models.NewNewsletter) (*models.Newsletter, error) {
	body, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	var out models.Newsletter
	if err := c.do(ctx, http.MethodPost, "/api/newsletters", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s %s: %w: %d", method, path, ErrStatus, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
