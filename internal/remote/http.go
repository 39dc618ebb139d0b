package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dkazakov/paysync/internal/common"
	"github.com/dkazakov/paysync/internal/models"
)

// HTTPClient talks JSON over HTTP to the remote payment store.
type HTTPClient struct {
	baseURL     string
	http        *http.Client
	tokenSource TokenSource

	callTimeout time.Duration
	maxRetries  uint64
	backoffMin  time.Duration
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithCallTimeout overrides the per-call timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.callTimeout = d }
}

// WithRetry overrides the transient-failure retry policy.
func WithRetry(maxRetries uint64, backoffMin time.Duration) Option {
	return func(c *HTTPClient) { c.maxRetries = maxRetries; c.backoffMin = backoffMin }
}

// WithHTTPClient substitutes the underlying http.Client (tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *HTTPClient) { c.http = h }
}

// NewHTTPClient builds a client for the store at baseURL. tokenSource supplies
// the bearer token for each call; it may be nil for unauthenticated endpoints
// only.
func NewHTTPClient(baseURL string, tokenSource TokenSource, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:     baseURL,
		http:        &http.Client{},
		tokenSource: tokenSource,
		callTimeout: 15 * time.Second,
		maxRetries:  2,
		backoffMin:  500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// do runs one authenticated request with per-call timeout and bounded
// fibonacci backoff on transient failures.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewFibonacci(c.backoffMin))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
		defer cancel()

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.tokenSource != nil {
			token, err := c.tokenSource(ctx)
			if err != nil {
				return err
			}
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			// network-level failure, worth another attempt
			return retry.RetryableError(common.ErrUnavailable)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return common.ErrUnauthorized
		case resp.StatusCode == http.StatusNotFound:
			return common.ErrNotFound
		case resp.StatusCode >= 500:
			return retry.RetryableError(common.ErrUnavailable)
		case resp.StatusCode >= 400:
			b, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("remote rejected request: %s: %s", resp.Status, string(b))
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return nil
	})
}

func ownersPath(ownerID string) string {
	return "/v1/owners/" + url.PathEscape(ownerID) + "/payments"
}

func (c *HTTPClient) FetchAll(ctx context.Context, ownerID string) ([]models.Payment, error) {
	var dtos []paymentDTO
	if err := c.do(ctx, http.MethodGet, ownersPath(ownerID), nil, &dtos); err != nil {
		return nil, err
	}
	result := make([]models.Payment, 0, len(dtos))
	for _, d := range dtos {
		result = append(result, fromDTO(d))
	}
	return result, nil
}

func (c *HTTPClient) UpsertAll(ctx context.Context, ownerID string, records []models.Payment) error {
	dtos := make([]paymentDTO, 0, len(records))
	for i := range records {
		dtos = append(dtos, toDTO(&records[i]))
	}
	return c.do(ctx, http.MethodPut, ownersPath(ownerID), dtos, nil)
}

func (c *HTTPClient) Delete(ctx context.Context, ownerID string, id string) error {
	return c.do(ctx, http.MethodDelete, ownersPath(ownerID)+"/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/v1/ping", nil, nil)
}

func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	req := map[string]string{"refresh_token": refreshToken}
	var pair TokenPair
	if err := c.do(ctx, http.MethodPost, "/v1/auth/refresh", req, &pair); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}
