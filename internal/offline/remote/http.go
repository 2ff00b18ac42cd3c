package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Arwen-Digital/SermonSpark-sub003/internal/common"
	"github.com/sethvargo/go-retry"
)

// HTTPClient implements Client against a JSON-over-HTTP backend. Requests
// carry a bearer token; transient failures (network errors, 5xx) are retried
// with fibonacci backoff, everything else maps straight to sentinel errors.
type HTTPClient struct {
	baseURL       string
	token         string
	http          *http.Client
	retryAttempts uint64
}

// NewHTTPClient returns a client for the backend at baseURL. timeout applies
// per request attempt; retryAttempts bounds the additional attempts made for
// retryable failures.
func NewHTTPClient(baseURL, token string, timeout time.Duration, retryAttempts uint64) *HTTPClient {
	return &HTTPClient{
		baseURL:       baseURL,
		token:         token,
		http:          &http.Client{Timeout: timeout},
		retryAttempts: retryAttempts,
	}
}

// SetToken replaces the bearer token, e.g. after the user signs in.
func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

// statusError carries a non-2xx response through the retry loop.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.code, e.body)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	backoff := retry.WithMaxRetries(c.retryAttempts, retry.NewFibonacci(200*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
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
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			// transport-level failure, worth retrying
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return retry.RetryableError(&statusError{code: resp.StatusCode, body: string(b)})
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return &statusError{code: resp.StatusCode, body: string(b)}
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return nil
	})

	return c.mapError(err)
}

// mapError translates transport results into the sentinel errors callers
// match on.
func (c *HTTPClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	var se *statusError
	if errors.As(err, &se) {
		switch {
		case se.code == http.StatusUnauthorized || se.code == http.StatusForbidden:
			return common.ErrUnauthorized
		case se.code == http.StatusNotFound:
			return common.ErrNotFound
		case se.code >= 500:
			return fmt.Errorf("%w: %v", common.ErrUnavailable, se)
		default:
			return se
		}
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, ue)
	}
	return err
}

func (c *HTTPClient) Me(ctx context.Context) (*User, error) {
	var resp struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, common.ErrUnauthorized
	}
	return resp.User, nil
}

func (c *HTTPClient) ListSeries(ctx context.Context) ([]*SeriesRecord, error) {
	var out []*SeriesRecord
	if err := c.do(ctx, http.MethodGet, "/series", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) PushSeries(ctx context.Context, rec *SeriesRecord) error {
	return c.do(ctx, http.MethodPut, "/series/"+url.PathEscape(rec.ID), rec, nil)
}

func (c *HTTPClient) DeleteSeries(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/series/"+url.PathEscape(id), nil, nil)
	if errors.Is(err, common.ErrNotFound) {
		// the server never saw this row; the delete is already satisfied
		return nil
	}
	return err
}

func (c *HTTPClient) ListSermons(ctx context.Context) ([]*SermonRecord, error) {
	var out []*SermonRecord
	if err := c.do(ctx, http.MethodGet, "/sermons", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) PushSermon(ctx context.Context, rec *SermonRecord) error {
	return c.do(ctx, http.MethodPut, "/sermons/"+url.PathEscape(rec.ID), rec, nil)
}

func (c *HTTPClient) DeleteSermon(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/sermons/"+url.PathEscape(id), nil, nil)
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	return err
}

func (c *HTTPClient) LinkOfflineData(ctx context.Context, req LinkRequest) error {
	return c.do(ctx, http.MethodPost, "/offline/link", req, nil)
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
