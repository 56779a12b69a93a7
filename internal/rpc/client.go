package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// Client is an HTTP JSON-RPC client with exponential backoff on transport
// failures.
type Client struct {
	url        string
	httpClient *http.Client
	maxRetries int
	nextID     atomic.Uint64
}

// ClientConfig configures a Client.
type ClientConfig struct {
	URL        string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client // optional, overrides Timeout
}

func NewClient(cfg ClientConfig) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		url:        cfg.URL,
		httpClient: hc,
		maxRetries: cfg.MaxRetries,
	}
}

// URL returns the endpoint the client posts to.
func (c *Client) URL() string { return c.url }

// Call executes a JSON-RPC call. Transport failures are retried with a
// 100ms, 200ms, 400ms... backoff; HTTP status and RPC errors are not.
func (c *Client) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	body, err := json.Marshal(newRequest(c.nextID.Add(1), method, params))
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		resp, err := c.doRequest(ctx, body)
		if err == nil {
			if resp.Error != nil {
				return nil, resp.Error
			}
			return resp.Result, nil
		}

		lastErr = err
		if !retryable(err) {
			return nil, err
		}

		if attempt < c.maxRetries {
			backoff := time.Duration(1<<attempt) * 100 * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) doRequest(ctx context.Context, body []byte) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &StatusError{Code: httpResp.StatusCode, Status: httpResp.Status}
	}

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	var resp Response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, &decodeError{err: err}
	}
	return &resp, nil
}

type decodeError struct{ err error }

func (e *decodeError) Error() string { return fmt.Sprintf("invalid JSON response: %v", e.err) }
func (e *decodeError) Unwrap() error { return e.err }

func retryable(err error) bool {
	var se *StatusError
	var de *decodeError
	switch {
	case errors.As(err, &se), errors.As(err, &de):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
