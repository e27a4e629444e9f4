package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rickgao/midl-pulse/internal/model"
)

// APIError represents an error response from the pulse API.
type APIError struct {
	StatusCode int
	Message    string // ErrorBody.Error when present, else the status text
	Body       []byte
	RetryAfter time.Duration // from the Retry-After header on 429/503
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pulse api error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// newAPIError decodes a pulse error response.
func newAPIError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
		Body:       body,
	}
	var eb model.ErrorBody
	if json.Unmarshal(body, &eb) == nil && eb.Error != "" {
		apiErr.Message = eb.Error
	}
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		apiErr.RetryAfter = time.Duration(secs) * time.Second
	}
	return apiErr
}

// doRequest performs one HTTP request with the given method and path.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, newAPIError(resp, body)
	}
	return body, nil
}

// retryWait returns the jittered backoff for a retry, stretched to the
// server's Retry-After when that is longer.
func retryWait(backoff time.Duration, apiErr *APIError) time.Duration {
	var wait time.Duration
	if backoff > 0 {
		// backoff * [0.5, 1.5)
		wait = backoff/2 + time.Duration(rand.Int64N(int64(backoff)))
	}
	if apiErr.RetryAfter > wait {
		wait = apiErr.RetryAfter
	}
	return wait
}

// doWithRetry performs a request, retrying 5xx and 429 responses with
// exponential backoff. Other failures return immediately.
func (c *Client) doWithRetry(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	backoff := c.retryBackoff

	for attempt := 0; ; attempt++ {
		body, err := c.doRequest(ctx, method, path, query)
		if err == nil {
			return body, nil
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.IsRetryable() {
			return nil, err
		}
		if attempt >= c.maxRetries {
			return nil, fmt.Errorf("max retries exceeded: %w", err)
		}

		wait := retryWait(backoff, apiErr)
		c.logger.Debug("retrying request",
			"attempt", attempt+1,
			"status", apiErr.StatusCode,
			"wait", wait,
			"path", path,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		backoff *= 2
	}
}

// get performs a GET request with retries and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, query url.Values, result any) error {
	body, err := c.doWithRetry(ctx, http.MethodGet, path, query)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
