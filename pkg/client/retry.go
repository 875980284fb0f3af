package client

import (
	"context"
	"encoding/json"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/splice/pkg/llm"
)

// RetryPolicy controls whole-request retries. Retries only ever re-issue
// a request that has not delivered a response body: a stream that fails
// mid-flight is not reconnected.
type RetryPolicy struct {
	// MaxRetries is the number of re-issues after the initial attempt.
	MaxRetries uint

	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryPolicy retries twice with a short exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     2,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
	}
}

// backoff returns the sleep before retry n, doubled from InitialBackoff
// and capped at MaxBackoff. Jitter spreads concurrent retries apart.
func (p RetryPolicy) backoff(attempt uint) time.Duration {
	d := p.MaxBackoff
	if attempt < 16 {
		if doubled := p.InitialBackoff << attempt; doubled < d {
			d = doubled
		}
	}
	if d <= 0 {
		return 0
	}
	return d/2 + rand.N(d/2+1)
}

// retryableStatus reports whether a status code indicates a transient
// server condition worth re-issuing the request for.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// do issues the request, retrying transport errors and retryable
// statuses per the client's policy. On success the response is returned
// with its body open; the caller owns it. On a non-2xx status the body
// has been consumed and the error is a *llm.APIError.
func (c *Client) do(ctx context.Context, body []byte, accept string) (*http.Response, error) {
	var lastErr error

	for attempt := uint(0); ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		httpReq, err := c.newRequest(ctx, body, accept)
		if err != nil {
			return nil, err
		}

		c.logger.Debug("sending request",
			zap.String("url", httpReq.URL.String()),
			zap.Uint("attempt", attempt),
		)

		httpResp, err := c.httpClient.Do(httpReq)
		if err != nil {
			// Context failures are final regardless of policy.
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if attempt >= c.retry.MaxRetries {
				return nil, lastErr
			}
			if !c.wait(ctx, c.retry.backoff(attempt), attempt, err) {
				return nil, ctx.Err()
			}
			continue
		}

		if httpResp.StatusCode >= 200 && httpResp.StatusCode < 300 {
			return httpResp, nil
		}

		respBody, _ := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		apiErr := decodeAPIError(httpResp.StatusCode, respBody)
		lastErr = apiErr

		if !retryableStatus(httpResp.StatusCode) || attempt >= c.retry.MaxRetries {
			return nil, lastErr
		}

		delay := c.retry.backoff(attempt)
		if after, ok := parseRetryAfter(httpResp.Header.Get("Retry-After")); ok {
			delay = min(after, c.retry.MaxBackoff)
		}
		if !c.wait(ctx, delay, attempt, apiErr) {
			return nil, ctx.Err()
		}
	}
}

// wait sleeps for delay or until the context is done, reporting whether
// the retry should proceed.
func (c *Client) wait(ctx context.Context, delay time.Duration, attempt uint, cause error) bool {
	c.logger.Warn("request failed, retrying",
		zap.Uint("attempt", attempt),
		zap.Duration("backoff", delay),
		zap.Error(cause),
	)

	select {
	case <-ctx.Done():
		return false
	case <-time.After(delay):
		return true
	}
}

// parseRetryAfter interprets a Retry-After header, either delay seconds
// or an HTTP date.
func parseRetryAfter(h string) (time.Duration, bool) {
	h = strings.TrimSpace(h)
	if h == "" {
		return 0, false
	}

	if secs, err := strconv.Atoi(h); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}

	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d, true
		}
		return 0, true
	}

	return 0, false
}

// decodeAPIError builds an *llm.APIError from an error response body,
// falling back to the raw body text when it is not the standard error
// envelope.
func decodeAPIError(statusCode int, body []byte) *llm.APIError {
	var envelope llm.ErrorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		envelope.Error.StatusCode = statusCode
		return envelope.Error
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(statusCode)
	}
	return &llm.APIError{
		StatusCode: statusCode,
		Message:    msg,
	}
}
