package requester

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brizzai/social-connect/internal/logger"
	"go.uber.org/zap"
)

// DefaultTimeout applies when no timeout is configured
const DefaultTimeout = 30 * time.Second

// HTTPRequester handles both request building and execution
type HTTPRequester struct {
	client *http.Client
}

// NewHTTPRequester creates a new HTTPRequester. A zero timeout selects DefaultTimeout.
func NewHTTPRequester(timeout time.Duration) *HTTPRequester {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPRequester{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Client returns the underlying HTTP client
func (r *HTTPRequester) Client() *http.Client {
	return r.client
}

// Do builds and executes req. Non-2xx statuses are returned as a Response, not an error.
func (r *HTTPRequester) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := BuildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	logger.Debug("outbound request",
		zap.String("method", httpReq.Method),
		zap.String("host", httpReq.URL.Host),
		zap.String("path", httpReq.URL.Path),
	)

	resp, err := r.execute(httpReq)
	if err != nil {
		logger.Error("failed to execute request", zap.String("path", httpReq.URL.Path), zap.Error(err))
		return nil, err
	}

	logger.Debug("outbound response",
		zap.String("path", httpReq.URL.Path),
		zap.Int("status", resp.StatusCode),
	)
	return resp, nil
}

// execute performs the actual HTTP request execution
func (r *HTTPRequester) execute(httpReq *http.Request) (*Response, error) {
	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Warn("failed to close response body", zap.Error(closeErr))
		}
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       bodyBytes,
		Headers:    resp.Header,
	}, nil
}
