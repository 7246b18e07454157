package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"precificador/internal/logging"
)

const maxBodyBytes = 4 << 20

// NewClient returns an HTTP client bounded by timeout (defaults to 10s).
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// GetJSON issues a GET and returns the raw body and status code. Non-2xx
// statuses are returned without an error so callers can tell "absent" statuses
// (404) apart from failures; network and read errors are returned as errors.
func GetJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, logger *zap.Logger) ([]byte, int, error) {
	logger = logging.OrNop(logger)
	if client == nil {
		client = NewClient(0)
	}
	reqID := uuid.New().String()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	logger.Debug("http.request", zap.String("req_id", reqID), zap.String("url", url))
	resp, err := client.Do(req)
	if err != nil {
		logger.Warn("http.send_error", zap.String("req_id", reqID), zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, 0, err
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logger.Warn("http.response_body_close_error", zap.String("req_id", reqID), zap.Error(err))
		}
	}(resp.Body)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	logger.Debug("http.response",
		zap.String("req_id", reqID),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(raw)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return raw, resp.StatusCode, nil
}
