// Package search adapts an HTTP price/marketplace search index to the
// SearchIndex port.
package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"precificador/internal/adapters/transport"
	"precificador/internal/domain"
	"precificador/internal/logging"
)

type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  transport.NewClient(timeout),
		logger:  logging.OrNop(logger).Named("search.http"),
	}
}

// Search sends query untouched; any non-2xx status is a transport failure.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	q := url.Values{}
	q.Set("q", query)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	raw, status, err := transport.GetJSON(ctx, c.client, c.baseURL+"/search?"+q.Encode(), nil, c.logger)
	if err != nil {
		return nil, domain.TransportError("search", err)
	}
	if status/100 != 2 {
		return nil, domain.TransportError("search", fmt.Errorf("non-2xx status: %d", status))
	}
	items, err := decodeItems(raw)
	if err != nil {
		return nil, domain.TransportError("search decode", err)
	}
	out := make([]domain.SearchResult, 0, len(items))
	for _, it := range items {
		if r, ok := Normalize(it); ok {
			out = append(out, r)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	c.logger.Debug("search.results", zap.Int("raw", len(items)), zap.Int("normalized", len(out)))
	return out, nil
}
