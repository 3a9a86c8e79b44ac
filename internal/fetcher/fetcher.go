// Package fetcher retrieves viz-of-the-day pages from the discovery endpoint.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/dashwatch/votd-archive/internal/votd"
)

// ErrProtocol reports a catalog response that matches neither accepted
// shape (object with a "vizzes" list, or a bare list).
var ErrProtocol = errors.New("unexpected catalog response shape")

// Config controls the catalog client.
type Config struct {
	// BaseURL is the viz-of-the-day discovery endpoint.
	BaseURL string
	// PageSize is the number of entries requested per page.
	PageSize int
	// Timeout bounds each page request.
	Timeout time.Duration
	// UserAgent is sent on every request.
	UserAgent string
}

// Client fetches catalog pages sequentially.
type Client struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New constructs a Client.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 12
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// FetchPage issues one request for the given page index and limit.
func (c *Client) FetchPage(ctx context.Context, page, limit int) ([]votd.CatalogEntry, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog page %d: %w", page, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("catalog page %d: unexpected status %d", page, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read catalog page %d: %w", page, err)
	}
	return decodeEntries(body)
}

// decodeEntries accepts both object-wrapped and bare-array payloads.
func decodeEntries(body []byte) ([]votd.CatalogEntry, error) {
	var wrapped struct {
		Vizzes []votd.CatalogEntry `json:"vizzes"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Vizzes != nil {
		return wrapped.Vizzes, nil
	}
	var arr []votd.CatalogEntry
	if err := json.Unmarshal(body, &arr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return arr, nil
}

// FetchAll pages through the feed until limit entries are collected or a
// page comes back empty. A page error stops pagination and returns what
// was collected so far; the degradation is logged, not propagated.
func (c *Client) FetchAll(ctx context.Context, limit int) []votd.CatalogEntry {
	var all []votd.CatalogEntry
	for page := 0; len(all) < limit; page++ {
		entries, err := c.FetchPage(ctx, page, c.cfg.PageSize)
		if err != nil {
			c.logger.Warn("pagination stopped early",
				zap.Int("page", page),
				zap.Int("collected", len(all)),
				zap.Error(err),
			)
			break
		}
		if len(entries) == 0 {
			c.logger.Debug("end of feed", zap.Int("page", page))
			break
		}
		for _, e := range entries {
			if len(all) >= limit {
				break
			}
			all = append(all, e)
		}
		c.logger.Debug("fetched catalog page",
			zap.Int("page", page),
			zap.Int("total", len(all)),
		)
	}
	return all
}
