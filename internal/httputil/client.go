// Package httputil is the shared HTTP fetch helper used by all source
// adapters. It normalizes non-2xx responses into httperror values and can
// serve repeat fetches from a pluggable response cache honoring each
// adapter's TTL hint.
package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/chadn/cmf-server/internal/httperror"
	"github.com/chadn/cmf-server/internal/utils/logger/sl"
)

// Cache stores raw response bodies keyed by URL. Implementations decide
// durability; Get returns false when the entry is absent or older than
// maxAge.
type Cache interface {
	Get(ctx context.Context, url string, maxAge time.Duration) ([]byte, bool)
	Put(ctx context.Context, url string, body []byte) error
}

type Client struct {
	log   *slog.Logger
	http  *http.Client
	cache Cache // nil disables caching
}

func NewClient(log *slog.Logger, cache Cache) *Client {
	return &Client{
		log: log,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: cache,
	}
}

// GetBody fetches url and returns the response body. Non-2xx responses and
// empty bodies are returned as *httperror.Error.
func (c *Client) GetBody(ctx context.Context, url string) ([]byte, error) {
	op := "httputil.Client.GetBody()"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, httperror.FromResponse(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(body) == 0 {
		return nil, httperror.New(resp.StatusCode, "empty response body")
	}

	return body, nil
}

// GetCached is GetBody behind the response cache. ttl <= 0 bypasses the
// cache entirely (the adapter asked not to be cached).
func (c *Client) GetCached(ctx context.Context, url string, ttl time.Duration) ([]byte, error) {
	op := "httputil.Client.GetCached()"
	log := c.log.With(slog.String("op", op))

	if c.cache == nil || ttl <= 0 {
		return c.GetBody(ctx, url)
	}

	if body, ok := c.cache.Get(ctx, url, ttl); ok {
		log.Debug("cache hit", slog.String("url", url))
		return body, nil
	}

	body, err := c.GetBody(ctx, url)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Put(ctx, url, body); err != nil {
		log.Warn("cache write failed", slog.String("url", url), sl.Err(err))
	}

	return body, nil
}

// GetJSON fetches url and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	body, err := c.GetBody(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httputil.Client.GetJSON(): decode %s: %w", url, err)
	}
	return nil
}

// PostJSON sends in as a JSON body and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, url string, in, out any) error {
	op := "httputil.Client.PostJSON()"

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httperror.FromResponse(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode %s: %w", op, url, err)
	}
	return nil
}
