package cache

import (
	"context"
	"log/slog"

	"github.com/dshills/dupecheck/internal/providers"
)

// Client serves completions from a Cache and fills it on misses.
type Client struct {
	providers.Client
	cache    *Cache
	endpoint string
	log      *slog.Logger
}

// Wrap decorates inner with c. endpoint is part of every key so responses
// from different services never mix. A disabled cache returns inner
// unchanged.
func Wrap(inner providers.Client, c *Cache, endpoint string, log *slog.Logger) providers.Client {
	if c == nil || !c.Enabled() {
		return inner
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Client{Client: inner, cache: c, endpoint: endpoint, log: log}
}

// Complete returns a cached response when one exists. Only successful,
// non-empty responses are stored.
func (c *Client) Complete(ctx context.Context, req providers.Request) (providers.Response, error) {
	key := BuildCacheKey(c.Name(), req.Model, c.endpoint, req.SystemPrompt, req.UserPrompt)
	if entry, ok := c.cache.Get(key); ok {
		c.log.Debug("cache hit", "key", key[:12])
		return providers.Response{Content: entry.Response, TokensUsed: entry.TokensUsed}, nil
	}

	resp, err := c.Client.Complete(ctx, req)
	if err != nil || resp.Content == "" {
		return resp, err
	}
	if err := c.cache.Put(key, resp.Content, resp.TokensUsed); err != nil {
		c.log.Warn("cache write failed", "err", err)
	}
	return resp, nil
}

// Close closes the wrapped client. The cache itself is owned by the caller.
func (c *Client) Close() error {
	return providers.Close(c.Client)
}
