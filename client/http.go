// Package client reads the paged memo JSON served by `memos serve` (or the
// static site it mirrors) and exposes it as a list source.
package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/miosa/osa-memos/memo"
)

// ErrStatus wraps every non-2xx reply.
var ErrStatus = errors.New("client: unexpected status")

const (
	infoPath = "/data/memos/info.json"
	pagePath = "/data/memos/%d.json"
	infoKey  = "info"
)

type Client struct {
	base  string
	tag   string
	ttl   time.Duration
	http  *resty.Client
	cache *cache.Cache
	group singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// WithCacheTTL sets how long pages stay cached. Zero disables the cache.
func WithCacheTTL(d time.Duration) Option {
	return func(c *Client) { c.ttl = d }
}

// WithTag restricts every request to memos carrying tag.
func WithTag(tag string) Option {
	return func(c *Client) { c.tag = tag }
}

func New(baseURL string, opts ...Option) *Client {
	base := strings.TrimRight(baseURL, "/")
	c := &Client{
		base: base,
		ttl:  5 * time.Minute,
		http: resty.New().
			SetBaseURL(base).
			SetTimeout(10*time.Second).
			SetHeader("Accept", "application/json"),
	}
	for _, o := range opts {
		o(c)
	}
	c.cache = cache.New(c.ttl, 2*c.ttl+time.Minute)
	return c
}

func (c *Client) Name() string { return "remote:" + c.base }

// Close drops cached pages.
func (c *Client) Close() error {
	c.cache.Flush()
	return nil
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var health HealthResponse
	if err := c.get(ctx, "/health", &health); err != nil {
		return nil, fmt.Errorf("health check failed: %w", err)
	}
	return &health, nil
}

// Info returns the page layout of the server.
func (c *Client) Info(ctx context.Context) (Info, error) {
	v, err := c.cached(ctx, infoKey, func() (any, error) {
		var info Info
		if err := c.get(ctx, infoPath, &info); err != nil {
			return nil, fmt.Errorf("info: %w", err)
		}
		return info, nil
	})
	if err != nil {
		return Info{}, err
	}
	return v.(Info), nil
}

// Page returns page n, counted from 0.
func (c *Client) Page(ctx context.Context, n int) ([]memo.Memo, error) {
	v, err := c.cached(ctx, "page:"+strconv.Itoa(n), func() (any, error) {
		var page Page
		if err := c.get(ctx, fmt.Sprintf(pagePath, n), &page); err != nil {
			return nil, fmt.Errorf("page %d: %w", n, err)
		}
		return []memo.Memo(page), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]memo.Memo), nil
}

// FetchFrom maps an absolute range onto the pages that cover it.
func (c *Client) FetchFrom(ctx context.Context, start, size int) ([]memo.Memo, error) {
	if start < 0 || size <= 0 {
		return nil, nil
	}
	info, err := c.Info(ctx)
	if err != nil {
		return nil, err
	}
	if info.Size <= 0 || start >= info.Count {
		return nil, nil
	}

	first := start / info.Size
	last := min((start+size-1)/info.Size, info.Pages)
	out := make([]memo.Memo, 0, size)
	for p := first; p <= last; p++ {
		page, err := c.Page(ctx, p)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		out = append(out, page...)
	}

	skip := start - first*info.Size
	if skip >= len(out) {
		return nil, nil
	}
	out = out[skip:]
	if len(out) > size {
		out = out[:size]
	}
	return out, nil
}

// cached loads key through the cache, collapsing concurrent loads.
func (c *Client) cached(ctx context.Context, key string, load func() (any, error)) (any, error) {
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		v, err := load()
		if err == nil && c.ttl > 0 {
			c.cache.SetDefault(key, v)
		}
		return v, err
	})
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return v, err
}

// -- HTTP helpers -------------------------------------------------------------

func (c *Client) get(ctx context.Context, path string, out any) error {
	var apiErr ErrorResponse
	req := c.http.R().
		SetContext(ctx).
		SetResult(out).
		SetError(&apiErr)
	if c.tag != "" {
		req.SetQueryParam("tag", c.tag)
	}
	resp, err := req.Get(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return statusError(resp.StatusCode(), apiErr, resp.String())
	}
	return nil
}

func statusError(code int, apiErr ErrorResponse, body string) error {
	if apiErr.Error != "" {
		if apiErr.Details != "" {
			return fmt.Errorf("%w %d: %s: %s", ErrStatus, code, apiErr.Error, apiErr.Details)
		}
		return fmt.Errorf("%w %d: %s", ErrStatus, code, apiErr.Error)
	}
	return fmt.Errorf("%w %d: %s", ErrStatus, code, strings.TrimSpace(body))
}
