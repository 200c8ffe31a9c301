// Package cache stores rendered post pages and fetched link-preview cards in
// Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"folio/api/internal/render"
)

var ErrMiss = errors.New("cache miss")

const previewTTL = 24 * time.Hour

// Page is a rendered post as served to readers.
type Page struct {
	HTML     string           `json:"html"`
	TOC      []render.Heading `json:"toc"`
	Format   render.Format    `json:"format"`
	CachedAt time.Time        `json:"cachedAt"`
}

type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisCacheWithClient(client, ttl), nil
}

func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisCache{
		client: client,
		prefix: "folio:",
		ttl:    ttl,
	}
}

func (c *RedisCache) pageKey(slug string, variant render.Variant) string {
	return c.prefix + "page:" + slug + ":" + variant.String()
}

func (c *RedisCache) previewKey(url string) string {
	return c.prefix + "preview:" + url
}

// GetPage returns ErrMiss when nothing is cached for slug and variant.
func (c *RedisCache) GetPage(ctx context.Context, slug string, variant render.Variant) (Page, error) {
	var page Page
	if err := c.get(ctx, c.pageKey(slug, variant), &page); err != nil {
		return Page{}, err
	}
	return page, nil
}

func (c *RedisCache) SetPage(ctx context.Context, slug string, variant render.Variant, page Page) error {
	if page.CachedAt.IsZero() {
		page.CachedAt = time.Now().UTC()
	}
	return c.set(ctx, c.pageKey(slug, variant), page, c.ttl)
}

// InvalidatePage drops every cached variant of a post.
func (c *RedisCache) InvalidatePage(ctx context.Context, slug string) error {
	keys := []string{
		c.pageKey(slug, render.VariantBlog),
		c.pageKey(slug, render.VariantPreview),
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate page %s: %w", slug, err)
	}
	return nil
}

func (c *RedisCache) GetPreview(ctx context.Context, url string) (render.LinkCard, error) {
	var card render.LinkCard
	if err := c.get(ctx, c.previewKey(url), &card); err != nil {
		return render.LinkCard{}, err
	}
	return card, nil
}

func (c *RedisCache) SetPreview(ctx context.Context, card render.LinkCard) error {
	return c.set(ctx, c.previewKey(card.URL), card, previewTTL)
}

func (c *RedisCache) get(ctx context.Context, key string, dst any) error {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
