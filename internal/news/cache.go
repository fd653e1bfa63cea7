package news

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/norihq/nori/config"
)

const cacheKeyPrefix = "nori:search:"

// Cache is a short-TTL Redis cache for search results, keyed on the full
// provider query. It only smooths repeated identical queries; it is not an
// article index. All methods are nil-safe and cache errors are logged,
// never surfaced.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// NewCache connects to Redis and verifies the connection. A config with an
// empty address yields a nil cache, which disables caching.
func NewCache(ctx context.Context, cfg config.CacheConfig) (*Cache, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Cache{
		client: client,
		ttl:    cfg.TTL,
		logger: log.New(log.Writer(), "[CACHE] ", log.LstdFlags),
	}, nil
}

func (c *Cache) Get(ctx context.Context, key string) ([]Article, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Printf("get %s: %v", key, err)
		}
		return nil, false
	}
	var articles []Article
	if err := json.Unmarshal(data, &articles); err != nil {
		c.logger.Printf("decode %s: %v", key, err)
		return nil, false
	}
	return articles, true
}

func (c *Cache) Set(ctx context.Context, key string, articles []Article) {
	if c == nil {
		return
	}
	data, err := json.Marshal(articles)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Printf("set %s: %v", key, err)
	}
}

// Close releases the underlying Redis connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

func cacheKey(params url.Values) string {
	sum := sha1.Sum([]byte(params.Encode()))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
