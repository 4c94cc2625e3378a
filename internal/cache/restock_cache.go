package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kenttraders/aimarketops/backend-go/internal/config"
	"github.com/redis/go-redis/v9"
)

const (
	restockKeyPrefix     = "restock:result"
	restockScanBatchSize = 100
)

// RestockQuery identifies one cached computation.
type RestockQuery struct {
	Action             string
	Mode               string
	Threshold          int
	IncludePredictions bool
	Sources            []string
}

// RestockCache stores computed restock responses for a short TTL so repeated dashboard
// refreshes do not hit the upstream APIs.
type RestockCache interface {
	Get(ctx context.Context, q RestockQuery, into any) (bool, error)
	Set(ctx context.Context, q RestockQuery, value any) error
	InvalidateAll(ctx context.Context) error
}

type redisRestockCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopRestockCache struct{}

// NewRestockCache connects to Redis when caching is enabled and returns a no-op cache otherwise.
func NewRestockCache(ctx context.Context, cfg config.CacheConfig) (RestockCache, error) {
	if !cfg.Enabled {
		return &noopRestockCache{}, nil
	}

	client, err := dial(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &redisRestockCache{
		client: client,
		ttl:    cacheTTL(cfg.RestockTTLSeconds),
	}, nil
}

// NewRedisRestockCache wraps an existing client.
func NewRedisRestockCache(client *redis.Client, ttl time.Duration) RestockCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &redisRestockCache{client: client, ttl: ttl}
}

func NewNoopRestockCache() RestockCache {
	return &noopRestockCache{}
}

func (c *redisRestockCache) Get(ctx context.Context, q RestockQuery, into any) (bool, error) {
	payload, err := c.client.Get(ctx, buildRestockKey(q)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(payload, into); err != nil {
		return false, fmt.Errorf("decode restock cache: %w", err)
	}
	return true, nil
}

func (c *redisRestockCache) Set(ctx context.Context, q RestockQuery, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode restock cache: %w", err)
	}

	if err := c.client.Set(ctx, buildRestockKey(q), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisRestockCache) InvalidateAll(ctx context.Context) error {
	_, err := unlinkPrefix(ctx, c.client, restockKeyPrefix+":", restockScanBatchSize)
	return err
}

func (n *noopRestockCache) Get(ctx context.Context, q RestockQuery, into any) (bool, error) {
	return false, nil
}

func (n *noopRestockCache) Set(ctx context.Context, q RestockQuery, value any) error {
	return nil
}

func (n *noopRestockCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildRestockKey(q RestockQuery) string {
	return fmt.Sprintf("%s:%s", restockKeyPrefix, restockQueryHash(q))
}

func restockQueryHash(q RestockQuery) string {
	parts := []string{"action=" + strings.ToLower(strings.TrimSpace(q.Action))}

	if q.Mode != "" {
		parts = append(parts, "mode="+strings.ToLower(strings.TrimSpace(q.Mode)))
	}
	if q.Threshold > 0 {
		parts = append(parts, fmt.Sprintf("threshold=%d", q.Threshold))
	}
	if q.IncludePredictions {
		parts = append(parts, "predictions=true")
	}
	if len(q.Sources) > 0 {
		parts = append(parts, "sources="+joinStrings(q.Sources))
	}

	sort.Strings(parts)
	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func joinStrings(values []string) string {
	c := append([]string(nil), values...)
	for i := range c {
		c[i] = strings.TrimSpace(strings.ToLower(c[i]))
	}
	sort.Strings(c)
	return strings.Join(c, ",")
}
