// internal/adapters/redis_adapter/cache.go
package redis_a

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
	"github.com/ammerola/pharmabook-be/internal/core/ports"
)

// ErrCacheMiss is returned when a bill is absent, expired or unreadable.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores bills as JSON under bill:{owner}:{id}. Stock quantities are
// never cached.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var (
	_ ports.BillCache     = (*Cache)(nil)
	_ ports.HealthChecker = (*Cache)(nil)
)

func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "cache")),
	}
}

// BillKey is the Redis key for one owner's bill.
func BillKey(ownerID, billID uuid.UUID) string {
	return fmt.Sprintf("bill:%s:%s", ownerID, billID)
}

func (c *Cache) GetBill(ctx context.Context, ownerID, billID uuid.UUID) (*domain.Bill, error) {
	var bill domain.Bill
	if err := c.get(ctx, BillKey(ownerID, billID), &bill); err != nil {
		return nil, err
	}
	// The key embeds the owner, but a bill for someone else is never served.
	if bill.OwnerID != ownerID {
		return nil, ErrCacheMiss
	}
	return &bill, nil
}

func (c *Cache) PutBill(ctx context.Context, bill *domain.Bill) error {
	return c.set(ctx, BillKey(bill.OwnerID, bill.ID), bill)
}

func (c *Cache) set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *Cache) get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return ErrCacheMiss
	case err != nil:
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.WarnContext(ctx, "dropping undecodable cache entry",
			slog.String("key", key),
			slog.String("error", err.Error()))
		c.client.Del(ctx, key)
		return ErrCacheMiss
	}
	return nil
}

func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Health reports round-trip latency and connection pool counters.
func (c *Cache) Health(ctx context.Context) map[string]interface{} {
	start := time.Now()
	if err := c.Ping(ctx); err != nil {
		return map[string]interface{}{"status": "unhealthy", "error": err.Error()}
	}

	stats := c.client.PoolStats()
	return map[string]interface{}{
		"status":      "healthy",
		"latency_ms":  time.Since(start).Milliseconds(),
		"bill_ttl":    c.ttl.String(),
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
	}
}
