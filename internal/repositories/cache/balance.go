package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// BalanceCache caches per-user wallet balances. A miss is not an error;
// callers fall back to the database and repopulate.
type BalanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewBalanceCache(client *redis.Client, ttl time.Duration) *BalanceCache {
	return &BalanceCache{client: client, ttl: ttl}
}

func balanceKey(userID uint) string {
	return fmt.Sprintf("balance:%d", userID)
}

// GetBalance returns the cached balance and whether it was present.
func (c *BalanceCache) GetBalance(ctx context.Context, userID uint) (decimal.Decimal, bool, error) {
	val, err := c.client.Get(ctx, balanceKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("failed to read balance cache: %w", err)
	}
	balance, err := decimal.NewFromString(val)
	if err != nil {
		// Unparseable entry, treat as a miss and let the caller repopulate.
		return decimal.Zero, false, nil
	}
	return balance, true, nil
}

func (c *BalanceCache) SetBalance(ctx context.Context, userID uint, balance decimal.Decimal) error {
	return c.client.Set(ctx, balanceKey(userID), balance.StringFixed(2), c.ttl).Err()
}

func (c *BalanceCache) InvalidateBalance(ctx context.Context, userIDs ...uint) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, balanceKey(id))
	}
	return c.client.Del(ctx, keys...).Err()
}

// HealthCheck pings Redis.
func (c *BalanceCache) HealthCheck(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// Close closes the underlying Redis connection.
func (c *BalanceCache) Close() error {
	return c.client.Close()
}
