package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client wraps Redis for two read-side concerns: a per-category mirror
// of inventory levels (synced from the database, best-effort) and a
// short-TTL cache for dashboard counts. The database stays the source
// of truth; nothing here participates in write transactions.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func levelKey(categoryID string) string {
	return fmt.Sprintf("inventory:level:%s", categoryID)
}

// SetLevel mirrors a category's level fields into a Redis hash
func (c *Client) SetLevel(ctx context.Context, categoryID string, onHand, qtyNew, qtyUsed int, totalValue int64) error {
	pipe := c.rdb.Pipeline()
	pipe.HSet(ctx, levelKey(categoryID), "on_hand", onHand)
	pipe.HSet(ctx, levelKey(categoryID), "new", qtyNew)
	pipe.HSet(ctx, levelKey(categoryID), "used", qtyUsed)
	pipe.HSet(ctx, levelKey(categoryID), "total_value", totalValue)

	_, err := pipe.Exec(ctx)
	return err
}

// AdjustLevel applies signed deltas to a mirrored level
func (c *Client) AdjustLevel(ctx context.Context, categoryID string, deltaNew, deltaUsed int, deltaValue int64) error {
	pipe := c.rdb.Pipeline()
	pipe.HIncrBy(ctx, levelKey(categoryID), "on_hand", int64(deltaNew+deltaUsed))
	pipe.HIncrBy(ctx, levelKey(categoryID), "new", int64(deltaNew))
	pipe.HIncrBy(ctx, levelKey(categoryID), "used", int64(deltaUsed))
	pipe.HIncrBy(ctx, levelKey(categoryID), "total_value", deltaValue)

	_, err := pipe.Exec(ctx)
	return err
}

// GetLevelOnHand reads the mirrored on-hand quantity for a category
func (c *Client) GetLevelOnHand(ctx context.Context, categoryID string) (int, error) {
	val, err := c.rdb.HGet(ctx, levelKey(categoryID), "on_hand").Int()
	if err == redis.Nil {
		return 0, fmt.Errorf("level not mirrored for category %s", categoryID)
	}
	return val, err
}

// SetCounts caches a counts map under key with the given TTL
func (c *Client) SetCounts(ctx context.Context, key string, counts map[string]int, ttl time.Duration) error {
	payload, err := json.Marshal(counts)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, fmt.Sprintf("counts:%s", key), payload, ttl).Err()
}

// GetCounts reads a cached counts map; found is false on a miss
func (c *Client) GetCounts(ctx context.Context, key string) (map[string]int, bool, error) {
	payload, err := c.rdb.Get(ctx, fmt.Sprintf("counts:%s", key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var counts map[string]int
	if err := json.Unmarshal(payload, &counts); err != nil {
		return nil, false, err
	}
	return counts, true, nil
}

// InvalidateCounts drops a cached counts entry
func (c *Client) InvalidateCounts(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("counts:%s", key)).Err()
}
