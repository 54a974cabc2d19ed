package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const statusKeyPrefix = "agent:status:"

// StatusCache mirrors live agent status strings into Redis so the desktop
// shell can poll without touching the engine. Entries expire on their own;
// the cache is best-effort and never authoritative.
type StatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatusCache creates a StatusCache with the given entry TTL.
func NewStatusCache(client *redis.Client, ttl time.Duration) *StatusCache {
	return &StatusCache{client: client, ttl: ttl}
}

// SetStatus writes one agent's status string. The cache is write-only from
// this service; the desktop shell reads the keys from redis directly.
func (c *StatusCache) SetStatus(ctx context.Context, agentID, status string) error {
	if err := c.client.Set(ctx, statusKeyPrefix+agentID, status, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache status for %s: %w", agentID, err)
	}
	return nil
}
