package presence

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const onlineSetKey = "pronet:online"

// RedisMirror keeps the online set in a Redis set so the api process
// can serve presence snapshots without touching the gateway.
type RedisMirror struct {
	client *redis.Client
}

func NewRedisMirror(client *redis.Client) *RedisMirror {
	return &RedisMirror{client: client}
}

func (m *RedisMirror) SetOnline(ctx context.Context, userID string) error {
	return m.client.SAdd(ctx, onlineSetKey, userID).Err()
}

func (m *RedisMirror) SetOffline(ctx context.Context, userID string) error {
	return m.client.SRem(ctx, onlineSetKey, userID).Err()
}

// Snapshot lists the mirrored online set. Used by the api process;
// within the gateway the registry itself is authoritative.
func (m *RedisMirror) Snapshot(ctx context.Context) ([]string, error) {
	return m.client.SMembers(ctx, onlineSetKey).Result()
}
