package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// UnreadCounters keeps per-(user, conversation) unread counts in
// Redis. Counts are advisory badges; losing them on a Redis restart
// is acceptable, the messages themselves live in Scylla.
type UnreadCounters struct {
	client *redis.Client
}

func NewUnreadCounters(client *redis.Client) *UnreadCounters {
	return &UnreadCounters{client: client}
}

func unreadKey(userID string, conversationID int64) string {
	return fmt.Sprintf("pronet:unread:%s:%d", userID, conversationID)
}

func (u *UnreadCounters) Increment(ctx context.Context, userID string, conversationID int64) error {
	return u.client.Incr(ctx, unreadKey(userID, conversationID)).Err()
}

// Reset clears the badge when the user opens the conversation.
func (u *UnreadCounters) Reset(ctx context.Context, userID string, conversationID int64) error {
	return u.client.Del(ctx, unreadKey(userID, conversationID)).Err()
}

func (u *UnreadCounters) Get(ctx context.Context, userID string, conversationID int64) (int64, error) {
	n, err := u.client.Get(ctx, unreadKey(userID, conversationID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}
