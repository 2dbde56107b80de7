package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Eyoab11/kuriftu/internal/metrics"
	"github.com/Eyoab11/kuriftu/internal/models"
	"github.com/Eyoab11/kuriftu/internal/push"
)

const sessionTTL = 7 * 24 * time.Hour

// RedisStore handles Redis operations: session tokens, send rate counters
// and the room event Pub/Sub channel used as the push transport.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Client exposes the underlying client for middleware that needs it.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// sessionKey returns the key for a bearer token.
func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

// sendLimitKey returns the key for a user's send rate counter.
func sendLimitKey(userID string) string {
	return fmt.Sprintf("sendlimit:%s", userID)
}

// roomEventsKey returns the Pub/Sub channel for a room's inserts.
func roomEventsKey(roomID string) string {
	return fmt.Sprintf("room:%s:events", roomID)
}

// SaveSession stores a bearer token with a TTL.
func (s *RedisStore) SaveSession(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = sessionTTL
	}
	return s.client.Set(ctx, sessionKey(token), userID.String(), ttl).Err()
}

// GetSession resolves a bearer token to a user id.
// Returns uuid.Nil with no error when the token is unknown or expired.
func (s *RedisStore) GetSession(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := s.client.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// DeleteSession invalidates a bearer token.
func (s *RedisStore) DeleteSession(ctx context.Context, token string) error {
	return s.client.Del(ctx, sessionKey(token)).Err()
}

// CheckSendLimit reports whether a user is under the send rate limit.
func (s *RedisStore) CheckSendLimit(ctx context.Context, userID string, limit int) (bool, error) {
	count, err := s.client.Get(ctx, sendLimitKey(userID)).Int()
	if err != nil && err != redis.Nil {
		return false, err
	}
	return count < limit, nil
}

// IncrementSendLimit increments the user's send rate counter.
func (s *RedisStore) IncrementSendLimit(ctx context.Context, userID string, window time.Duration) error {
	key := sendLimitKey(userID)

	pipe := s.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	_, err := pipe.Exec(ctx)
	return err
}

// Publish sends an inserted message to the room's event channel.
func (s *RedisStore) Publish(ctx context.Context, msg *models.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, roomEventsKey(msg.RoomID), data).Err()
}

// Subscribe opens a subscription on a room's event channel. Redis Pub/Sub
// preserves publish order per channel, which keeps the per-room ordering
// guarantee the stream synchronizer relies on.
func (s *RedisStore) Subscribe(ctx context.Context, roomID string, fn func(models.Message)) (push.Subscription, error) {
	pubsub := s.client.Subscribe(ctx, roomEventsKey(roomID))

	// Force the subscription to be established before returning, so no
	// insert published after Subscribe can be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	go func() {
		for m := range pubsub.Channel() {
			var msg models.Message
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				continue
			}
			metrics.PushDeliveries.Inc()
			fn(msg)
		}
	}()

	return &redisSubscription{pubsub: pubsub}, nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
}

func (s *redisSubscription) Close() error {
	return s.pubsub.Close()
}
