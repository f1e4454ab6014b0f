package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/danschewy/townhall/internal/models"
)

// RedisStore holds rooms and their message backlogs in Redis. Membership
// lives in a hash (one field per user, so join/leave are atomic), the backlog
// in a sorted set scored by message timestamp. All of a room's keys carry the
// same sliding TTL, refreshed together on every mutation.
type RedisStore struct {
	client  *redis.Client
	ttl     time.Duration
	backlog int
}

// NewRedisStore creates a Redis-backed room store.
func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration, backlog int) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client, ttl: ttl, backlog: backlog}, nil
}

// Client exposes the underlying connection for middleware that shares it.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// roomKey returns the key marking a room's existence.
func roomKey(code string) string {
	return fmt.Sprintf("room:%s", code)
}

// roomUsersKey returns the key for a room's membership hash.
func roomUsersKey(code string) string {
	return fmt.Sprintf("room:%s:users", code)
}

// roomMessagesKey returns the key for a room's message sorted set.
func roomMessagesKey(code string) string {
	return fmt.Sprintf("room:%s:messages", code)
}

// CreateRoom claims a room code. Fails with ErrRoomExists if taken.
func (s *RedisStore) CreateRoom(ctx context.Context, code string, createdAt time.Time) error {
	ok, err := s.client.SetNX(ctx, roomKey(code), strconv.FormatInt(createdAt.UnixMilli(), 10), s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrRoomExists
	}
	return nil
}

// RoomExists reports whether a room code is live.
func (s *RedisStore) RoomExists(ctx context.Context, code string) (bool, error) {
	n, err := s.client.Exists(ctx, roomKey(code)).Result()
	return n == 1, err
}

// Touch refreshes the TTL on all of a room's keys.
func (s *RedisStore) Touch(ctx context.Context, code string) error {
	pipe := s.client.TxPipeline()
	pipe.Expire(ctx, roomKey(code), s.ttl)
	pipe.Expire(ctx, roomUsersKey(code), s.ttl)
	pipe.Expire(ctx, roomMessagesKey(code), s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// AddUser adds a user to the room's membership hash and refreshes the TTL.
func (s *RedisStore) AddUser(ctx context.Context, code string, user models.User) error {
	exists, err := s.RoomExists(ctx, code)
	if err != nil {
		return err
	}
	if !exists {
		return ErrRoomNotFound
	}

	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, roomUsersKey(code), user.ID, data)
	pipe.Expire(ctx, roomKey(code), s.ttl)
	pipe.Expire(ctx, roomUsersKey(code), s.ttl)
	pipe.Expire(ctx, roomMessagesKey(code), s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// RemoveUser removes a user from the membership hash. Removing a user who is
// not a member is a no-op; leave is idempotent.
func (s *RedisStore) RemoveUser(ctx context.Context, code, userID string) error {
	pipe := s.client.TxPipeline()
	pipe.HDel(ctx, roomUsersKey(code), userID)
	pipe.Expire(ctx, roomKey(code), s.ttl)
	pipe.Expire(ctx, roomUsersKey(code), s.ttl)
	pipe.Expire(ctx, roomMessagesKey(code), s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// ListUsers returns the room's members ordered by join time.
func (s *RedisStore) ListUsers(ctx context.Context, code string) ([]models.User, error) {
	fields, err := s.client.HGetAll(ctx, roomUsersKey(code)).Result()
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(fields))
	for _, data := range fields {
		var u models.User
		if json.Unmarshal([]byte(data), &u) != nil {
			continue
		}
		users = append(users, u)
	}

	sort.Slice(users, func(i, j int) bool {
		if users[i].JoinedAt != users[j].JoinedAt {
			return users[i].JoinedAt < users[j].JoinedAt
		}
		return users[i].ID < users[j].ID
	})

	return users, nil
}

// AppendMessage pushes a message onto the room's backlog, trims the backlog
// to its configured cap (oldest entries evicted first), and refreshes the TTL.
func (s *RedisStore) AppendMessage(ctx context.Context, code string, msg *models.AudioMessage) error {
	exists, err := s.RoomExists(ctx, code)
	if err != nil {
		return err
	}
	if !exists {
		return ErrRoomNotFound
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	key := roomMessagesKey(code)

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(msg.Timestamp),
		Member: string(data),
	})
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-(s.backlog + 1)))
	pipe.Expire(ctx, roomKey(code), s.ttl)
	pipe.Expire(ctx, roomUsersKey(code), s.ttl)
	pipe.Expire(ctx, key, s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// MessagesSince returns backlog messages with timestamp strictly greater than
// since, in ascending timestamp order.
func (s *RedisStore) MessagesSince(ctx context.Context, code string, since int64) ([]models.AudioMessage, error) {
	results, err := s.client.ZRangeByScore(ctx, roomMessagesKey(code), &redis.ZRangeBy{
		Min: fmt.Sprintf("(%d", since), // exclusive
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]models.AudioMessage, 0, len(results))
	for _, data := range results {
		var msg models.AudioMessage
		if err := json.Unmarshal([]byte(data), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}

	return messages, nil
}
