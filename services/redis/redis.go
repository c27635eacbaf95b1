package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient wraps the go-redis client together with its context
type RedisClient struct {
	Client *redis.Client
	Ctx    context.Context
}

const roomCodeTTL = 24 * time.Hour

func NewRedisClient(addr string, db int) *RedisClient {
	opts := &redis.Options{Addr: addr, DB: db}
	if parsed, err := redis.ParseURL(addr); err == nil {
		opts = parsed
	}
	return &RedisClient{
		Client: redis.NewClient(opts),
		Ctx:    context.Background(),
	}
}

func formatRoomCodeKey(code string) string {
	return fmt.Sprintf("room_code:%s", code)
}

func formatViewersKey(gameID string) string {
	return fmt.Sprintf("game_viewers:%s", gameID)
}

// SetRoomCode caches the code -> room id mapping. Best-effort: the
// rooms table stays the single source of truth.
func (rc *RedisClient) SetRoomCode(code string, roomID string) error {
	return rc.Client.Set(rc.Ctx, formatRoomCodeKey(code), roomID, roomCodeTTL).Err()
}

// GetRoomCode returns the cached room id for a join code, or "" on a miss.
func (rc *RedisClient) GetRoomCode(code string) (string, error) {
	roomID, err := rc.Client.Get(rc.Ctx, formatRoomCodeKey(code)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read room code key: %v", err)
	}
	return roomID, nil
}

// DeleteRoomCode drops the cached mapping, used once a room stops
// accepting joins.
func (rc *RedisClient) DeleteRoomCode(code string) error {
	return rc.Client.Del(rc.Ctx, formatRoomCodeKey(code)).Err()
}

// IncrViewers / DecrViewers keep a per-game viewer gauge for
// diagnostics across instances. Never used for game decisions.
func (rc *RedisClient) IncrViewers(gameID string) error {
	return rc.Client.Incr(rc.Ctx, formatViewersKey(gameID)).Err()
}

func (rc *RedisClient) DecrViewers(gameID string) error {
	return rc.Client.Decr(rc.Ctx, formatViewersKey(gameID)).Err()
}

// GetViewers returns the viewer gauge across all instances, 0 when the
// key does not exist.
func (rc *RedisClient) GetViewers(gameID string) (int64, error) {
	count, err := rc.Client.Get(rc.Ctx, formatViewersKey(gameID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read viewers key: %v", err)
	}
	return count, nil
}

// DropGameKeys removes a finished game's diagnostic keys.
func (rc *RedisClient) DropGameKeys(gameID string) error {
	return rc.CleanupKeys([]string{formatViewersKey(gameID)})
}

// CleanupKeys removes the specified keys from Redis
func (rc *RedisClient) CleanupKeys(keys []string) error {
	for _, key := range keys {
		if err := rc.Client.Del(rc.Ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to cleanup Redis key %s: %v", key, err)
		}
	}
	return nil
}
