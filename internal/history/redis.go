package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is the Store backed by a Redis list per session. LPUSH + LTRIM run
// inside one MULTI/EXEC pipeline so push and trim cannot interleave with a
// concurrent append for the same session.
type Redis struct {
	client *redis.Client
	size   int
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, addr, password string, db, size int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if size <= 0 {
		size = DefaultSize
	}
	return &Redis{client: client, size: size}, nil
}

func key(sessionID string) string { return "session::" + sessionID }

// Append pushes raw to the front of the session list and trims to size.
func (r *Redis) Append(ctx context.Context, sessionID string, raw []byte) error {
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, key(sessionID), raw)
	pipe.LTrim(ctx, key(sessionID), 0, int64(r.size-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("history append: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (r *Redis) Recent(ctx context.Context, sessionID string, limit int) ([]json.RawMessage, error) {
	if limit <= 0 || limit > r.size {
		limit = r.size
	}
	vals, err := r.client.LRange(ctx, key(sessionID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("history recent: %w", err)
	}
	out := make([]json.RawMessage, 0, len(vals))
	for _, v := range vals {
		out = append(out, json.RawMessage(v))
	}
	return out, nil
}

// Close closes the underlying client.
func (r *Redis) Close() error { return r.client.Close() }
