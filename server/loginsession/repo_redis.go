package loginsession

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "oidc:session:"

var _ Repo = (*RedisLoginSessionRepo)(nil)

// RedisLoginSessionRepo stores sessions as JSON strings that expire with the session.
type RedisLoginSessionRepo struct {
	client  redis.Cmdable
	prefix  string
	nowTime func() time.Time
}

func NewRedisLoginSessionRepo(client redis.Cmdable, prefix string) *RedisLoginSessionRepo {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisLoginSessionRepo{client: client, prefix: prefix, nowTime: time.Now}
}

func (r *RedisLoginSessionRepo) Upsert(ctx context.Context, sessionID string, session Session) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}
	ttl := session.ExpiresAt.Sub(r.nowTime())
	if ttl <= 0 {
		return fmt.Errorf("session %s has already expired", sessionID)
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, r.prefix+sessionID, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (r *RedisLoginSessionRepo) Get(ctx context.Context, sessionID string) (Session, error) {
	data, err := r.client.Get(ctx, r.prefix+sessionID).Bytes()
	if err == redis.Nil {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return Session{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return session, nil
}

func (r *RedisLoginSessionRepo) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.prefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
