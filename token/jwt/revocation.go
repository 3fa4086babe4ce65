package jwt

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RevocationList records redeemed authorization codes and refresh tokens by jti.
type RevocationList interface {
	// Revoke marks jti as used until exp. It reports false when jti was already revoked.
	Revoke(ctx context.Context, jti string, exp time.Time) (bool, error)
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// InMemoryRevocationList is a process-local RevocationList.
type InMemoryRevocationList struct {
	revoked map[string]time.Time
	mu      sync.Mutex
	nowTime func() time.Time
}

var _ RevocationList = (*InMemoryRevocationList)(nil)

func NewInMemoryRevocationList() *InMemoryRevocationList {
	return &InMemoryRevocationList{
		revoked: make(map[string]time.Time),
		nowTime: time.Now,
	}
}

func (c *InMemoryRevocationList) Revoke(_ context.Context, jti string, exp time.Time) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanup()
	if _, exists := c.revoked[jti]; exists {
		return false, nil
	}
	c.revoked[jti] = exp
	return true, nil
}

func (c *InMemoryRevocationList) IsRevoked(_ context.Context, jti string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, exists := c.revoked[jti]
	return exists, nil
}

// cleanup drops entries whose token has expired anyway. Callers hold mu.
func (c *InMemoryRevocationList) cleanup() {
	now := c.nowTime()
	for jti, exp := range c.revoked {
		if now.After(exp) {
			delete(c.revoked, jti)
		}
	}
}

// RedisRevocationList shares revocations between instances. Entries expire with the token.
type RedisRevocationList struct {
	client  redis.Cmdable
	prefix  string
	nowTime func() time.Time
}

var _ RevocationList = (*RedisRevocationList)(nil)

func NewRedisRevocationList(client redis.Cmdable, prefix string) *RedisRevocationList {
	if prefix == "" {
		prefix = "oidc:revoked:"
	}
	return &RedisRevocationList{client: client, prefix: prefix, nowTime: time.Now}
}

func (r *RedisRevocationList) Revoke(ctx context.Context, jti string, exp time.Time) (bool, error) {
	ttl := exp.Sub(r.nowTime())
	if ttl <= 0 {
		ttl = time.Second
	}
	ok, err := r.client.SetNX(ctx, r.prefix+jti, 1, ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "[RedisRevocationList.Revoke] setnx")
	}
	return ok, nil
}

func (r *RedisRevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+jti).Result()
	if err != nil {
		return false, errors.Wrap(err, "[RedisRevocationList.IsRevoked] exists")
	}
	return n > 0, nil
}
