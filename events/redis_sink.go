package events

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the list events are pushed onto.
const DefaultRedisKey = "oidc:auth-events"

// RedisSink appends serialized events to a Redis list.
type RedisSink struct {
	client     redis.Cmdable
	key        string
	serializer Serializer
}

var _ Sink = (*RedisSink)(nil)

func NewRedisSink(client redis.Cmdable, key string) *RedisSink {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisSink{client: client, key: key, serializer: JSONSerializer{}}
}

func (s *RedisSink) Persist(ctx context.Context, evt Event) error {
	b, err := s.serializer.Serialize(evt)
	if err != nil {
		return err
	}
	if err := s.client.RPush(ctx, s.key, b).Err(); err != nil {
		return errors.Wrap(err, "[RedisSink.Persist] rpush event")
	}
	return nil
}
