package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store over a single Redis client.
type RedisStore struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ctx: context.Background(),
	}
}

func (s *RedisStore) Get(key string) ([]byte, error) {
	val, err := s.client.Get(s.ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil // Key doesn't exist
	}
	return val, err
}

func (s *RedisStore) Set(key string, value []byte, ttl time.Duration) error {
	return s.client.Set(s.ctx, key, value, ttl).Err()
}

func (s *RedisStore) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(s.ctx, keys...).Err()
}

func (s *RedisStore) Exists(key string) (bool, error) {
	count, err := s.client.Exists(s.ctx, key).Result()
	return count > 0, err
}

func (s *RedisStore) Expire(key string, ttl time.Duration) error {
	return s.client.Expire(s.ctx, key, ttl).Err()
}

func (s *RedisStore) SetAdd(key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return s.client.SAdd(s.ctx, key, args...).Err()
}

func (s *RedisStore) SetRemove(key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return s.client.SRem(s.ctx, key, args...).Err()
}

func (s *RedisStore) SetMembers(key string) ([]string, error) {
	return s.client.SMembers(s.ctx, key).Result()
}

func (s *RedisStore) SetIsMember(key string, member string) (bool, error) {
	return s.client.SIsMember(s.ctx, key, member).Result()
}

func (s *RedisStore) SetCard(key string) (int64, error) {
	return s.client.SCard(s.ctx, key).Result()
}

func (s *RedisStore) ListPush(key string, values ...[]byte) error {
	if len(values) == 0 {
		return nil
	}
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	return s.client.RPush(s.ctx, key, args...).Err()
}

func (s *RedisStore) ListLen(key string) (int64, error) {
	return s.client.LLen(s.ctx, key).Result()
}

func (s *RedisStore) ListRange(key string, start, stop int64) ([][]byte, error) {
	vals, err := s.client.LRange(s.ctx, key, start, stop).Result()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte(v)
	}
	return out, nil
}

func (s *RedisStore) ListIndex(key string, index int64) ([]byte, error) {
	val, err := s.client.LIndex(s.ctx, key, index).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return val, err
}

func (s *RedisStore) HashSet(key, field string, value []byte) error {
	return s.client.HSet(s.ctx, key, field, value).Err()
}

func (s *RedisStore) HashGetAll(key string) (map[string][]byte, error) {
	vals, err := s.client.HGetAll(s.ctx, key).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(vals))
	for k, v := range vals {
		out[k] = []byte(v)
	}
	return out, nil
}

func (s *RedisStore) Ping() error {
	return s.client.Ping(s.ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
